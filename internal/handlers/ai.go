package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/artconnect/artconnect/internal/captions"
	"github.com/artconnect/artconnect/internal/models"
)

// AIHandler exposes the content generation endpoints. Generation never fails
// from the caller's point of view: the writer answers with fixed copy instead.
type AIHandler struct {
	Users  UserStore
	Writer CaptionWriter
}

// GenerateCaption handles POST /api/ai/generate-caption.
func (h AIHandler) GenerateCaption(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := h.artisan(w, r, "Only artisans can use AI content generation")
	if !ok {
		return
	}

	var req captionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	description := strings.TrimSpace(req.ImageDescription)
	if description == "" {
		respondError(ctx, w, http.StatusBadRequest, "Image description is required")
		return
	}

	caption, err := h.Writer.GenerateCaption(ctx, description, user.CraftType)
	if err != nil {
		caption = captions.DefaultCaption()
	}

	respondJSON(ctx, w, http.StatusOK, captionResponse{
		Success:  true,
		Caption:  caption.Caption,
		Hashtags: caption.Hashtags,
		Story:    caption.Story,
	})
}

// DescribeProduct handles POST /api/ai/generate-product-description.
func (h AIHandler) DescribeProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := h.artisan(w, r, "Only artisans can use AI content generation")
	if !ok {
		return
	}

	var req productDescriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	brief := captions.ProductBrief{
		Title:            strings.TrimSpace(req.Title),
		BasicDescription: strings.TrimSpace(req.BasicDescription),
		CraftType:        user.CraftType,
		Price:            priceText(req.Price),
	}
	if brief.Title == "" || brief.BasicDescription == "" {
		respondError(ctx, w, http.StatusBadRequest, "Title and basic description are required")
		return
	}

	description, err := h.Writer.DescribeProduct(ctx, brief)
	if err != nil || strings.TrimSpace(description) == "" {
		description = "Beautifully crafted " + brief.Title + ". " + brief.BasicDescription
	}

	respondJSON(ctx, w, http.StatusOK, productDescriptionResponse{Success: true, Description: description})
}

// AnalyzeImage handles POST /api/ai/analyze-image.
func (h AIHandler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := h.artisan(w, r, "Only artisans can use AI image analysis"); !ok {
		return
	}

	var req analyzeImageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	encoded := strings.TrimSpace(req.Base64Image)
	if encoded == "" {
		respondError(ctx, w, http.StatusBadRequest, "Base64 image data is required")
		return
	}

	mimeType := "image/jpeg"
	if strings.HasPrefix(encoded, "data:") {
		header, data, found := strings.Cut(encoded, ",")
		if !found {
			respondError(ctx, w, http.StatusBadRequest, "Invalid image data")
			return
		}
		if t := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64"); t != "" {
			mimeType = t
		}
		encoded = data
	}

	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "Invalid image data")
		return
	}

	analysis, err := h.Writer.AnalyzeImage(ctx, image, mimeType)
	if err != nil || strings.TrimSpace(analysis) == "" {
		analysis = "A beautiful handcrafted item showcasing traditional artistry and skill."
	}

	respondJSON(ctx, w, http.StatusOK, analyzeImageResponse{Success: true, Analysis: analysis})
}

func (h AIHandler) artisan(w http.ResponseWriter, r *http.Request, forbidden string) (models.User, bool) {
	ctx := r.Context()
	user, ok := currentUser(w, r, h.Users)
	if !ok {
		return models.User{}, false
	}
	if !user.IsArtisan() {
		respondError(ctx, w, http.StatusForbidden, forbidden)
		return models.User{}, false
	}
	if h.Writer == nil {
		respondError(ctx, w, http.StatusServiceUnavailable, "AI content generation unavailable")
		return models.User{}, false
	}
	return user, true
}

func priceText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	price, err := parsePrice(raw)
	if err != nil {
		return ""
	}
	return strconv.FormatFloat(price, 'f', 2, 64)
}

type captionRequest struct {
	ImageDescription string `json:"image_description"`
}

type captionResponse struct {
	Success  bool   `json:"success"`
	Caption  string `json:"caption"`
	Hashtags string `json:"hashtags"`
	Story    string `json:"story"`
}

type productDescriptionRequest struct {
	Title            string          `json:"title"`
	BasicDescription string          `json:"basic_description"`
	Price            json.RawMessage `json:"price"`
}

type productDescriptionResponse struct {
	Success     bool   `json:"success"`
	Description string `json:"description"`
}

type analyzeImageRequest struct {
	Base64Image string `json:"base64_image"`
}

type analyzeImageResponse struct {
	Success  bool   `json:"success"`
	Analysis string `json:"analysis"`
}
