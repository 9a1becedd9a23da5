package captions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/artconnect/artconnect/internal/config"
	"github.com/artconnect/artconnect/internal/models"
)

const (
	captionInstruction = "You are an expert social media content creator for artisans. " +
		"Generate engaging, authentic captions and hashtags that tell stories about handcrafted items " +
		"and connect with audiences emotionally. Respond with JSON in this format: " +
		`{"caption": "engaging caption", "hashtags": "#hashtag1 #hashtag2", "story": "longer background story"}`

	productInstruction = "You are an expert product copywriter for artisan marketplaces. " +
		"Create compelling, authentic product descriptions that highlight craftsmanship, uniqueness, " +
		"and emotional appeal while being practical for buyers. Keep descriptions concise but engaging."

	analysisPrompt = "Analyze this image of handcrafted artwork. Describe the item, materials used, " +
		"crafting technique, colors, style, and any cultural or artistic elements. " +
		"Keep it concise but detailed for social media."
)

// contentModel is the subset of *genai.Models used here.
type contentModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiWriter generates copy with the Gemini API.
type GeminiWriter struct {
	models      contentModel
	model       string
	visionModel string
	timeout     time.Duration
}

// NewGeminiWriter creates a Gemini API client from cfg.
func NewGeminiWriter(ctx context.Context, cfg config.GeminiConfig) (*GeminiWriter, error) {
	if !cfg.Enabled() {
		return nil, ErrGeneratorUnavailable
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return newGeminiWriter(client.Models, cfg), nil
}

func newGeminiWriter(models contentModel, cfg config.GeminiConfig) *GeminiWriter {
	w := &GeminiWriter{
		models:      models,
		model:       cfg.Model,
		visionModel: cfg.VisionModel,
		timeout:     cfg.Timeout,
	}
	if w.model == "" {
		w.model = "gemini-2.5-flash"
	}
	if w.visionModel == "" {
		w.visionModel = w.model
	}
	if w.timeout <= 0 {
		w.timeout = 20 * time.Second
	}
	return w
}

// GenerateCaption asks the model for a caption, hashtags and a background story.
// Fields missing from the model's JSON are filled with short defaults.
func (w *GeminiWriter) GenerateCaption(ctx context.Context, description, craftType string) (models.Caption, error) {
	craftContext := ""
	if strings.TrimSpace(craftType) != "" {
		craftContext = " specializing in " + craftType
	}
	prompt := fmt.Sprintf("Create an engaging social media post for an artisan%s sharing this item: %s. "+
		"Make it authentic, storytelling-focused, and include relevant hashtags.", craftContext, description)

	text, err := w.generate(ctx, w.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(captionInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return models.Caption{}, err
	}

	var result models.Caption
	if err := json.Unmarshal([]byte(cleanJSON(text)), &result); err != nil {
		return models.Caption{}, fmt.Errorf("decode caption response: %w", err)
	}
	if strings.TrimSpace(result.Caption) == "" {
		result.Caption = "Beautiful handcrafted piece"
	}
	if strings.TrimSpace(result.Hashtags) == "" {
		result.Hashtags = "#handmade #artisan"
	}
	if strings.TrimSpace(result.Story) == "" {
		result.Story = "A unique creation with its own story."
	}
	return result, nil
}

// DescribeProduct writes listing copy for a marketplace product.
func (w *GeminiWriter) DescribeProduct(ctx context.Context, brief ProductBrief) (string, error) {
	craft := brief.CraftType
	if strings.TrimSpace(craft) == "" {
		craft = "handmade"
	}
	priceContext := ""
	if strings.TrimSpace(brief.Price) != "" {
		priceContext = " priced at $" + brief.Price
	}
	prompt := fmt.Sprintf("Write a compelling product description for: %s. Basic details: %s. Craft type: %s. "+
		"Price context: %s. Focus on quality, uniqueness, and the story behind the craft.",
		brief.Title, brief.BasicDescription, craft, priceContext)

	return w.generate(ctx, w.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(productInstruction, genai.RoleUser),
	})
}

// AnalyzeImage describes an uploaded photo of a craft item.
func (w *GeminiWriter) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("analyze image: empty image")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(analysisPrompt),
		}, genai.RoleUser),
	}
	return w.generate(ctx, w.visionModel, contents, nil)
}

func (w *GeminiWriter) generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	if w == nil || w.models == nil {
		return "", ErrGeneratorUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	result, err := w.models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate content with %s: %w", model, err)
	}

	text := strings.TrimSpace(responseText(result))
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func responseText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func cleanJSON(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}

var _ Writer = (*GeminiWriter)(nil)
