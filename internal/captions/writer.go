package captions

import (
	"context"
	"fmt"
	"strings"

	"github.com/artconnect/artconnect/internal/logging"
	"github.com/artconnect/artconnect/internal/models"
)

// ProductBrief is the input for product copywriting.
type ProductBrief struct {
	Title            string
	BasicDescription string
	CraftType        string
	Price            string
}

// Writer produces marketing copy for artisans.
type Writer interface {
	GenerateCaption(ctx context.Context, description, craftType string) (models.Caption, error)
	DescribeProduct(ctx context.Context, brief ProductBrief) (string, error)
	AnalyzeImage(ctx context.Context, image []byte, mimeType string) (string, error)
}

const (
	defaultCaption  = "Beautiful handcrafted piece showcasing traditional artistry"
	defaultHashtags = "#handmade #artisan #craft #local #art"
	defaultStory    = "This piece represents the rich tradition of handcrafted artistry."
	defaultAnalysis = "A beautiful handcrafted item showcasing traditional artistry and skill."
)

// DefaultCaption is returned whenever generation is unavailable or fails.
func DefaultCaption() models.Caption {
	return models.Caption{Caption: defaultCaption, Hashtags: defaultHashtags, Story: defaultStory}
}

func defaultProductDescription(brief ProductBrief) string {
	return fmt.Sprintf("Beautifully crafted %s. %s A unique piece that showcases skilled artisanship and attention to detail.",
		brief.Title, strings.TrimSpace(brief.BasicDescription))
}

// Service never fails: when the underlying writer is missing or errors it logs
// the problem and answers with fixed copy instead.
type Service struct {
	writer Writer
}

// NewService wraps writer. A nil writer always yields the fixed copy.
func NewService(writer Writer) *Service {
	return &Service{writer: writer}
}

// GenerateCaption implements Writer.
func (s *Service) GenerateCaption(ctx context.Context, description, craftType string) (models.Caption, error) {
	if s == nil || s.writer == nil {
		return DefaultCaption(), nil
	}

	caption, err := s.writer.GenerateCaption(ctx, description, craftType)
	if err != nil {
		logging.FromContext(ctx).Warn("caption generation failed, using default copy", "error", err)
		return DefaultCaption(), nil
	}
	return caption, nil
}

// DescribeProduct implements Writer.
func (s *Service) DescribeProduct(ctx context.Context, brief ProductBrief) (string, error) {
	if s == nil || s.writer == nil {
		return fmt.Sprintf("Beautifully crafted %s. %s Perfect for adding artisanal charm to any space.",
			brief.Title, strings.TrimSpace(brief.BasicDescription)), nil
	}

	description, err := s.writer.DescribeProduct(ctx, brief)
	if err != nil {
		logging.FromContext(ctx).Warn("product description failed, using default copy", "error", err)
		return defaultProductDescription(brief), nil
	}
	return description, nil
}

// AnalyzeImage implements Writer.
func (s *Service) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (string, error) {
	if s == nil || s.writer == nil {
		return defaultAnalysis, nil
	}

	analysis, err := s.writer.AnalyzeImage(ctx, image, mimeType)
	if err != nil {
		logging.FromContext(ctx).Warn("image analysis failed, using default copy", "error", err)
		return defaultAnalysis, nil
	}
	return analysis, nil
}

var _ Writer = (*Service)(nil)
