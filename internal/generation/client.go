package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unalkalkan/OneClickStudio/internal/apierror"
	"github.com/unalkalkan/OneClickStudio/internal/provider"
	"github.com/unalkalkan/OneClickStudio/pkg/types"
)

// GenerationError is returned when content generation fails
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Client issues structured content requests. It never retries.
type Client struct {
	model          provider.Model
	classifier     *apierror.Classifier
	contentModel   string
	textModel      string
	thinkingBudget int
}

// NewClient creates a content generation client
func NewClient(model provider.Model, classifier *apierror.Classifier, models types.ModelConfig, thinkingBudget int) *Client {
	return &Client{
		model:          model,
		classifier:     classifier,
		contentModel:   models.Content,
		textModel:      models.Text,
		thinkingBudget: thinkingBudget,
	}
}

// GenerateProduct produces the full content for a product request
func (c *Client) GenerateProduct(ctx context.Context, req types.ProductRequest) (*types.GeneratedContent, error) {
	const op = "generate product"
	logger := log.With().Str("component", "generation").Str("niche", req.Niche).Logger()

	start := time.Now()
	logger.Info().Str("model", c.contentModel).Str("size", string(req.Size)).Msg("Generating product content")

	resp, err := c.model.GenerateContent(ctx, provider.ContentRequest{
		Model:          c.contentModel,
		Parts:          []provider.Part{provider.TextPart(buildProductPrompt(req))},
		ResponseMIME:   "application/json",
		ResponseSchema: ProductSchema,
		ThinkingBudget: c.thinkingBudget,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Product generation failed")
		return nil, &GenerationError{Op: op, Err: c.classifier.Check(ctx, err)}
	}

	content, err := ParseProduct(resp.Text())
	if err != nil {
		logger.Error().Err(err).Msg("Product response rejected")
		return nil, &GenerationError{Op: op, Err: c.classifier.Check(ctx, err)}
	}

	logger.Info().
		Int("chapters", len(content.Chapters)).
		Dur("elapsed", time.Since(start)).
		Msg("Product content generated")
	return content, nil
}

// RefineSalesCopy rewrites the sales copy following an instruction
func (c *Client) RefineSalesCopy(ctx context.Context, niche, audience string, current types.SalesCopy, instruction string) (*types.SalesCopy, error) {
	const op = "refine sales copy"

	currentJSON, err := json.Marshal(current)
	if err != nil {
		return nil, &GenerationError{Op: op, Err: err}
	}
	prompt := fmt.Sprintf("Refine the sales copy for a product in the %q niche aimed at %q. Current copy: %s Instruction: %s",
		niche, audience, currentJSON, instruction)

	resp, err := c.model.GenerateContent(ctx, provider.ContentRequest{
		Model:          c.textModel,
		Parts:          []provider.Part{provider.TextPart(prompt)},
		ResponseMIME:   "application/json",
		ResponseSchema: SalesCopySchema,
	})
	if err != nil {
		return nil, &GenerationError{Op: op, Err: c.classifier.Check(ctx, err)}
	}

	sc, err := ParseSalesCopy(resp.Text())
	if err != nil {
		return nil, &GenerationError{Op: op, Err: c.classifier.Check(ctx, err)}
	}

	log.Info().Str("component", "generation").Str("headline", sc.Headline).Msg("Sales copy refined")
	return sc, nil
}

// ParseProduct decodes and validates a product response
func ParseProduct(raw string) (*types.GeneratedContent, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apierror.ErrEmptyResponse
	}

	var content types.GeneratedContent
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return nil, &apierror.ValidationError{Field: "$", Reason: err.Error()}
	}
	if err := validateProduct(&content); err != nil {
		return nil, err
	}
	return &content, nil
}

// ParseSalesCopy decodes and validates a sales copy response
func ParseSalesCopy(raw string) (*types.SalesCopy, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apierror.ErrEmptyResponse
	}

	var sc types.SalesCopy
	if err := json.Unmarshal([]byte(raw), &sc); err != nil {
		return nil, &apierror.ValidationError{Field: "$", Reason: err.Error()}
	}
	if err := validateSalesCopy("", &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func validateProduct(c *types.GeneratedContent) error {
	required := []struct {
		field string
		value string
	}{
		{"title", c.Title},
		{"subtitle", c.Subtitle},
		{"description", c.Description},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &apierror.ValidationError{Field: r.field, Reason: "missing"}
		}
	}

	if len(c.Chapters) == 0 {
		return &apierror.ValidationError{Field: "chapters", Reason: "at least one chapter is required"}
	}
	for i, ch := range c.Chapters {
		if strings.TrimSpace(ch.Title) == "" {
			return &apierror.ValidationError{Field: fmt.Sprintf("chapters[%d].title", i), Reason: "missing"}
		}
		if strings.TrimSpace(ch.Content) == "" {
			return &apierror.ValidationError{Field: fmt.Sprintf("chapters[%d].content", i), Reason: "missing"}
		}
		// images are attached later, never by the model
		c.Chapters[i].ImageURL = ""
	}
	c.CoverImageURL = ""

	return validateSalesCopy("salesCopy.", &c.SalesCopy)
}

func validateSalesCopy(prefix string, s *types.SalesCopy) error {
	if strings.TrimSpace(s.Headline) == "" {
		return &apierror.ValidationError{Field: prefix + "headline", Reason: "missing"}
	}
	if strings.TrimSpace(s.CTA) == "" {
		return &apierror.ValidationError{Field: prefix + "cta", Reason: "missing"}
	}
	return nil
}

var sizeGuidance = map[types.Size]string{
	types.SizeShort:  "a short lead magnet of 3 to 4 chapters",
	types.SizeMedium: "a standard e-book of 6 to 8 chapters",
	types.SizeLong:   "a complete guide of 10 to 12 chapters",
}

func buildProductPrompt(req types.ProductRequest) string {
	var sb strings.Builder

	sb.WriteString("Act as a digital product strategist and best-selling author.\n")
	sb.WriteString("Create a COMPLETE AND EXTENSIVE E-BOOK based on these parameters:\n")
	sb.WriteString(fmt.Sprintf("- Niche: %s\n", req.Niche))
	sb.WriteString(fmt.Sprintf("- Target audience: %s\n", req.TargetAudience))
	sb.WriteString(fmt.Sprintf("- Language: %s\n", req.Language))
	sb.WriteString(fmt.Sprintf("- Platform: %s\n", req.Platform))
	sb.WriteString(fmt.Sprintf("- Goal: %s\n", req.Goal))
	if g, ok := sizeGuidance[req.Size]; ok {
		sb.WriteString(fmt.Sprintf("- Length: %s\n", g))
	}
	sb.WriteString("\nVisual guidelines for images (VERY IMPORTANT):\n")
	sb.WriteString("- Ask for photorealistic images, 8k, cinematic lighting, studio photography style.\n")
	sb.WriteString(fmt.Sprintf("\nWrite every text field in %s.", req.Language))

	return sb.String()
}
