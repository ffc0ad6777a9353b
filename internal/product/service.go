package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vincent-petithory/dataurl"

	"github.com/unalkalkan/OneClickStudio/pkg/types"
)

// ErrInvalidRequest marks input rejected before any model call
var ErrInvalidRequest = errors.New("invalid request")

// ContentGenerator produces product content and sales copy
type ContentGenerator interface {
	GenerateProduct(ctx context.Context, req types.ProductRequest) (*types.GeneratedContent, error)
	RefineSalesCopy(ctx context.Context, niche, audience string, current types.SalesCopy, instruction string) (*types.SalesCopy, error)
}

// CoverRenderer renders a cover image as a data URI
type CoverRenderer interface {
	GenerateCoverImage(ctx context.Context, prompt string) (string, error)
}

// Service runs product-level operations on top of the store
type Service struct {
	store     *Store
	generator ContentGenerator
	covers    CoverRenderer
	now       func() time.Time
}

// NewService creates a product service
func NewService(store *Store, generator ContentGenerator, covers CoverRenderer) *Service {
	return &Service{store: store, generator: generator, covers: covers, now: time.Now}
}

// Store returns the underlying store
func (s *Service) Store() *Store {
	return s.store
}

// Create validates the request, generates content and stores a completed product
func (s *Service) Create(ctx context.Context, req types.ProductRequest) (*types.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	content, err := s.generator.GenerateProduct(ctx, req)
	if err != nil {
		return nil, err
	}

	p := &types.Product{
		ProductRequest: req,
		ID:             uuid.New().String(),
		CreatedAt:      s.now().UTC(),
		Status:         types.StatusCompleted,
		Content:        content,
	}
	created, err := s.store.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to store product: %w", err)
	}

	log.Info().
		Str("component", "product").
		Str("product_id", created.ID).
		Str("title", content.Title).
		Int("chapters", len(content.Chapters)).
		Msg("Product created")
	return created, nil
}

// GenerateCover renders a cover and attaches it. An empty prompt uses the
// product's own cover description.
func (s *Service) GenerateCover(ctx context.Context, id, prompt string, expectedVersion int) (*types.Product, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Content == nil {
		return nil, ErrNoContent
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = p.Content.CoverImageDescription
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: cover prompt is empty", ErrInvalidRequest)
	}

	uri, err := s.covers.GenerateCoverImage(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return s.store.AttachCover(ctx, id, uri, expectedVersion)
}

// UploadCover attaches a user-supplied image as the cover
func (s *Service) UploadCover(ctx context.Context, id string, data []byte, expectedVersion int) (*types.Product, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrInvalidRequest)
	}
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%w: upload is %s, not an image", ErrInvalidRequest, mtype.String())
	}
	contentType := strings.SplitN(mtype.String(), ";", 2)[0]

	return s.store.AttachCover(ctx, id, dataurl.New(data, contentType).String(), expectedVersion)
}

// RefineSalesCopy rewrites the product's sales copy following instruction
func (s *Service) RefineSalesCopy(ctx context.Context, id, instruction string, expectedVersion int) (*types.Product, error) {
	if strings.TrimSpace(instruction) == "" {
		return nil, fmt.Errorf("%w: instruction is required", ErrInvalidRequest)
	}
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Content == nil {
		return nil, ErrNoContent
	}

	sc, err := s.generator.RefineSalesCopy(ctx, p.Niche, p.TargetAudience, p.Content.SalesCopy, instruction)
	if err != nil {
		return nil, err
	}
	return s.store.ReplaceSalesCopy(ctx, id, *sc, expectedVersion)
}
