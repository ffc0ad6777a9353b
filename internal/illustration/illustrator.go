package illustration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unalkalkan/OneClickStudio/internal/product"
	"github.com/unalkalkan/OneClickStudio/pkg/types"
)

// ErrAlreadyRunning is returned when a pass for the product is already in progress
var ErrAlreadyRunning = errors.New("illustration pass already running")

// ChapterImager renders chapter illustrations
type ChapterImager interface {
	GenerateChapterImage(ctx context.Context, prompt string, retries int) (string, error)
	ChapterRetries() int
}

// Store reads products and records chapter images
type Store interface {
	Get(ctx context.Context, id string) (*types.Product, error)
	IllustrateChapter(ctx context.Context, id string, index int, imageURL string) (*types.Product, error)
}

// Summary reports the outcome of one pass
type Summary struct {
	ProductID   string        `json:"productId"`
	Illustrated int           `json:"illustrated"`
	Failed      int           `json:"failed"`
	Skipped     int           `json:"skipped"`
	Cancelled   bool          `json:"cancelled"`
	Elapsed     time.Duration `json:"elapsed"`
}

type pass struct {
	cancel context.CancelFunc
}

// Illustrator back-fills missing chapter images one chapter at a time
type Illustrator struct {
	store  Store
	imager ChapterImager

	ctx       context.Context
	cancelAll context.CancelFunc
	wg        sync.WaitGroup

	mu      sync.Mutex
	running map[string]*pass
}

// NewIllustrator creates an illustrator
func NewIllustrator(store Store, imager ChapterImager) *Illustrator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Illustrator{
		store:     store,
		imager:    imager,
		ctx:       ctx,
		cancelAll: cancel,
		running:   make(map[string]*pass),
	}
}

// Run illustrates the product's chapters and blocks until the pass ends
func (il *Illustrator) Run(ctx context.Context, productID string) (Summary, error) {
	ctx, release, err := il.acquire(ctx, productID)
	if err != nil {
		return Summary{ProductID: productID}, err
	}
	defer release()
	return il.illustrate(ctx, productID)
}

// Start runs a pass in the background under the illustrator's own context
func (il *Illustrator) Start(productID string) error {
	if _, err := il.store.Get(il.ctx, productID); err != nil {
		return err
	}
	ctx, release, err := il.acquire(il.ctx, productID)
	if err != nil {
		return err
	}

	il.wg.Add(1)
	go func() {
		defer il.wg.Done()
		defer release()
		if _, err := il.illustrate(ctx, productID); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Str("component", "illustration").Str("product_id", productID).Err(err).Msg("Illustration pass failed")
		}
	}()
	return nil
}

// Cancel stops the running pass for a product. It reports whether one was running.
func (il *Illustrator) Cancel(productID string) bool {
	il.mu.Lock()
	defer il.mu.Unlock()
	p, ok := il.running[productID]
	if ok {
		p.cancel()
	}
	return ok
}

// Running reports whether a pass for the product is in progress
func (il *Illustrator) Running(productID string) bool {
	il.mu.Lock()
	defer il.mu.Unlock()
	_, ok := il.running[productID]
	return ok
}

// Shutdown cancels every pass and waits for background passes to stop
func (il *Illustrator) Shutdown() {
	il.cancelAll()
	il.mu.Lock()
	for _, p := range il.running {
		p.cancel()
	}
	il.mu.Unlock()
	il.wg.Wait()
}

func (il *Illustrator) acquire(parent context.Context, productID string) (context.Context, func(), error) {
	il.mu.Lock()
	defer il.mu.Unlock()
	if _, ok := il.running[productID]; ok {
		return nil, nil, ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(parent)
	p := &pass{cancel: cancel}
	il.running[productID] = p

	release := func() {
		cancel()
		il.mu.Lock()
		if il.running[productID] == p {
			delete(il.running, productID)
		}
		il.mu.Unlock()
	}
	return ctx, release, nil
}

// illustrate walks the chapters in order. A failed chapter is logged and
// skipped; each success is stored before the next chapter starts.
func (il *Illustrator) illustrate(ctx context.Context, productID string) (Summary, error) {
	summary := Summary{ProductID: productID}
	start := time.Now()
	logger := log.With().Str("component", "illustration").Str("product_id", productID).Logger()

	p, err := il.store.Get(ctx, productID)
	if err != nil {
		return summary, fmt.Errorf("failed to load product: %w", err)
	}
	if p.Content == nil {
		return summary, product.ErrNoContent
	}

	logger.Info().Int("chapters", len(p.Content.Chapters)).Msg("Starting illustration pass")

	retries := il.imager.ChapterRetries()
	cancelled := func(err error) (Summary, error) {
		summary.Cancelled = true
		summary.Elapsed = time.Since(start)
		logger.Info().Int("illustrated", summary.Illustrated).Msg("Illustration pass cancelled")
		return summary, err
	}

	for i, ch := range p.Content.Chapters {
		if err := ctx.Err(); err != nil {
			return cancelled(err)
		}
		if !ch.NeedsIllustration() {
			summary.Skipped++
			continue
		}

		uri, err := il.imager.GenerateChapterImage(ctx, ch.ImageDescription, retries)
		if err != nil {
			// an aborted call is not a failed chapter
			if ctxErr := ctx.Err(); ctxErr != nil {
				return cancelled(ctxErr)
			}
			summary.Failed++
			logger.Warn().Int("chapter", i).Str("title", ch.Title).Err(err).Msg("Chapter illustration failed")
			continue
		}

		if _, err := il.store.IllustrateChapter(ctx, productID, i, uri); err != nil {
			summary.Failed++
			logger.Error().Int("chapter", i).Err(err).Msg("Failed to store chapter illustration")
			continue
		}
		summary.Illustrated++
		logger.Debug().Int("chapter", i).Msg("Chapter illustrated")
	}

	summary.Elapsed = time.Since(start)
	logger.Info().
		Int("illustrated", summary.Illustrated).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Dur("elapsed", summary.Elapsed).
		Msg("Illustration pass finished")
	return summary, nil
}
