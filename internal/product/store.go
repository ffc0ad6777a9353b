package product

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/unalkalkan/OneClickStudio/internal/storage"
	"github.com/unalkalkan/OneClickStudio/pkg/types"
)

// ProductsKey is the storage key holding the whole product list
const ProductsKey = "oneclick_products.json"

const (
	eventsTopic    = "product.events"
	persistTimeout = 30 * time.Second
)

type result struct {
	product *types.Product
	err     error
}

// Store keeps the product list in memory and mirrors it to storage.
// Every mutation is published as an Event and applied by a single
// subscriber goroutine, so concurrent writers never work from a stale list.
type Store struct {
	storage storage.Adapter
	pubSub  *gochannel.GoChannel
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}

	mu       sync.RWMutex
	products []*types.Product

	pendingMu sync.Mutex
	pending   map[string]chan result
	closed    bool
}

// NewStore loads the product list and starts the update loop
func NewStore(ctx context.Context, adapter storage.Adapter) (*Store, error) {
	products, err := load(ctx, adapter)
	if err != nil {
		return nil, err
	}

	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermill.NopLogger{})
	sctx, cancel := context.WithCancel(context.Background())
	messages, err := pubSub.Subscribe(sctx, eventsTopic)
	if err != nil {
		cancel()
		pubSub.Close()
		return nil, fmt.Errorf("failed to subscribe to product events: %w", err)
	}

	s := &Store{
		storage:  adapter,
		pubSub:   pubSub,
		ctx:      sctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		products: products,
		pending:  make(map[string]chan result),
	}
	go s.run(messages)

	log.Info().Str("component", "product").Int("products", len(products)).Msg("Product store loaded")
	return s, nil
}

// List returns copies of all products, newest first
func (s *Store) List(ctx context.Context) []*types.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.products)
}

// Get returns a copy of one product
func (s *Store) Get(ctx context.Context, id string) (*types.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := find(s.products, id)
	if p == nil {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

// Apply publishes ev and waits until the writer has applied and persisted it.
// If ctx ends first the event may still be applied later.
func (s *Store) Apply(ctx context.Context, ev Event) (*types.Product, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := message.NewMessage(uuid.New().String(), payload)

	reply := make(chan result, 1)
	s.pendingMu.Lock()
	if s.closed {
		s.pendingMu.Unlock()
		return nil, ErrClosed
	}
	s.pending[msg.UUID] = reply
	s.pendingMu.Unlock()

	defer func() {
		s.pendingMu.Lock()
		delete(s.pending, msg.UUID)
		s.pendingMu.Unlock()
	}()

	if err := s.pubSub.Publish(eventsTopic, msg); err != nil {
		return nil, fmt.Errorf("failed to publish %s event: %w", ev.Type, err)
	}

	select {
	case r := <-reply:
		return r.product, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrClosed
	}
}

// Create stores a new product
func (s *Store) Create(ctx context.Context, p *types.Product) (*types.Product, error) {
	return s.Apply(ctx, Event{Type: EventCreated, ProductID: p.ID, Product: p})
}

// AttachCover sets the cover image of a product
func (s *Store) AttachCover(ctx context.Context, id, imageURL string, expectedVersion int) (*types.Product, error) {
	return s.Apply(ctx, Event{Type: EventCoverAttached, ProductID: id, ImageURL: imageURL, ExpectedVersion: expectedVersion})
}

// IllustrateChapter sets the image of one chapter, leaving the others untouched
func (s *Store) IllustrateChapter(ctx context.Context, id string, index int, imageURL string) (*types.Product, error) {
	return s.Apply(ctx, Event{Type: EventChapterIllustrated, ProductID: id, ChapterIndex: index, ImageURL: imageURL})
}

// ReplaceSalesCopy swaps the product's sales copy
func (s *Store) ReplaceSalesCopy(ctx context.Context, id string, sc types.SalesCopy, expectedVersion int) (*types.Product, error) {
	return s.Apply(ctx, Event{Type: EventSalesCopyReplaced, ProductID: id, SalesCopy: &sc, ExpectedVersion: expectedVersion})
}

// Ping checks that the backing storage answers
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.storage.Exists(ctx, ProductsKey)
	return err
}

// Close stops the update loop. Pending Apply calls return ErrClosed.
func (s *Store) Close() error {
	s.pendingMu.Lock()
	if s.closed {
		s.pendingMu.Unlock()
		return nil
	}
	s.closed = true
	s.pendingMu.Unlock()

	s.cancel()
	err := s.pubSub.Close()
	<-s.done
	return err
}

func (s *Store) run(messages <-chan *message.Message) {
	defer close(s.done)
	for msg := range messages {
		var r result
		var ev Event
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			r.err = fmt.Errorf("failed to decode event: %w", err)
		} else {
			r.product, r.err = s.handle(ev)
		}
		msg.Ack()

		s.pendingMu.Lock()
		reply, ok := s.pending[msg.UUID]
		s.pendingMu.Unlock()
		if ok {
			reply <- r
		}
	}
}

// handle applies one event to a copy of the list, persists the copy and then commits it
func (s *Store) handle(ev Event) (*types.Product, error) {
	s.mu.RLock()
	working := cloneAll(s.products)
	s.mu.RUnlock()

	next, p, err := apply(working, ev)
	if err != nil {
		log.Warn().Str("component", "product").Str("event", string(ev.Type)).Str("product_id", ev.ProductID).Err(err).Msg("Rejected product event")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(s.ctx, persistTimeout)
	defer cancel()
	if err := save(ctx, s.storage, next); err != nil {
		log.Error().Str("component", "product").Str("event", string(ev.Type)).Err(err).Msg("Failed to persist products")
		return nil, err
	}

	s.mu.Lock()
	s.products = next
	s.mu.Unlock()

	log.Debug().Str("component", "product").Str("event", string(ev.Type)).Str("product_id", p.ID).Int("version", p.Version).Msg("Applied product event")
	return p.Clone(), nil
}

// Encode serializes a product list to its stored form
func Encode(products []*types.Product) ([]byte, error) {
	if products == nil {
		products = []*types.Product{}
	}
	return json.Marshal(products)
}

// Decode parses the stored form of a product list
func Decode(data []byte) ([]*types.Product, error) {
	var products []*types.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

func load(ctx context.Context, adapter storage.Adapter) ([]*types.Product, error) {
	reader, err := adapter.Get(ctx, ProductsKey)
	if errors.Is(err, storage.ErrNotFound) {
		return []*types.Product{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []*types.Product{}, nil
	}
	return Decode(data)
}

func save(ctx context.Context, adapter storage.Adapter, products []*types.Product) error {
	data, err := Encode(products)
	if err != nil {
		return fmt.Errorf("failed to encode products: %w", err)
	}
	if err := adapter.Put(ctx, ProductsKey, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write products: %w", err)
	}
	return nil
}
