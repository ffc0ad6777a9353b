package product

import (
	"errors"
	"fmt"

	"github.com/unalkalkan/OneClickStudio/pkg/types"
)

// EventType names a product mutation
type EventType string

const (
	EventCreated            EventType = "created"
	EventCoverAttached      EventType = "cover_attached"
	EventChapterIllustrated EventType = "chapter_illustrated"
	EventSalesCopyReplaced  EventType = "sales_copy_replaced"
)

var (
	// ErrNotFound is returned when no product has the given ID
	ErrNotFound = errors.New("product not found")
	// ErrVersionConflict is returned when an event expects a different product version
	ErrVersionConflict = errors.New("product version conflict")
	// ErrChapterOutOfRange is returned for a chapter index outside the product's chapters
	ErrChapterOutOfRange = errors.New("chapter index out of range")
	// ErrNoContent is returned when a content update targets a product without generated content
	ErrNoContent = errors.New("product has no generated content")
	// ErrClosed is returned once the store has been closed
	ErrClosed = errors.New("product store closed")
)

// Event is one mutation applied to the product list.
// ExpectedVersion of zero applies to whatever version is current.
type Event struct {
	Type            EventType        `json:"type"`
	ProductID       string           `json:"productId"`
	ExpectedVersion int              `json:"expectedVersion,omitempty"`
	Product         *types.Product   `json:"product,omitempty"`
	ImageURL        string           `json:"imageUrl,omitempty"`
	ChapterIndex    int              `json:"chapterIndex,omitempty"`
	SalesCopy       *types.SalesCopy `json:"salesCopy,omitempty"`
}

// apply mutates products in place according to ev and returns the affected product
func apply(products []*types.Product, ev Event) ([]*types.Product, *types.Product, error) {
	if ev.Type == EventCreated {
		if ev.Product == nil || ev.Product.ID == "" {
			return nil, nil, fmt.Errorf("created event without a product")
		}
		if find(products, ev.Product.ID) != nil {
			return nil, nil, fmt.Errorf("product %s already exists", ev.Product.ID)
		}
		p := ev.Product.Clone()
		p.Version = 1
		// newest first
		return append([]*types.Product{p}, products...), p, nil
	}

	p := find(products, ev.ProductID)
	if p == nil {
		return nil, nil, ErrNotFound
	}
	if ev.ExpectedVersion > 0 && ev.ExpectedVersion != p.Version {
		return nil, nil, fmt.Errorf("%w: expected %d, current %d", ErrVersionConflict, ev.ExpectedVersion, p.Version)
	}
	if p.Content == nil {
		return nil, nil, ErrNoContent
	}

	switch ev.Type {
	case EventCoverAttached:
		p.Content.CoverImageURL = ev.ImageURL
	case EventChapterIllustrated:
		if ev.ChapterIndex < 0 || ev.ChapterIndex >= len(p.Content.Chapters) {
			return nil, nil, fmt.Errorf("%w: %d of %d", ErrChapterOutOfRange, ev.ChapterIndex, len(p.Content.Chapters))
		}
		p.Content.Chapters[ev.ChapterIndex].ImageURL = ev.ImageURL
	case EventSalesCopyReplaced:
		if ev.SalesCopy == nil {
			return nil, nil, fmt.Errorf("sales copy event without sales copy")
		}
		sc := *ev.SalesCopy
		sc.Benefits = append([]string(nil), ev.SalesCopy.Benefits...)
		p.Content.SalesCopy = sc
	default:
		return nil, nil, fmt.Errorf("unknown event type %q", ev.Type)
	}

	p.Version++
	return products, p, nil
}

func find(products []*types.Product, id string) *types.Product {
	for _, p := range products {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func cloneAll(products []*types.Product) []*types.Product {
	out := make([]*types.Product, len(products))
	for i, p := range products {
		out[i] = p.Clone()
	}
	return out
}
