package types

import (
	"fmt"
	"strings"
	"time"
)

// Platform is the marketplace a product is prepared for
type Platform string

const (
	PlatformAmazonKDP Platform = "Amazon KDP"
	PlatformGumroad   Platform = "Gumroad"
	PlatformHotmart   Platform = "Hotmart"
	PlatformEtsy      Platform = "Etsy"
)

// Goal is the commercial intent behind a product
type Goal string

const (
	GoalQuickSale Goal = "Quick Sale"
	GoalAuthority Goal = "Authority/Branding"
)

// Size controls how long the generated e-book is
type Size string

const (
	SizeShort  Size = "Short"
	SizeMedium Size = "Medium"
	SizeLong   Size = "Long"
)

// ProductStatus is the lifecycle state of a stored product
type ProductStatus string

const (
	StatusDraft     ProductStatus = "draft"
	StatusCompleted ProductStatus = "completed"
)

// DefaultLanguage is used when a request leaves the language empty
const DefaultLanguage = "English"

// ProductRequest describes the digital product a user wants generated
type ProductRequest struct {
	Niche          string   `json:"niche"`
	TargetAudience string   `json:"targetAudience"`
	Language       string   `json:"language"`
	Platform       Platform `json:"platform"`
	Goal           Goal     `json:"goal"`
	Size           Size     `json:"size"`
}

// Validate normalises the request and rejects unusable input
func (r *ProductRequest) Validate() error {
	r.Niche = strings.TrimSpace(r.Niche)
	r.TargetAudience = strings.TrimSpace(r.TargetAudience)
	r.Language = strings.TrimSpace(r.Language)

	if r.Niche == "" {
		return fmt.Errorf("niche is required")
	}
	if r.TargetAudience == "" {
		return fmt.Errorf("target audience is required")
	}
	if r.Language == "" {
		r.Language = DefaultLanguage
	}

	switch r.Platform {
	case PlatformAmazonKDP, PlatformGumroad, PlatformHotmart, PlatformEtsy:
	default:
		return fmt.Errorf("invalid platform: %q", r.Platform)
	}
	switch r.Goal {
	case GoalQuickSale, GoalAuthority:
	default:
		return fmt.Errorf("invalid goal: %q", r.Goal)
	}
	switch r.Size {
	case SizeShort, SizeMedium, SizeLong:
	default:
		return fmt.Errorf("invalid size: %q", r.Size)
	}
	return nil
}

// Chapter is one e-book chapter; ImageURL is back-filled after creation
type Chapter struct {
	Title            string `json:"title"`
	Content          string `json:"content"`
	ImageDescription string `json:"imageDescription,omitempty"`
	ImageURL         string `json:"imageUrl,omitempty"`
}

// NeedsIllustration reports whether the chapter has a description but no image yet
func (c Chapter) NeedsIllustration() bool {
	return strings.TrimSpace(c.ImageDescription) != "" && c.ImageURL == ""
}

// SalesCopy is the marketing copy attached to a product
type SalesCopy struct {
	Headline string   `json:"headline"`
	Benefits []string `json:"benefits"`
	CTA      string   `json:"cta"`
}

// SocialScript is a short-form video script for one platform
type SocialScript struct {
	Platform string `json:"platform"`
	Script   string `json:"script"`
}

// GeneratedContent is the full AI-produced body of a product
type GeneratedContent struct {
	Title                 string         `json:"title"`
	Subtitle              string         `json:"subtitle"`
	Description           string         `json:"description"`
	CoverImageDescription string         `json:"coverImageDescription"`
	CoverImageURL         string         `json:"coverImageUrl,omitempty"`
	Chapters              []Chapter      `json:"chapters"`
	SalesCopy             SalesCopy      `json:"salesCopy"`
	SocialScripts         []SocialScript `json:"socialScripts"`
}

// Clone returns a deep copy so callers can mutate without sharing slices
func (g *GeneratedContent) Clone() *GeneratedContent {
	if g == nil {
		return nil
	}
	out := *g
	out.Chapters = append([]Chapter(nil), g.Chapters...)
	out.SalesCopy.Benefits = append([]string(nil), g.SalesCopy.Benefits...)
	out.SocialScripts = append([]SocialScript(nil), g.SocialScripts...)
	return &out
}

// Product is a stored product: the request plus its generated content
type Product struct {
	ProductRequest
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"createdAt"`
	Status    ProductStatus     `json:"status"`
	Content   *GeneratedContent `json:"content,omitempty"`
	Version   int               `json:"version"`
}

// Clone returns a deep copy of the product
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	out := *p
	out.Content = p.Content.Clone()
	return &out
}
