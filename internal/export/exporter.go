package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	epub "github.com/go-shiori/go-epub"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"
	"github.com/vincent-petithory/dataurl"

	"github.com/unalkalkan/OneClickStudio/internal/product"
	"github.com/unalkalkan/OneClickStudio/pkg/types"
)

// Format is an export file format
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatEPUB     Format = "epub"
	FormatZIP      Format = "zip"
)

// ParseFormat validates a format name; empty means JSON
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatMarkdown, FormatEPUB, FormatZIP:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format: %q", s)
	}
}

// ContentType returns the MIME type served for the format
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatEPUB:
		return "application/epub+zip"
	case FormatZIP:
		return "application/zip"
	default:
		return "application/json"
	}
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)
	strict      = bluemonday.StrictPolicy()
)

// Filename builds a download name from the product title
func Filename(p *types.Product, f Format) string {
	name := "product"
	if p.Content != nil {
		if s := strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(p.Content.Title), "-"), "-"); s != "" {
			name = s
		}
	}
	return name + "." + string(f)
}

// Exporter renders stored products into downloadable files
type Exporter struct {
	policy *bluemonday.Policy
}

// NewExporter creates an exporter
func NewExporter() *Exporter {
	return &Exporter{policy: bluemonday.UGCPolicy()}
}

// Export writes p in format f to w
func (e *Exporter) Export(ctx context.Context, p *types.Product, f Format, w io.Writer) error {
	if p.Content == nil {
		return product.ErrNoContent
	}
	start := time.Now()

	var err error
	switch f {
	case FormatJSON:
		err = e.JSON(w, p)
	case FormatMarkdown:
		err = e.Markdown(w, p)
	case FormatEPUB:
		err = e.EPUB(w, p)
	case FormatZIP:
		err = e.ZIP(ctx, w, p)
	default:
		err = fmt.Errorf("unsupported export format: %q", f)
	}
	if err != nil {
		return err
	}

	log.Info().
		Str("component", "export").
		Str("product_id", p.ID).
		Str("format", string(f)).
		Dur("elapsed", time.Since(start)).
		Msg("Product exported")
	return nil
}

// JSON writes the generated content as indented JSON
func (e *Exporter) JSON(w io.Writer, p *types.Product) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p.Content); err != nil {
		return fmt.Errorf("failed to encode content: %w", err)
	}
	return nil
}

// Markdown writes the product as a Markdown e-book followed by its marketing kit
func (e *Exporter) Markdown(w io.Writer, p *types.Product) error {
	c := p.Content
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", c.Title)
	if c.Subtitle != "" {
		fmt.Fprintf(&b, "_%s_\n\n", c.Subtitle)
	}
	if c.CoverImageURL != "" {
		fmt.Fprintf(&b, "![Cover](%s)\n\n", c.CoverImageURL)
	}
	if c.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", c.Description)
	}

	if len(c.Chapters) > 0 {
		b.WriteString("## Table of Contents\n\n")
		for i, ch := range c.Chapters {
			fmt.Fprintf(&b, "%d. %s\n", i+1, ch.Title)
		}
		b.WriteString("\n")
	}

	for i, ch := range c.Chapters {
		fmt.Fprintf(&b, "---\n\n## Chapter %d: %s\n\n", i+1, ch.Title)
		if ch.ImageURL != "" {
			fmt.Fprintf(&b, "![%s](%s)\n\n", ch.Title, ch.ImageURL)
		}
		fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(ch.Content))
	}

	b.WriteString("---\n\n## Sales Copy\n\n")
	fmt.Fprintf(&b, "### %s\n\n", c.SalesCopy.Headline)
	for _, benefit := range c.SalesCopy.Benefits {
		fmt.Fprintf(&b, "- %s\n", benefit)
	}
	if c.SalesCopy.CTA != "" {
		fmt.Fprintf(&b, "\n**%s**\n", c.SalesCopy.CTA)
	}

	if len(c.SocialScripts) > 0 {
		b.WriteString("\n## Social Scripts\n")
		for _, s := range c.SocialScripts {
			fmt.Fprintf(&b, "\n### %s\n\n%s\n", s.Platform, strings.TrimSpace(s.Script))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// EPUB writes the product as an EPUB with the cover and chapter images embedded
func (e *Exporter) EPUB(w io.Writer, p *types.Product) error {
	c := p.Content
	title := c.Title
	if title == "" {
		title = "Untitled"
	}

	book, err := epub.NewEpub(title)
	if err != nil {
		return fmt.Errorf("failed to create epub: %w", err)
	}
	book.SetAuthor("OneClick Studio")
	book.SetLang(languageTag(p.Language))
	if c.Description != "" {
		book.SetDescription(c.Description)
	}

	if c.CoverImageURL != "" {
		if path, err := addImage(book, c.CoverImageURL, "cover"); err != nil {
			log.Warn().Str("component", "export").Str("product_id", p.ID).Err(err).Msg("Skipping cover image")
		} else if err := book.SetCover(path, ""); err != nil {
			log.Warn().Str("component", "export").Str("product_id", p.ID).Err(err).Msg("Failed to set cover")
		}
	}

	intro := "<h1>" + escape(title) + "</h1>"
	if c.Subtitle != "" {
		intro += "<h2>" + escape(c.Subtitle) + "</h2>"
	}
	intro += e.paragraphs(c.Description)
	if _, err := book.AddSection(intro, title, "intro.xhtml", ""); err != nil {
		return fmt.Errorf("failed to add intro section: %w", err)
	}

	for i, ch := range c.Chapters {
		body := fmt.Sprintf("<h2>%s</h2>", escape(ch.Title))
		if ch.ImageURL != "" {
			path, err := addImage(book, ch.ImageURL, fmt.Sprintf("chapter-%03d", i+1))
			if err != nil {
				log.Warn().Str("component", "export").Int("chapter", i).Err(err).Msg("Skipping chapter image")
			} else {
				body += fmt.Sprintf(`<img src="%s" alt="%s"/>`, path, escape(ch.Title))
			}
		}
		body += e.paragraphs(ch.Content)

		if _, err := book.AddSection(body, ch.Title, fmt.Sprintf("chapter-%03d.xhtml", i+1), ""); err != nil {
			return fmt.Errorf("failed to add chapter %d: %w", i+1, err)
		}
	}

	if _, err := book.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write epub: %w", err)
	}
	return nil
}

// ZIP bundles the JSON, Markdown and EPUB renderings
func (e *Exporter) ZIP(ctx context.Context, w io.Writer, p *types.Product) error {
	zw := zip.NewWriter(w)

	files := []struct {
		name   string
		render func(io.Writer, *types.Product) error
	}{
		{"product.json", e.JSON},
		{"book.md", e.Markdown},
		{"book.epub", e.EPUB},
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry, err := zw.Create(f.name)
		if err != nil {
			return fmt.Errorf("failed to create zip entry %s: %w", f.name, err)
		}
		if err := f.render(entry, p); err != nil {
			return fmt.Errorf("failed to render %s: %w", f.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close zip: %w", err)
	}
	return nil
}

// paragraphs turns blank-line separated text into sanitised HTML paragraphs
func (e *Exporter) paragraphs(text string) string {
	var b bytes.Buffer
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(para, "\n", "<br/>"))
		b.WriteString("</p>")
	}
	return e.policy.Sanitize(b.String())
}

// addImage embeds a data URI image under name plus the extension of its type
func addImage(book *epub.Epub, uri, name string) (string, error) {
	du, err := dataurl.DecodeString(uri)
	if err != nil {
		return "", fmt.Errorf("invalid image data URI: %w", err)
	}
	ext := ".png"
	if m := mimetype.Lookup(du.MediaType.ContentType()); m != nil {
		ext = m.Extension()
	}
	return book.AddImage(uri, name+ext)
}

func escape(s string) string {
	return strict.Sanitize(s)
}

var languageTags = map[string]string{
	"english":    "en",
	"portuguese": "pt",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
}

func languageTag(language string) string {
	if tag, ok := languageTags[strings.ToLower(strings.TrimSpace(language))]; ok {
		return tag
	}
	return "en"
}
