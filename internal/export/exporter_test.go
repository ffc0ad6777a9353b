package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/unalkalkan/OneClickStudio/internal/product"
	"github.com/unalkalkan/OneClickStudio/pkg/types"
)

const pngURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAACklEQVR4nGMAAQAABQABDQottAAAAABJRU5ErkJggg=="

func testProduct() *types.Product {
	return &types.Product{
		ProductRequest: types.ProductRequest{Niche: "Gardening", TargetAudience: "Beginners", Language: "English"},
		ID:             "p1",
		Status:         types.StatusCompleted,
		Content: &types.GeneratedContent{
			Title:         "Green Thumbs: A Starter Guide",
			Subtitle:      "Grow anything",
			Description:   "Everything you need.",
			CoverImageURL: pngURI,
			Chapters: []types.Chapter{
				{Title: "Soil", Content: "Soil matters.\n\nFeed it <script>alert(1)</script><b>well</b>.", ImageURL: pngURI},
				{Title: "Water", Content: "Not too much."},
			},
			SalesCopy:     types.SalesCopy{Headline: "Grow now", Benefits: []string{"Easy", "Cheap"}, CTA: "Start today"},
			SocialScripts: []types.SocialScript{{Platform: "Reels", Script: "Look at this tomato."}},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatJSON},
		{in: "JSON", want: FormatJSON},
		{in: "md", want: FormatMarkdown},
		{in: " epub ", want: FormatEPUB},
		{in: "zip", want: FormatZIP},
		{in: "pdf", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	if got := Filename(testProduct(), FormatEPUB); got != "green-thumbs-a-starter-guide.epub" {
		t.Errorf("Unexpected filename %q", got)
	}
	if got := Filename(&types.Product{}, FormatZIP); got != "product.zip" {
		t.Errorf("Unexpected fallback filename %q", got)
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := NewExporter().Export(context.Background(), testProduct(), FormatJSON, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var content types.GeneratedContent
	if err := json.Unmarshal(buf.Bytes(), &content); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if content.Title != "Green Thumbs: A Starter Guide" || len(content.Chapters) != 2 {
		t.Errorf("Unexpected content %+v", content)
	}
}

func TestExportMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := NewExporter().Export(context.Background(), testProduct(), FormatMarkdown, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	md := buf.String()

	for _, want := range []string{
		"# Green Thumbs: A Starter Guide",
		"## Chapter 1: Soil",
		"## Chapter 2: Water",
		"![Soil](" + pngURI + ")",
		"- Easy",
		"**Start today**",
		"### Reels",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown missing %q", want)
		}
	}
	if strings.Index(md, "Chapter 1: Soil") > strings.Index(md, "Chapter 2: Water") {
		t.Error("Chapters out of order")
	}
}

func TestExportEPUB(t *testing.T) {
	var buf bytes.Buffer
	if err := NewExporter().Export(context.Background(), testProduct(), FormatEPUB, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	files := readZip(t, buf.Bytes())
	if string(files["mimetype"]) != "application/epub+zip" {
		t.Errorf("Unexpected mimetype entry %q", files["mimetype"])
	}

	var chapter, image string
	for name, data := range files {
		if strings.HasSuffix(name, "chapter-001.xhtml") {
			chapter = string(data)
		}
		if strings.HasSuffix(name, "chapter-001.png") {
			image = name
		}
	}
	if chapter == "" {
		t.Fatal("Chapter section not found in EPUB")
	}
	if strings.Contains(chapter, "<script") {
		t.Error("Chapter HTML was not sanitised")
	}
	if !strings.Contains(chapter, "<b>well</b>") {
		t.Error("Expected safe markup to survive sanitising")
	}
	if image == "" {
		t.Error("Chapter illustration not embedded")
	}
}

func TestExportZIP(t *testing.T) {
	var buf bytes.Buffer
	if err := NewExporter().Export(context.Background(), testProduct(), FormatZIP, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	files := readZip(t, buf.Bytes())
	for _, name := range []string{"product.json", "book.md", "book.epub"} {
		if len(files[name]) == 0 {
			t.Errorf("Bundle missing %s", name)
		}
	}
}

func TestExportWithoutContent(t *testing.T) {
	err := NewExporter().Export(context.Background(), &types.Product{ID: "draft"}, FormatJSON, io.Discard)
	if !errors.Is(err, product.ErrNoContent) {
		t.Errorf("Expected ErrNoContent, got %v", err)
	}
}

func TestExportSkipsBrokenImages(t *testing.T) {
	p := testProduct()
	p.Content.CoverImageURL = "data:not-really"
	p.Content.Chapters[0].ImageURL = "https://example.invalid/x.png"

	var buf bytes.Buffer
	if err := NewExporter().Export(context.Background(), p, FormatEPUB, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
}

func readZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Invalid zip: %v", err)
	}
	files := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Failed to open %s: %v", f.Name, err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		files[f.Name] = b
	}
	return files
}
