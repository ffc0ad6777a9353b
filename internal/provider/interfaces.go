package provider

import (
	"context"
	"strings"
)

// Model defines the generative backend used by every client in the service
type Model interface {
	// Name returns the provider name
	Name() string

	// GenerateContent issues a single request/response call (text, structured JSON, image or audio)
	GenerateContent(ctx context.Context, req ContentRequest) (*ContentResponse, error)

	// GenerateVideo submits a long-running video job and returns its operation handle
	GenerateVideo(ctx context.Context, req VideoRequest) (*VideoOperation, error)

	// PollVideo re-fetches the status of a video operation
	PollVideo(ctx context.Context, op *VideoOperation) (*VideoOperation, error)

	// ConnectLive opens a bidirectional audio session
	ConnectLive(ctx context.Context, req LiveRequest) (LiveConn, error)

	// Close cleans up resources
	Close() error
}

// Modality is a response modality
type Modality string

const (
	ModalityText  Modality = "TEXT"
	ModalityImage Modality = "IMAGE"
	ModalityAudio Modality = "AUDIO"
)

// Blob is inline binary data with its MIME type
type Blob struct {
	MIMEType string
	Data     []byte
}

// Part is one piece of a request or response: text or inline data
type Part struct {
	Text   string
	Inline *Blob
}

// TextPart returns a text part
func TextPart(text string) Part {
	return Part{Text: text}
}

// InlinePart returns an inline data part
func InlinePart(mimeType string, data []byte) Part {
	return Part{Inline: &Blob{MIMEType: mimeType, Data: data}}
}

// SchemaType is the JSON type of a schema node
type SchemaType string

const (
	TypeObject  SchemaType = "OBJECT"
	TypeArray   SchemaType = "ARRAY"
	TypeString  SchemaType = "STRING"
	TypeInteger SchemaType = "INTEGER"
	TypeNumber  SchemaType = "NUMBER"
	TypeBoolean SchemaType = "BOOLEAN"
)

// Schema describes the structure a structured-output response must follow
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]*Schema
	Items       *Schema
	Required    []string
}

// ImageConfig shapes image output
type ImageConfig struct {
	AspectRatio string // e.g. "1:1", "3:4", "16:9"
	ImageSize   string // "1K", "2K" or "4K"; empty leaves the backend default
}

// ContentRequest contains the prompt parts and output configuration
type ContentRequest struct {
	Model          string
	Parts          []Part
	Modalities     []Modality // empty means text
	ResponseMIME   string     // "application/json" for structured output
	ResponseSchema *Schema
	ThinkingBudget int // 0 leaves thinking at the backend default
	Image          *ImageConfig
	Voice          string // prebuilt voice for audio output
}

// ContentResponse contains the parts returned by the model
type ContentResponse struct {
	Parts []Part
}

// Text concatenates all text parts
func (r *ContentResponse) Text() string {
	if r == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// FirstInline returns the first inline part whose MIME type starts with prefix
func (r *ContentResponse) FirstInline(prefix string) *Blob {
	if r == nil {
		return nil
	}
	for _, p := range r.Parts {
		if p.Inline != nil && len(p.Inline.Data) > 0 && strings.HasPrefix(p.Inline.MIMEType, prefix) {
			return p.Inline
		}
	}
	return nil
}

// VideoRequest describes a video generation or extension job
type VideoRequest struct {
	Model          string
	Prompt         string
	Image          *Blob  // optional seed frame
	VideoURI       string // source video for extension
	AspectRatio    string
	Resolution     string
	NumberOfVideos int
}

// VideoOperation is the handle of a long-running video job
type VideoOperation struct {
	Name  string
	Done  bool
	URI   string // set once Done and successful
	Error string // set once Done and failed
}

// LiveRequest configures a live audio session
type LiveRequest struct {
	Model string
	Voice string
}

// LiveMessage is one inbound live message
type LiveMessage struct {
	Audio        []Blob // PCM fragments in arrival order
	Interrupted  bool
	TurnComplete bool
}

// LiveConn is an open live session
type LiveConn interface {
	// Send transmits one realtime audio frame
	Send(ctx context.Context, audio Blob) error

	// Receive blocks until the next server message
	Receive(ctx context.Context) (*LiveMessage, error)

	// Close ends the session
	Close() error
}
