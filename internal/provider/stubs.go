package provider

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// StubModel is an offline implementation of Model for development and tests.
// Structured requests are answered with JSON synthesised from the schema.
type StubModel struct {
	name string

	mu    sync.Mutex
	polls map[string]int
	// PollsUntilDone is how many polls a video operation stays pending
	PollsUntilDone int
}

// NewStubModel creates a new stub model
func NewStubModel(name string) *StubModel {
	return &StubModel{
		name:           name,
		polls:          make(map[string]int),
		PollsUntilDone: 1,
	}
}

func (s *StubModel) Name() string {
	return s.name
}

// stubPNG is a 1x1 transparent PNG
var stubPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func (s *StubModel) GenerateContent(ctx context.Context, req ContentRequest) (*ContentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, m := range req.Modalities {
		switch m {
		case ModalityImage:
			return &ContentResponse{Parts: []Part{InlinePart("image/png", stubPNG)}}, nil
		case ModalityAudio:
			return &ContentResponse{Parts: []Part{InlinePart("audio/pcm;rate=24000", StubTone(2400))}}, nil
		}
	}

	if req.ResponseSchema != nil {
		data, err := json.Marshal(sampleFor("", req.ResponseSchema))
		if err != nil {
			return nil, fmt.Errorf("failed to build stub response: %w", err)
		}
		return &ContentResponse{Parts: []Part{TextPart(string(data))}}, nil
	}

	// Stub implementation - echoes a preview of the prompt
	preview := firstText(req.Parts)
	if len(preview) > 40 {
		preview = preview[:40]
	}
	return &ContentResponse{Parts: []Part{TextPart("Stub response: " + preview)}}, nil
}

func (s *StubModel) GenerateVideo(ctx context.Context, req VideoRequest) (*VideoOperation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := "operations/" + uuid.New().String()

	s.mu.Lock()
	s.polls[name] = 0
	s.mu.Unlock()

	return &VideoOperation{Name: name}, nil
}

func (s *StubModel) PollVideo(ctx context.Context, op *VideoOperation) (*VideoOperation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.polls[op.Name]
	if !ok {
		return nil, fmt.Errorf("unknown operation: %s", op.Name)
	}
	n++
	s.polls[op.Name] = n
	if n <= s.PollsUntilDone {
		return &VideoOperation{Name: op.Name}, nil
	}
	delete(s.polls, op.Name)
	id := strings.TrimPrefix(op.Name, "operations/")
	return &VideoOperation{Name: op.Name, Done: true, URI: "https://stub.local/v1beta/files/" + id + ":download?alt=media"}, nil
}

func (s *StubModel) ConnectLive(ctx context.Context, req LiveRequest) (LiveConn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return newStubLiveConn(), nil
}

func (s *StubModel) Close() error {
	return nil
}

// StubTone returns n samples of a 440 Hz tone as 16-bit little-endian PCM at 24 kHz
func StubTone(n int) []byte {
	buf := make([]byte, n*2)
	for i := 0; i < n; i++ {
		v := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/24000))
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	return buf
}

// sampleFor builds a value that satisfies schema
func sampleFor(field string, schema *Schema) any {
	switch schema.Type {
	case TypeObject:
		obj := make(map[string]any, len(schema.Properties))
		keys := make([]string, 0, len(schema.Properties))
		for k := range schema.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			obj[k] = sampleFor(k, schema.Properties[k])
		}
		return obj
	case TypeArray:
		if schema.Items == nil {
			return []any{}
		}
		items := make([]any, 0, 3)
		for i := 1; i <= 3; i++ {
			item := sampleFor(field, schema.Items)
			if str, ok := item.(string); ok {
				item = fmt.Sprintf("%s %d", str, i)
			}
			items = append(items, item)
		}
		return items
	case TypeInteger, TypeNumber:
		return 1
	case TypeBoolean:
		return true
	default:
		if field == "" {
			field = "value"
		}
		return "Stub " + field
	}
}

// stubLiveConn answers every sent frame with a short tone fragment
type stubLiveConn struct {
	out    chan *LiveMessage
	done   chan struct{}
	closed sync.Once
}

func newStubLiveConn() *stubLiveConn {
	return &stubLiveConn{
		out:  make(chan *LiveMessage, 16),
		done: make(chan struct{}),
	}
}

func (c *stubLiveConn) Send(ctx context.Context, audio Blob) error {
	select {
	case <-c.done:
		return fmt.Errorf("live session closed")
	default:
	}
	msg := &LiveMessage{Audio: []Blob{{MIMEType: "audio/pcm;rate=24000", Data: StubTone(480)}}}
	select {
	case c.out <- msg:
	default:
		// reply buffer full; drop like a real backend would coalesce
	}
	return nil
}

func (c *stubLiveConn) Receive(ctx context.Context) (*LiveMessage, error) {
	select {
	case msg := <-c.out:
		return msg, nil
	case <-c.done:
		return nil, fmt.Errorf("live session closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *stubLiveConn) Close() error {
	c.closed.Do(func() { close(c.done) })
	return nil
}
