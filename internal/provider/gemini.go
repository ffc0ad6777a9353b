package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/unalkalkan/OneClickStudio/internal/apierror"
	"github.com/unalkalkan/OneClickStudio/internal/credential"
	"github.com/unalkalkan/OneClickStudio/pkg/types"
)

// GeminiModel implements Model on top of the genai SDK
type GeminiModel struct {
	name       string
	config     types.ProviderConfig
	keys       credential.Provider
	selector   credential.Selector
	httpClient *http.Client

	mu        sync.Mutex
	client    *genai.Client
	clientKey string
}

// NewGeminiModel creates a Gemini-backed model. The key is resolved from
// keys on every call; a client is rebuilt whenever the key changes. When
// keys can also select a key, an empty selection opens it before the call.
func NewGeminiModel(config types.ProviderConfig, keys credential.Provider) (*GeminiModel, error) {
	if keys == nil {
		return nil, fmt.Errorf("credential provider is required for gemini")
	}

	timeout := 300 * time.Second
	if config.Timeout > 0 {
		timeout = time.Duration(config.Timeout) * time.Second
	}

	selector, _ := keys.(credential.Selector)

	return &GeminiModel{
		name:       config.Name,
		config:     config,
		keys:       keys,
		selector:   selector,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (g *GeminiModel) Name() string {
	return g.name
}

// GenerateContent sends one GenerateContent request
func (g *GeminiModel) GenerateContent(ctx context.Context, req ContentRequest) (*ContentResponse, error) {
	client, err := g.clientFor(ctx)
	if err != nil {
		return nil, err
	}

	parts := make([]*genai.Part, 0, len(req.Parts))
	for _, p := range req.Parts {
		parts = append(parts, toGenaiPart(p))
	}

	log.Debug().
		Str("component", "gemini").
		Str("model", req.Model).
		Int("parts", len(parts)).
		Str("prompt", truncate(firstText(req.Parts), 200)).
		Msg("GenerateContent request")

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, req.Model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		buildContentConfig(req))
	if err != nil {
		log.Error().Str("component", "gemini").Str("model", req.Model).Err(err).Msg("GenerateContent failed")
		return nil, mapError(err)
	}

	out := &ContentResponse{}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p == nil || p.Thought {
				continue
			}
			part := Part{Text: p.Text}
			if p.InlineData != nil {
				part.Inline = &Blob{MIMEType: p.InlineData.MIMEType, Data: p.InlineData.Data}
			}
			out.Parts = append(out.Parts, part)
		}
		break
	}

	log.Debug().
		Str("component", "gemini").
		Str("model", req.Model).
		Int("parts", len(out.Parts)).
		Dur("elapsed", time.Since(start)).
		Msg("GenerateContent response")
	return out, nil
}

// GenerateVideo submits a video job
func (g *GeminiModel) GenerateVideo(ctx context.Context, req VideoRequest) (*VideoOperation, error) {
	client, err := g.clientFor(ctx)
	if err != nil {
		return nil, err
	}

	source := &genai.GenerateVideosSource{Prompt: req.Prompt}
	if req.Image != nil {
		source.Image = &genai.Image{ImageBytes: req.Image.Data, MIMEType: req.Image.MIMEType}
	}
	if req.VideoURI != "" {
		source.Video = &genai.Video{URI: req.VideoURI}
	}

	n := req.NumberOfVideos
	if n <= 0 {
		n = 1
	}
	cfg := &genai.GenerateVideosConfig{
		NumberOfVideos: int32(n),
		AspectRatio:    req.AspectRatio,
		Resolution:     req.Resolution,
	}

	log.Info().
		Str("component", "gemini").
		Str("model", req.Model).
		Bool("seed_image", req.Image != nil).
		Bool("extend", req.VideoURI != "").
		Str("prompt", truncate(req.Prompt, 200)).
		Msg("GenerateVideos request")

	op, err := client.Models.GenerateVideosFromSource(ctx, req.Model, source, cfg)
	if err != nil {
		return nil, mapError(err)
	}
	return fromGenaiOperation(op), nil
}

// PollVideo re-fetches a video operation
func (g *GeminiModel) PollVideo(ctx context.Context, op *VideoOperation) (*VideoOperation, error) {
	client, err := g.clientFor(ctx)
	if err != nil {
		return nil, err
	}

	latest, err := client.Operations.GetVideosOperation(ctx, &genai.GenerateVideosOperation{Name: op.Name}, nil)
	if err != nil {
		return nil, mapError(err)
	}
	return fromGenaiOperation(latest), nil
}

// ConnectLive opens an audio-only live session with the requested voice
func (g *GeminiModel) ConnectLive(ctx context.Context, req LiveRequest) (LiveConn, error) {
	client, err := g.clientFor(ctx)
	if err != nil {
		return nil, err
	}

	session, err := client.Live.Connect(ctx, req.Model, &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SpeechConfig:       speechConfig(req.Voice),
	})
	if err != nil {
		return nil, mapError(err)
	}

	log.Info().Str("component", "gemini").Str("model", req.Model).Str("voice", req.Voice).Msg("Live session opened")
	return &geminiLiveConn{session: session}, nil
}

func (g *GeminiModel) Close() error {
	g.httpClient.CloseIdleConnections()
	return nil
}

// clientFor resolves the current key and returns a client bound to it
func (g *GeminiModel) clientFor(ctx context.Context) (*genai.Client, error) {
	key, err := credential.Ensure(ctx, g.keys, g.selector)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, &apierror.StatusError{Code: http.StatusForbidden, Status: "PERMISSION_DENIED", Message: "no API key configured"}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil && g.clientKey == key {
		return g.client, nil
	}

	cc := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.httpClient,
	}
	if g.config.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: g.config.Endpoint}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	g.client = client
	g.clientKey = key
	return client, nil
}

func buildContentConfig(req ContentRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: req.ResponseMIME,
		ResponseSchema:   toGenaiSchema(req.ResponseSchema),
	}
	if req.ThinkingBudget > 0 {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(int32(req.ThinkingBudget))}
	}
	if req.Image != nil {
		cfg.ImageConfig = &genai.ImageConfig{AspectRatio: req.Image.AspectRatio, ImageSize: req.Image.ImageSize}
	}
	for _, m := range req.Modalities {
		cfg.ResponseModalities = append(cfg.ResponseModalities, string(m))
	}
	if req.Voice != "" {
		cfg.SpeechConfig = speechConfig(req.Voice)
	}
	return cfg
}

func speechConfig(voice string) *genai.SpeechConfig {
	if voice == "" {
		return nil
	}
	return &genai.SpeechConfig{
		VoiceConfig: &genai.VoiceConfig{
			PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
		},
	}
}

func toGenaiPart(p Part) *genai.Part {
	if p.Inline != nil {
		return &genai.Part{InlineData: &genai.Blob{MIMEType: p.Inline.MIMEType, Data: p.Inline.Data}}
	}
	return &genai.Part{Text: p.Text}
}

func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genai.Type(s.Type),
		Description: s.Description,
		Required:    s.Required,
		Items:       toGenaiSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}
	return out
}

func fromGenaiOperation(op *genai.GenerateVideosOperation) *VideoOperation {
	if op == nil {
		return &VideoOperation{}
	}
	out := &VideoOperation{Name: op.Name, Done: op.Done}
	if len(op.Error) > 0 {
		out.Error = fmt.Sprint(op.Error["message"])
	}
	if op.Response != nil {
		for _, gv := range op.Response.GeneratedVideos {
			if gv != nil && gv.Video != nil && gv.Video.URI != "" {
				out.URI = gv.Video.URI
				break
			}
		}
	}
	return out
}

// mapError converts SDK API errors into StatusError so the classifier can read the status
func mapError(err error) error {
	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return &apierror.StatusError{Code: ptr.Code, Status: ptr.Status, Message: ptr.Message}
	}
	var val genai.APIError
	if errors.As(err, &val) {
		return &apierror.StatusError{Code: val.Code, Status: val.Status, Message: val.Message}
	}
	return err
}

type geminiLiveConn struct {
	session *genai.Session
}

func (c *geminiLiveConn) Send(ctx context.Context, audio Blob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Audio: &genai.Blob{MIMEType: audio.MIMEType, Data: audio.Data},
	})
}

func (c *geminiLiveConn) Receive(ctx context.Context) (*LiveMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	msg, err := c.session.Receive()
	if err != nil {
		return nil, mapError(err)
	}

	out := &LiveMessage{}
	if sc := msg.ServerContent; sc != nil {
		out.Interrupted = sc.Interrupted
		out.TurnComplete = sc.TurnComplete
		if sc.ModelTurn != nil {
			for _, p := range sc.ModelTurn.Parts {
				if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 {
					out.Audio = append(out.Audio, Blob{MIMEType: p.InlineData.MIMEType, Data: p.InlineData.Data})
				}
			}
		}
	}
	return out, nil
}

func (c *geminiLiveConn) Close() error {
	return c.session.Close()
}

func firstText(parts []Part) string {
	for _, p := range parts {
		if p.Text != "" {
			return p.Text
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
