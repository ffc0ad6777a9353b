package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"github.com/unalkalkan/OneClickStudio/internal/apierror"
	"github.com/unalkalkan/OneClickStudio/internal/provider"
	"github.com/unalkalkan/OneClickStudio/pkg/types"
)

// SpeechSampleRate is the sample rate of generated narration PCM
const SpeechSampleRate = 24000

// NoAnalysis is returned when the model has nothing to say about an image
const NoAnalysis = "No analysis."

var (
	aspectRatios = map[string]bool{
		"1:1": true, "2:3": true, "3:2": true, "3:4": true, "4:3": true,
		"4:5": true, "5:4": true, "9:16": true, "16:9": true, "21:9": true,
	}
	sizeTiers = map[string]bool{"1K": true, "2K": true, "4K": true}
)

// ValidAspectRatio reports whether ratio is accepted for studio images
func ValidAspectRatio(ratio string) bool {
	return aspectRatios[ratio]
}

// ValidSizeTier reports whether tier is one of 1K, 2K or 4K
func ValidSizeTier(tier string) bool {
	return sizeTiers[tier]
}

// Client issues single-shot image, analysis, translation and speech requests
type Client struct {
	model          provider.Model
	classifier     *apierror.Classifier
	models         types.ModelConfig
	chapterRetries int
	chapterBackoff time.Duration
	defaultVoice   string
}

// NewClient creates a media generation client
func NewClient(model provider.Model, classifier *apierror.Classifier, models types.ModelConfig, cfg types.MediaConfig) *Client {
	backoffDelay := time.Duration(cfg.ChapterRetryBackoffMs) * time.Millisecond
	if backoffDelay <= 0 {
		backoffDelay = 2 * time.Second
	}
	voice := cfg.DefaultVoice
	if voice == "" {
		voice = "Kore"
	}
	return &Client{
		model:          model,
		classifier:     classifier,
		models:         models,
		chapterRetries: cfg.ChapterRetries,
		chapterBackoff: backoffDelay,
		defaultVoice:   voice,
	}
}

// ChapterRetries returns the configured retry count for chapter images
func (c *Client) ChapterRetries() int {
	return c.chapterRetries
}

// GenerateCoverImage renders a 3:4 book cover
func (c *Client) GenerateCoverImage(ctx context.Context, prompt string) (string, error) {
	text := "High-end professional physical book cover, premium photography, ultra-realistic textures, " +
		"studio lighting, cinematic atmosphere, 8k resolution, elegant design. Subject: " + prompt

	uri, err := c.image(ctx, c.models.CoverImage, []provider.Part{provider.TextPart(text)},
		&provider.ImageConfig{AspectRatio: "3:4", ImageSize: "1K"})
	if err != nil {
		return "", c.classifier.Check(ctx, fmt.Errorf("cover image: %w", err))
	}
	return uri, nil
}

// GenerateChapterImage renders a square chapter illustration. Failed
// attempts are retried up to retries more times with a fixed delay; only
// the final failure reaches the classifier.
func (c *Client) GenerateChapterImage(ctx context.Context, prompt string, retries int) (string, error) {
	if retries < 0 {
		retries = 0
	}
	text := "Highly detailed realistic editorial photography for a premium book, sharp focus, " +
		"professional color grading, clean composition. Scene: " + prompt

	attempt := 0
	op := func() (string, error) {
		attempt++
		uri, err := c.image(ctx, c.models.ChapterImage, []provider.Part{provider.TextPart(text)},
			&provider.ImageConfig{AspectRatio: "1:1"})
		if err != nil {
			if ctx.Err() != nil {
				return "", backoff.Permanent(ctx.Err())
			}
			log.Warn().Str("component", "media").Int("attempt", attempt).Err(err).Msg("Chapter image attempt failed")
			return "", err
		}
		return uri, nil
	}

	uri, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(c.chapterBackoff)),
		backoff.WithMaxTries(uint(retries+1)),
	)
	if err != nil {
		return "", c.classifier.Check(ctx, fmt.Errorf("chapter image after %d attempts: %w", attempt, err))
	}
	return uri, nil
}

// GenerateProImage renders a studio image at the requested aspect ratio and size tier
func (c *Client) GenerateProImage(ctx context.Context, prompt, aspectRatio, sizeTier string) (string, error) {
	if aspectRatio == "" {
		aspectRatio = "1:1"
	}
	if sizeTier == "" {
		sizeTier = "1K"
	}
	if !aspectRatios[aspectRatio] {
		return "", fmt.Errorf("unsupported aspect ratio: %s", aspectRatio)
	}
	if !sizeTiers[sizeTier] {
		return "", fmt.Errorf("unsupported size: %s", sizeTier)
	}

	text := "Award-winning professional photography, 8k resolution, photorealistic, highly detailed, masterwork. " + prompt
	uri, err := c.image(ctx, c.models.ProImage, []provider.Part{provider.TextPart(text)},
		&provider.ImageConfig{AspectRatio: aspectRatio, ImageSize: sizeTier})
	if err != nil {
		return "", c.classifier.Check(ctx, fmt.Errorf("pro image: %w", err))
	}
	return uri, nil
}

// EditImage applies an instruction to a source image
func (c *Client) EditImage(ctx context.Context, sourceDataURI, instruction string) (string, error) {
	src, err := ParseImage(sourceDataURI)
	if err != nil {
		return "", err
	}

	parts := []provider.Part{provider.InlinePart(src.MIMEType, src.Data), provider.TextPart(instruction)}
	uri, err := c.image(ctx, c.models.EditImage, parts, nil)
	if err != nil {
		return "", c.classifier.Check(ctx, fmt.Errorf("edit image: %w", err))
	}
	return uri, nil
}

// AnalyzeImage answers a question about an image
func (c *Client) AnalyzeImage(ctx context.Context, sourceDataURI, question string) (string, error) {
	src, err := ParseImage(sourceDataURI)
	if err != nil {
		return "", err
	}

	resp, err := c.model.GenerateContent(ctx, provider.ContentRequest{
		Model: c.models.Analyze,
		Parts: []provider.Part{provider.InlinePart(src.MIMEType, src.Data), provider.TextPart(question)},
	})
	if err != nil {
		return "", c.classifier.Check(ctx, fmt.Errorf("analyze image: %w", err))
	}

	answer := strings.TrimSpace(resp.Text())
	if answer == "" {
		return NoAnalysis, nil
	}
	return answer, nil
}

// TranslateText translates text into targetLanguage. Translation is best
// effort: on any failure or empty answer the input is returned unchanged.
func (c *Client) TranslateText(ctx context.Context, text, targetLanguage string) string {
	resp, err := c.model.GenerateContent(ctx, provider.ContentRequest{
		Model: c.models.Text,
		Parts: []provider.Part{provider.TextPart(fmt.Sprintf("Translate to %s: %s", targetLanguage, text))},
	})
	if err != nil {
		c.classifier.Classify(ctx, err)
		log.Warn().Str("component", "media").Str("language", targetLanguage).Err(err).Msg("Translation failed, keeping source text")
		return text
	}

	translated := strings.TrimSpace(resp.Text())
	if translated == "" {
		return text
	}
	return translated
}

// GenerateSpeech synthesises text with a prebuilt voice and returns 24 kHz 16-bit mono PCM
func (c *Client) GenerateSpeech(ctx context.Context, text, voice string) ([]byte, error) {
	if voice == "" {
		voice = c.defaultVoice
	}
	if !provider.IsVoice(voice) {
		return nil, fmt.Errorf("unknown voice: %s", voice)
	}

	resp, err := c.model.GenerateContent(ctx, provider.ContentRequest{
		Model:      c.models.Speech,
		Parts:      []provider.Part{provider.TextPart(text)},
		Modalities: []provider.Modality{provider.ModalityAudio},
		Voice:      voice,
	})
	if err != nil {
		return nil, c.classifier.Check(ctx, fmt.Errorf("speech: %w", err))
	}

	audio := resp.FirstInline("audio/")
	if audio == nil {
		return nil, c.classifier.Check(ctx, fmt.Errorf("speech: %w", apierror.ErrEmptyResponse))
	}
	return audio.Data, nil
}

// Narrate translates text when a language is given, synthesises it and
// returns a WAV data URI
func (c *Client) Narrate(ctx context.Context, text, voice, language string) (string, error) {
	if language != "" {
		text = c.TranslateText(ctx, text, language)
	}
	pcm, err := c.GenerateSpeech(ctx, text, voice)
	if err != nil {
		return "", err
	}
	return ToDataURI(&provider.Blob{MIMEType: "audio/wav", Data: WAV(pcm, SpeechSampleRate, 1, 16)}), nil
}

func (c *Client) image(ctx context.Context, model string, parts []provider.Part, cfg *provider.ImageConfig) (string, error) {
	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, provider.ContentRequest{
		Model:      model,
		Parts:      parts,
		Modalities: []provider.Modality{provider.ModalityImage},
		Image:      cfg,
	})
	if err != nil {
		return "", err
	}

	img := resp.FirstInline("image/")
	if img == nil {
		return "", apierror.ErrNoImage
	}

	log.Debug().
		Str("component", "media").
		Str("model", model).
		Int("bytes", len(img.Data)).
		Dur("elapsed", time.Since(start)).
		Msg("Image generated")
	return ToDataURI(img), nil
}
