package video

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unalkalkan/OneClickStudio/internal/apierror"
	"github.com/unalkalkan/OneClickStudio/internal/credential"
	"github.com/unalkalkan/OneClickStudio/internal/media"
	"github.com/unalkalkan/OneClickStudio/internal/provider"
	"github.com/unalkalkan/OneClickStudio/pkg/types"
)

// ErrNoVideo is returned when a finished operation yields no playable video
var ErrNoVideo = errors.New("video generation failed")

// Client submits video jobs and polls them to completion
type Client struct {
	model              provider.Model
	keys               credential.Provider
	classifier         *apierror.Classifier
	generateModel      string
	extendModel        string
	pollInterval       time.Duration
	extendPollInterval time.Duration
	maxWait            time.Duration
	resolution         string
}

// NewClient creates a video job client
func NewClient(model provider.Model, keys credential.Provider, classifier *apierror.Classifier, models types.ModelConfig, cfg types.VideoConfig) *Client {
	c := &Client{
		model:              model,
		keys:               keys,
		classifier:         classifier,
		generateModel:      models.Video,
		extendModel:        models.VideoExtend,
		pollInterval:       time.Duration(cfg.PollIntervalMs) * time.Millisecond,
		extendPollInterval: time.Duration(cfg.ExtendPollIntervalMs) * time.Millisecond,
		maxWait:            time.Duration(cfg.MaxWaitSeconds) * time.Second,
		resolution:         cfg.Resolution,
	}
	if c.pollInterval <= 0 {
		c.pollInterval = 8 * time.Second
	}
	if c.extendPollInterval <= 0 {
		c.extendPollInterval = 10 * time.Second
	}
	if c.resolution == "" {
		c.resolution = "720p"
	}
	return c
}

// ValidAspectRatio reports whether ratio is supported for video
func ValidAspectRatio(ratio string) bool {
	return ratio == "16:9" || ratio == "9:16"
}

// GenerateVideo renders a video from a prompt and an optional seed image data URI
func (c *Client) GenerateVideo(ctx context.Context, prompt, seedImageDataURI, aspectRatio string) (string, error) {
	if aspectRatio == "" {
		aspectRatio = "16:9"
	}
	if !ValidAspectRatio(aspectRatio) {
		return "", fmt.Errorf("unsupported aspect ratio: %s", aspectRatio)
	}

	req := provider.VideoRequest{
		Model:          c.generateModel,
		Prompt:         "Cinematic high-fidelity video, professional color grading: " + prompt,
		AspectRatio:    aspectRatio,
		Resolution:     c.resolution,
		NumberOfVideos: 1,
	}
	if seedImageDataURI != "" {
		seed, err := media.ParseImage(seedImageDataURI)
		if err != nil {
			return "", fmt.Errorf("invalid seed image: %w", err)
		}
		req.Image = seed
	}

	return c.run(ctx, req, c.pollInterval)
}

// ExtendVideo continues an existing generated video
func (c *Client) ExtendVideo(ctx context.Context, prompt, sourceVideoURI, aspectRatio string) (string, error) {
	if sourceVideoURI == "" {
		return "", fmt.Errorf("source video URI is required")
	}
	if !ValidAspectRatio(aspectRatio) {
		return "", fmt.Errorf("unsupported aspect ratio: %s", aspectRatio)
	}

	return c.run(ctx, provider.VideoRequest{
		Model:          c.extendModel,
		Prompt:         prompt,
		VideoURI:       sourceVideoURI,
		AspectRatio:    aspectRatio,
		Resolution:     c.resolution,
		NumberOfVideos: 1,
	}, c.extendPollInterval)
}

func (c *Client) run(ctx context.Context, req provider.VideoRequest, interval time.Duration) (string, error) {
	if c.maxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.maxWait)
		defer cancel()
	}

	logger := log.With().Str("component", "video").Str("model", req.Model).Logger()
	start := time.Now()

	op, err := c.model.GenerateVideo(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Video submission failed")
		return "", c.classifier.Check(ctx, fmt.Errorf("submit video: %w", err))
	}
	logger.Info().Str("operation", op.Name).Msg("Video operation submitted")

	polls := 0
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for !op.Done {
		select {
		case <-ctx.Done():
			logger.Warn().Str("operation", op.Name).Int("polls", polls).Msg("Video polling cancelled")
			return "", ctx.Err()
		case <-ticker.C:
		}

		polls++
		op, err = c.model.PollVideo(ctx, op)
		if err != nil {
			return "", c.classifier.Check(ctx, fmt.Errorf("poll video: %w", err))
		}
		logger.Debug().Str("operation", op.Name).Int("polls", polls).Bool("done", op.Done).Msg("Video operation polled")
	}

	if op.Error != "" {
		return "", c.classifier.Check(ctx, fmt.Errorf("%w: %s", ErrNoVideo, op.Error))
	}
	if op.URI == "" {
		return "", fmt.Errorf("%w: no video in response", ErrNoVideo)
	}

	// the key may have rotated while polling
	key, err := c.keys.Resolve(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve api key: %w", err)
	}

	logger.Info().Int("polls", polls).Dur("elapsed", time.Since(start)).Msg("Video ready")
	return op.URI + "&key=" + key, nil
}
