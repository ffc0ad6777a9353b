// Package providertest provides a scriptable provider.Model for tests.
package providertest

import (
	"context"
	"errors"
	"sync"

	"github.com/unalkalkan/OneClickStudio/internal/provider"
)

// FakeModel records requests and delegates to the configured functions.
// A nil function returns an error.
type FakeModel struct {
	ContentFunc func(ctx context.Context, req provider.ContentRequest) (*provider.ContentResponse, error)
	VideoFunc   func(ctx context.Context, req provider.VideoRequest) (*provider.VideoOperation, error)
	PollFunc    func(ctx context.Context, op *provider.VideoOperation) (*provider.VideoOperation, error)
	LiveFunc    func(ctx context.Context, req provider.LiveRequest) (provider.LiveConn, error)

	mu           sync.Mutex
	contentCalls []provider.ContentRequest
	videoCalls   []provider.VideoRequest
	pollCalls    int
}

var errNotConfigured = errors.New("fake model: not configured")

func (f *FakeModel) Name() string { return "fake" }

func (f *FakeModel) GenerateContent(ctx context.Context, req provider.ContentRequest) (*provider.ContentResponse, error) {
	f.mu.Lock()
	f.contentCalls = append(f.contentCalls, req)
	fn := f.ContentFunc
	f.mu.Unlock()
	if fn == nil {
		return nil, errNotConfigured
	}
	return fn(ctx, req)
}

func (f *FakeModel) GenerateVideo(ctx context.Context, req provider.VideoRequest) (*provider.VideoOperation, error) {
	f.mu.Lock()
	f.videoCalls = append(f.videoCalls, req)
	fn := f.VideoFunc
	f.mu.Unlock()
	if fn == nil {
		return nil, errNotConfigured
	}
	return fn(ctx, req)
}

func (f *FakeModel) PollVideo(ctx context.Context, op *provider.VideoOperation) (*provider.VideoOperation, error) {
	f.mu.Lock()
	f.pollCalls++
	fn := f.PollFunc
	f.mu.Unlock()
	if fn == nil {
		return nil, errNotConfigured
	}
	return fn(ctx, op)
}

func (f *FakeModel) ConnectLive(ctx context.Context, req provider.LiveRequest) (provider.LiveConn, error) {
	if f.LiveFunc == nil {
		return nil, errNotConfigured
	}
	return f.LiveFunc(ctx, req)
}

func (f *FakeModel) Close() error { return nil }

// ContentCalls returns a copy of every content request seen so far
func (f *FakeModel) ContentCalls() []provider.ContentRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]provider.ContentRequest(nil), f.contentCalls...)
}

// VideoCalls returns a copy of every video request seen so far
func (f *FakeModel) VideoCalls() []provider.VideoRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]provider.VideoRequest(nil), f.videoCalls...)
}

// PollCalls returns how many times PollVideo was called
func (f *FakeModel) PollCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pollCalls
}

// Text returns a content function answering with text
func Text(s string) func(context.Context, provider.ContentRequest) (*provider.ContentResponse, error) {
	return func(context.Context, provider.ContentRequest) (*provider.ContentResponse, error) {
		return &provider.ContentResponse{Parts: []provider.Part{provider.TextPart(s)}}, nil
	}
}

// Inline returns a content function answering with one inline blob
func Inline(mimeType string, data []byte) func(context.Context, provider.ContentRequest) (*provider.ContentResponse, error) {
	return func(context.Context, provider.ContentRequest) (*provider.ContentResponse, error) {
		return &provider.ContentResponse{Parts: []provider.Part{provider.InlinePart(mimeType, data)}}, nil
	}
}

// Fail returns a content function that always fails with err
func Fail(err error) func(context.Context, provider.ContentRequest) (*provider.ContentResponse, error) {
	return func(context.Context, provider.ContentRequest) (*provider.ContentResponse, error) {
		return nil, err
	}
}
