package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/unalkalkan/OneClickStudio/internal/apierror"
	"github.com/unalkalkan/OneClickStudio/internal/credential"
	"github.com/unalkalkan/OneClickStudio/internal/export"
	"github.com/unalkalkan/OneClickStudio/internal/generation"
	"github.com/unalkalkan/OneClickStudio/internal/health"
	"github.com/unalkalkan/OneClickStudio/internal/illustration"
	"github.com/unalkalkan/OneClickStudio/internal/media"
	"github.com/unalkalkan/OneClickStudio/internal/product"
	"github.com/unalkalkan/OneClickStudio/internal/provider"
	"github.com/unalkalkan/OneClickStudio/internal/provider/providertest"
	"github.com/unalkalkan/OneClickStudio/internal/storage"
	"github.com/unalkalkan/OneClickStudio/internal/video"
	"github.com/unalkalkan/OneClickStudio/pkg/types"
)

const testKeyEnv = "ONECLICK_TEST_API_KEY"

// 1x1 PNG
var testPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

type testEnv struct {
	handler http.Handler
	deps    Deps
}

func newTestEnv(t *testing.T, model provider.Model) *testEnv {
	t.Helper()
	t.Setenv(testKeyEnv, "test-key")

	cfg := &types.Config{
		Storage:  types.StorageConfig{Adapter: "local", Local: types.LocalStorageOpts{BasePath: t.TempDir()}},
		Provider: types.ProviderConfig{Name: model.Name(), APIKeyEnv: testKeyEnv},
		Media:    types.MediaConfig{ChapterRetryBackoffMs: 1},
		Video:    types.VideoConfig{PollIntervalMs: 1, ExtendPollIntervalMs: 1},
		Live:     types.LiveConfig{Voice: "Puck", InputSampleRate: 16000, OutputSampleRate: 24000, SendQueueSize: 8},
	}

	adapter, err := storage.NewAdapter(cfg.Storage)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	store, err := product.NewStore(context.Background(), adapter)
	if err != nil {
		t.Fatalf("Failed to create product store: %v", err)
	}

	registry := provider.NewRegistry()
	if err := registry.Register(model); err != nil {
		t.Fatalf("Failed to register model: %v", err)
	}

	keyring := credential.NewKeyring(testKeyEnv)
	classifier := apierror.NewClassifier(keyring)
	models := cfg.Provider.Models

	mediaClient := media.NewClient(model, classifier, models, cfg.Media)
	jobs := video.NewJobs(video.NewClient(model, keyring, classifier, models, cfg.Video))
	illustrator := illustration.NewIllustrator(store, mediaClient)

	h := health.NewHandler("test")
	h.Register("storage", health.PingCheck(store))
	h.Register("models", health.ListCheck("models", registry.List))
	h.Register("credential", health.CredentialCheck(keyring.Resolve))

	t.Cleanup(func() {
		jobs.Shutdown()
		illustrator.Shutdown()
		store.Close()
	})

	d := Deps{
		Version:     "test",
		Config:      cfg,
		Health:      h,
		Registry:    registry,
		Model:       model,
		Classifier:  classifier,
		Keyring:     keyring,
		Products:    product.NewService(store, generation.NewClient(model, classifier, models, 0), mediaClient),
		Illustrator: illustrator,
		Media:       mediaClient,
		Videos:      jobs,
		Exporter:    export.NewExporter(),
	}
	return &testEnv{handler: NewRouter(d), deps: d}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return v
}

func productRequest() types.ProductRequest {
	return types.ProductRequest{
		Niche:          "Home composting",
		TargetAudience: "Urban gardeners",
		Platform:       types.PlatformGumroad,
		Goal:           types.GoalQuickSale,
		Size:           types.SizeShort,
	}
}

func (e *testEnv) createProduct(t *testing.T) *types.Product {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/products", productRequest())
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	return decode[*types.Product](t, w)
}

func TestProductLifecycle(t *testing.T) {
	env := newTestEnv(t, provider.NewStubModel("stub"))

	p := env.createProduct(t)
	if p.ID == "" || p.Version != 1 || p.Status != types.StatusCompleted {
		t.Fatalf("Unexpected created product: id=%q version=%d status=%q", p.ID, p.Version, p.Status)
	}
	if p.Language != types.DefaultLanguage {
		t.Errorf("Expected default language, got %q", p.Language)
	}
	if p.Content == nil || len(p.Content.Chapters) == 0 {
		t.Fatal("Expected generated chapters")
	}

	w := env.do(t, http.MethodGet, "/api/v1/products", nil)
	list := decode[struct {
		Products []types.Product `json:"products"`
		Count    int             `json:"count"`
	}](t, w)
	if list.Count != 1 || list.Products[0].ID != p.ID {
		t.Errorf("Expected the created product in the list, got %+v", list)
	}

	w = env.do(t, http.MethodGet, "/api/v1/products/"+p.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/api/v1/products/"+p.ID+"/cover", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for cover, got %d: %s", w.Code, w.Body.String())
	}
	covered := decode[*types.Product](t, w)
	if !strings.HasPrefix(covered.Content.CoverImageURL, "data:image/png;base64,") {
		t.Errorf("Expected a PNG data URI cover, got %.40q", covered.Content.CoverImageURL)
	}
	if covered.Version != 2 {
		t.Errorf("Expected version 2 after cover, got %d", covered.Version)
	}

	// stale version stamp
	w = env.do(t, http.MethodPost, "/api/v1/products/"+p.ID+"/sales-copy", map[string]any{"instruction": "shorter", "version": 1})
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for stale version, got %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/api/v1/products/"+p.ID+"/sales-copy", map[string]any{"instruction": "shorter", "version": 2})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for sales copy, got %d: %s", w.Code, w.Body.String())
	}
	refined := decode[*types.Product](t, w)
	if refined.Content.SalesCopy.Headline == "" || refined.Version != 3 {
		t.Errorf("Unexpected refined product: headline=%q version=%d", refined.Content.SalesCopy.Headline, refined.Version)
	}
}

func TestProductErrors(t *testing.T) {
	env := newTestEnv(t, provider.NewStubModel("stub"))

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"unknown product", http.MethodGet, "/api/v1/products/missing", nil, http.StatusNotFound},
		{"malformed body", http.MethodPost, "/api/v1/products", "{", http.StatusBadRequest},
		{"missing niche", http.MethodPost, "/api/v1/products", types.ProductRequest{TargetAudience: "x", Platform: types.PlatformEtsy, Goal: types.GoalAuthority, Size: types.SizeLong}, http.StatusBadRequest},
		{"invalid platform", http.MethodPost, "/api/v1/products", types.ProductRequest{Niche: "x", TargetAudience: "y", Platform: "Myspace", Goal: types.GoalAuthority, Size: types.SizeLong}, http.StatusBadRequest},
		{"cover for unknown product", http.MethodPost, "/api/v1/products/missing/cover", nil, http.StatusNotFound},
		{"illustrate unknown product", http.MethodPost, "/api/v1/products/missing/illustrations", nil, http.StatusNotFound},
		{"unknown export format", http.MethodGet, "/api/v1/products/missing/export?format=pdf", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, tt.body)
			if w.Code != tt.status {
				t.Fatalf("Expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			resp := decode[ErrorResponse](t, w)
			if resp.Error == "" {
				t.Error("Expected an error message")
			}
		})
	}
}

func TestUploadCover(t *testing.T) {
	env := newTestEnv(t, provider.NewStubModel("stub"))
	p := env.createProduct(t)

	upload := func(data []byte, version string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		fw, err := mw.CreateFormFile("file", "cover.png")
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		fw.Write(data)
		mw.WriteField("version", version)
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/products/"+p.ID+"/cover/upload", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		env.handler.ServeHTTP(w, req)
		return w
	}

	if w := upload([]byte("plain text, not an image"), "1"); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for non-image upload, got %d", w.Code)
	}
	if w := upload(testPNG, "one"); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for a malformed version, got %d", w.Code)
	}
	if w := upload(testPNG, "99"); w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for a stale version, got %d", w.Code)
	}

	w := upload(testPNG, "1")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	got := decode[*types.Product](t, w)
	if !strings.HasPrefix(got.Content.CoverImageURL, "data:image/png") {
		t.Errorf("Expected uploaded PNG cover, got %.40q", got.Content.CoverImageURL)
	}
}

func TestIllustrations(t *testing.T) {
	env := newTestEnv(t, provider.NewStubModel("stub"))
	p := env.createProduct(t)

	w := env.do(t, http.MethodPost, "/api/v1/products/"+p.ID+"/illustrations", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d: %s", w.Code, w.Body.String())
	}

	type status struct {
		Running bool `json:"running"`
		Pending int  `json:"pending"`
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		st := decode[status](t, env.do(t, http.MethodGet, "/api/v1/products/"+p.ID+"/illustrations", nil))
		if !st.Running && st.Pending == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Illustration pass did not finish: %+v", st)
		}
		time.Sleep(10 * time.Millisecond)
	}

	got := decode[*types.Product](t, env.do(t, http.MethodGet, "/api/v1/products/"+p.ID, nil))
	for i, ch := range got.Content.Chapters {
		if ch.ImageURL == "" {
			t.Errorf("Chapter %d has no illustration", i)
		}
	}

	w = env.do(t, http.MethodDelete, "/api/v1/products/"+p.ID+"/illustrations", nil)
	if decode[map[string]any](t, w)["cancelled"] != false {
		t.Error("Expected nothing to cancel after the pass finished")
	}
}

func TestNarration(t *testing.T) {
	env := newTestEnv(t, provider.NewStubModel("stub"))
	p := env.createProduct(t)

	w := env.do(t, http.MethodPost, "/api/v1/products/"+p.ID+"/narration", map[string]string{"voice": "Kore"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if audio := decode[map[string]string](t, w)["audio"]; !strings.HasPrefix(audio, "data:audio/wav;base64,") {
		t.Errorf("Expected a WAV data URI, got %.40q", audio)
	}

	w = env.do(t, http.MethodPost, "/api/v1/products/"+p.ID+"/narration", map[string]string{"voice": "Nobody"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown voice, got %d", w.Code)
	}
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, provider.NewStubModel("stub"))
	p := env.createProduct(t)

	tests := []struct {
		format      string
		contentType string
		ext         string
	}{
		{"", "application/json", ".json"},
		{"md", "text/markdown; charset=utf-8", ".md"},
		{"epub", "application/epub+zip", ".epub"},
		{"zip", "application/zip", ".zip"},
	}

	for _, tt := range tests {
		t.Run("format="+tt.format, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/v1/products/"+p.ID+"/export?format="+tt.format, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
			}
			if got := w.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Expected content type %q, got %q", tt.contentType, got)
			}
			if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, tt.ext) {
				t.Errorf("Expected %s attachment, got %q", tt.ext, cd)
			}
			if w.Body.Len() == 0 {
				t.Error("Expected a non-empty export")
			}
		})
	}
}

func TestStudioEndpoints(t *testing.T) {
	env := newTestEnv(t, provider.NewStubModel("stub"))
	image := media.ToDataURI(&provider.Blob{MIMEType: "image/png", Data: testPNG})

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		field  string
	}{
		{"generate image", "/api/v1/studio/images", map[string]string{"prompt": "a fox", "aspectRatio": "1:1", "size": "1K"}, http.StatusOK, "image"},
		{"generate image without prompt", "/api/v1/studio/images", map[string]string{"prompt": " "}, http.StatusBadRequest, ""},
		{"generate image bad ratio", "/api/v1/studio/images", map[string]string{"prompt": "a fox", "aspectRatio": "7:3"}, http.StatusBadRequest, ""},
		{"edit image", "/api/v1/studio/edit", map[string]string{"image": image, "instruction": "add a hat"}, http.StatusOK, "image"},
		{"edit invalid image", "/api/v1/studio/edit", map[string]string{"image": "not a data uri", "instruction": "add a hat"}, http.StatusBadRequest, ""},
		{"analyze image", "/api/v1/studio/analyze", map[string]string{"image": image}, http.StatusOK, "analysis"},
		{"translate", "/api/v1/studio/translate", map[string]string{"text": "hello", "targetLanguage": "Spanish"}, http.StatusOK, "text"},
		{"translate without language", "/api/v1/studio/translate", map[string]string{"text": "hello"}, http.StatusBadRequest, ""},
		{"extend without source", "/api/v1/studio/videos/extend", map[string]string{"prompt": "more"}, http.StatusBadRequest, ""},
		{"video bad ratio", "/api/v1/studio/videos", map[string]string{"prompt": "waves", "aspectRatio": "1:1"}, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tt.path, tt.body)
			if w.Code != tt.status {
				t.Fatalf("Expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if tt.field != "" {
				if v := decode[map[string]string](t, w)[tt.field]; v == "" {
					t.Errorf("Expected %q in response", tt.field)
				}
			}
		})
	}
}

func TestVideoJob(t *testing.T) {
	env := newTestEnv(t, provider.NewStubModel("stub"))

	w := env.do(t, http.MethodPost, "/api/v1/studio/videos", map[string]string{"prompt": "ocean waves"})
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d: %s", w.Code, w.Body.String())
	}
	job := decode[video.Job](t, w)
	if job.ID == "" || job.Kind != "generate" {
		t.Fatalf("Unexpected job: %+v", job)
	}

	deadline := time.Now().Add(5 * time.Second)
	for job.Status != video.StatusSucceeded {
		if job.Status == video.StatusFailed {
			t.Fatalf("Video job failed: %s", job.Error)
		}
		if time.Now().After(deadline) {
			t.Fatalf("Video job did not finish: %+v", job)
		}
		time.Sleep(5 * time.Millisecond)
		job = decode[video.Job](t, env.do(t, http.MethodGet, "/api/v1/studio/videos/"+job.ID, nil))
	}
	if !strings.HasSuffix(job.ResultURI, "&key=test-key") {
		t.Errorf("Expected the key appended to the result, got %q", job.ResultURI)
	}

	if w := env.do(t, http.MethodGet, "/api/v1/studio/videos/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown job, got %d", w.Code)
	}
	if w := env.do(t, http.MethodDelete, "/api/v1/studio/videos/"+job.ID, nil); w.Code != http.StatusOK {
		t.Errorf("Expected cancelling a finished job to succeed, got %d", w.Code)
	}
}

func TestCredentialEndpoints(t *testing.T) {
	env := newTestEnv(t, provider.NewStubModel("stub"))

	st := decode[credential.Status](t, env.do(t, http.MethodGet, "/api/v1/credential", nil))
	if !st.Selected || st.Source != "environment" {
		t.Errorf("Expected the environment key, got %+v", st)
	}

	if w := env.do(t, http.MethodPut, "/api/v1/credential", map[string]string{"api_key": "  "}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for empty key, got %d", w.Code)
	}

	w := env.do(t, http.MethodPut, "/api/v1/credential", map[string]string{"api_key": "user-key"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	st = decode[credential.Status](t, w)
	if st.Source != "selected" {
		t.Errorf("Expected the selected key, got %+v", st)
	}
	if strings.Contains(w.Body.String(), "user-key") {
		t.Error("The key must never be echoed back")
	}
}

func TestModelFailureMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		status     int
		credential bool
		message    string
	}{
		{"permission denied", &apierror.StatusError{Code: 403, Status: "PERMISSION_DENIED", Message: "billing required"}, http.StatusForbidden, true, apierror.CredentialMessage},
		{"entity not found", errors.New("Requested entity was not found."), http.StatusForbidden, true, apierror.CredentialMessage},
		{"network failure", errors.New("connection reset by peer"), http.StatusBadGateway, false, apierror.GenericMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &providertest.FakeModel{
				ContentFunc: func(ctx context.Context, req provider.ContentRequest) (*provider.ContentResponse, error) {
					return nil, tt.err
				},
			}
			env := newTestEnv(t, fake)

			for _, path := range []string{"/api/v1/studio/images", "/api/v1/products"} {
				var body any = map[string]string{"prompt": "a fox"}
				if path == "/api/v1/products" {
					body = productRequest()
				}
				w := env.do(t, http.MethodPost, path, body)
				if w.Code != tt.status {
					t.Fatalf("%s: expected status %d, got %d: %s", path, tt.status, w.Code, w.Body.String())
				}
				resp := decode[ErrorResponse](t, w)
				if resp.CredentialIssue != tt.credential || resp.Error != tt.message {
					t.Errorf("%s: unexpected error body %+v", path, resp)
				}
			}

			if got := env.deps.Keyring.Status().SelectionRequested; got != tt.credential {
				t.Errorf("Expected selection requested=%v, got %v", tt.credential, got)
			}
		})
	}
}

func TestInvalidModelOutput(t *testing.T) {
	fake := &providertest.FakeModel{
		ContentFunc: func(ctx context.Context, req provider.ContentRequest) (*provider.ContentResponse, error) {
			return &provider.ContentResponse{Parts: []provider.Part{provider.TextPart(`{"title":""}`)}}, nil
		},
	}
	env := newTestEnv(t, fake)

	w := env.do(t, http.MethodPost, "/api/v1/products", productRequest())
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422, got %d: %s", w.Code, w.Body.String())
	}
	if len(env.deps.Products.Store().List(context.Background())) != 0 {
		t.Error("A rejected generation must not be stored")
	}
}

func TestVoicesAndInfo(t *testing.T) {
	env := newTestEnv(t, provider.NewStubModel("stub"))

	w := env.do(t, http.MethodGet, "/api/v1/voices?gender=male", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	voices := decode[struct {
		Voices []VoiceResponse `json:"voices"`
		Count  int             `json:"count"`
	}](t, w)
	if voices.Count != 3 || len(voices.Voices) != 3 {
		t.Errorf("Expected 3 male voices, got %d", voices.Count)
	}
	for _, v := range voices.Voices {
		if v.Gender != "male" || len(v.Providers) != 1 || v.Providers[0] != "stub" {
			t.Errorf("Unexpected voice %+v", v)
		}
	}

	info := decode[infoResponse](t, env.do(t, http.MethodGet, "/api/v1/info", nil))
	if info.Version != "test" || info.StorageAdapter != "local" || len(info.Registered) != 1 {
		t.Errorf("Unexpected info %+v", info)
	}

	w = env.do(t, http.MethodGet, "/health/ready", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected ready, got %d: %s", w.Code, w.Body.String())
	}
}

func TestVoicesWithoutProviders(t *testing.T) {
	handler := NewVoicesHandler(provider.NewRegistry())
	w := httptest.NewRecorder()
	handler.ListVoices(w, httptest.NewRequest(http.MethodGet, "/api/v1/voices", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{product.ErrNotFound, http.StatusNotFound},
		{video.ErrJobNotFound, http.StatusNotFound},
		{badRequest("nope"), http.StatusBadRequest},
		{product.ErrChapterOutOfRange, http.StatusBadRequest},
		{product.ErrVersionConflict, http.StatusConflict},
		{product.ErrNoContent, http.StatusConflict},
		{video.ErrBusy, http.StatusConflict},
		{illustration.ErrAlreadyRunning, http.StatusConflict},
		{&apierror.ValidationError{Field: "title", Reason: "missing"}, http.StatusUnprocessableEntity},
		{context.Canceled, 499},
		{errors.New("boom"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		if got, _ := classify(tt.err); got != tt.status {
			t.Errorf("classify(%v) = %d, want %d", tt.err, got, tt.status)
		}
	}
}
