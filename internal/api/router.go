package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/unalkalkan/OneClickStudio/internal/apierror"
	"github.com/unalkalkan/OneClickStudio/internal/credential"
	"github.com/unalkalkan/OneClickStudio/internal/export"
	"github.com/unalkalkan/OneClickStudio/internal/health"
	"github.com/unalkalkan/OneClickStudio/internal/illustration"
	"github.com/unalkalkan/OneClickStudio/internal/media"
	"github.com/unalkalkan/OneClickStudio/internal/product"
	"github.com/unalkalkan/OneClickStudio/internal/provider"
	"github.com/unalkalkan/OneClickStudio/internal/video"
	"github.com/unalkalkan/OneClickStudio/pkg/types"
)

const apiBasePath = "/api/v1"

// Deps are the services the HTTP layer is wired to
type Deps struct {
	Version     string
	Config      *types.Config
	Health      *health.Handler
	Registry    *provider.Registry
	Model       provider.Model
	Classifier  *apierror.Classifier
	Keyring     *credential.Keyring
	Products    *product.Service
	Illustrator *illustration.Illustrator
	Media       *media.Client
	Videos      *video.Jobs
	Exporter    *export.Exporter
}

// NewRouter builds the HTTP handler for the whole service
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", d.Health.HealthHandler())
	r.Get("/health/live", d.Health.LivenessHandler())
	r.Get("/health/ready", d.Health.ReadinessHandler())

	products := &ProductHandler{service: d.Products, illustrator: d.Illustrator, media: d.Media, exporter: d.Exporter}
	studio := &StudioHandler{media: d.Media, videos: d.Videos}
	voices := NewVoicesHandler(d.Registry)
	creds := &CredentialHandler{keyring: d.Keyring}
	live := &LiveHandler{model: d.Model, classifier: d.Classifier, models: d.Config.Provider.Models, cfg: d.Config.Live}

	r.Route(apiBasePath, func(r chi.Router) {
		r.Get("/info", infoHandler(d))
		r.Get("/voices", voices.ListVoices)
		r.Get("/credential", creds.Get)
		r.Put("/credential", creds.Select)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.List)
			r.Post("/", products.Create)
			r.Route("/{productID}", func(r chi.Router) {
				r.Get("/", products.Get)
				r.Post("/cover", products.GenerateCover)
				r.Post("/cover/upload", products.UploadCover)
				r.Get("/illustrations", products.IllustrationStatus)
				r.Post("/illustrations", products.StartIllustrations)
				r.Delete("/illustrations", products.CancelIllustrations)
				r.Post("/sales-copy", products.RefineSalesCopy)
				r.Post("/narration", products.Narrate)
				r.Get("/export", products.Export)
			})
		})

		r.Route("/studio", func(r chi.Router) {
			r.Post("/images", studio.GenerateImage)
			r.Post("/edit", studio.EditImage)
			r.Post("/analyze", studio.AnalyzeImage)
			r.Post("/translate", studio.Translate)
			r.Post("/videos", studio.GenerateVideo)
			r.Post("/videos/extend", studio.ExtendVideo)
			r.Get("/videos/{jobID}", studio.GetVideo)
			r.Delete("/videos/{jobID}", studio.CancelVideo)
			r.Get("/live", live.ServeHTTP)
		})
	})

	return r
}

// requestLogger logs one line per request through zerolog
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Info().
				Str("component", "api").
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Msg("HTTP request")
		}()
		next.ServeHTTP(ww, r)
	})
}

type infoResponse struct {
	Version        string            `json:"version"`
	StorageAdapter string            `json:"storage_adapter"`
	Provider       string            `json:"provider"`
	Models         types.ModelConfig `json:"models"`
	Registered     []string          `json:"registered"`
}

func infoHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, infoResponse{
			Version:        d.Version,
			StorageAdapter: d.Config.Storage.Adapter,
			Provider:       d.Config.Provider.Name,
			Models:         d.Config.Provider.Models,
			Registered:     d.Registry.List(),
		}, http.StatusOK)
	}
}
