// Package api serves avatars, metadata and share links over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"solana-avatar-lab/internal/balance"
	"solana-avatar-lab/internal/domain"
	"solana-avatar-lab/internal/feed"
	"solana-avatar-lab/internal/metadata"
	"solana-avatar-lab/internal/observability"
	"solana-avatar-lab/internal/raster"
	"solana-avatar-lab/internal/render"
	"solana-avatar-lab/internal/storage"
)

// Rasterizer converts an SVG document to PNG.
type Rasterizer interface {
	Rasterize(doc []byte, density float64) ([]byte, error)
}

// EventRecorder receives one event per served render.
type EventRecorder interface {
	Record(e *domain.RenderEvent)
}

// Options contains configuration for creating a Server.
type Options struct {
	Tier    render.Renderer // backs /api/avatar and the metadata image
	Classic render.Renderer // backs /api/classic
	Blob    render.Renderer // backs /api/blob

	Rasterizer    Rasterizer
	RasterDensity float64 // Default: raster.BaseDensity

	Balance       balance.Provider // Default: balance.Static{}
	AllowOverride bool             // accept ?balance= on image and metadata routes

	ShareLinks storage.ShareLinkStore
	Events     storage.RenderEventStore // read by /status; nil omits totals
	Recorder   EventRecorder            // nil disables render events
	Feed       *feed.Hub                // nil disables /ws/feed

	Brand       render.Brand
	Metadata    metadata.Options
	CORSOrigins []string
	CacheSize   int // Default: 1024 rendered outputs
	Logger      *slog.Logger
	Now         func() time.Time
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	routes        map[string]imageRoute
	rasterizer    Rasterizer
	density       float64
	balance       balance.Provider
	allowOverride bool
	shares        storage.ShareLinkStore
	events        storage.RenderEventStore
	recorder      EventRecorder
	feed          *feed.Hub
	brand         render.Brand
	meta          metadata.Options
	corsOrigins   []string
	cache         *lru.Cache[renderKey, cachedRender]
	fallback      []byte
	logger        *slog.Logger
	now           func() time.Time
	started       time.Time
}

// imageRoute binds a renderer to an endpoint. Balance-blind renderers skip the
// balance lookup so their outputs share one cache entry per address.
type imageRoute struct {
	renderer     render.Renderer
	balanceAware bool
}

// New creates a Server.
func New(opts Options) (*Server, error) {
	if opts.Tier == nil || opts.Classic == nil || opts.Blob == nil {
		return nil, errors.New("api: tier, classic and blob renderers are required")
	}
	if opts.Rasterizer == nil {
		return nil, errors.New("api: rasterizer is required")
	}
	if opts.ShareLinks == nil {
		return nil, errors.New("api: share link store is required")
	}

	density := opts.RasterDensity
	if density <= 0 {
		density = raster.BaseDensity
	}

	provider := opts.Balance
	if provider == nil {
		provider = balance.Static{}
	}

	cacheSize := opts.CacheSize
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, err := lru.New[renderKey, cachedRender](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("api: create output cache: %w", err)
	}

	brand := opts.Brand
	if brand.Name == "" {
		brand = render.DefaultBrand
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Server{
		routes: map[string]imageRoute{
			opts.Tier.Name():    {renderer: opts.Tier, balanceAware: true},
			opts.Classic.Name(): {renderer: opts.Classic, balanceAware: false},
			opts.Blob.Name():    {renderer: opts.Blob, balanceAware: true},
		},
		rasterizer:    opts.Rasterizer,
		density:       density,
		balance:       provider,
		allowOverride: opts.AllowOverride,
		shares:        opts.ShareLinks,
		events:        opts.Events,
		recorder:      opts.Recorder,
		feed:          opts.Feed,
		brand:         brand,
		meta:          opts.Metadata,
		corsOrigins:   opts.CORSOrigins,
		cache:         cache,
		fallback:      render.Fallback(brand),
		logger:        logger,
		now:           now,
		started:       now(),
	}, nil
}

// Handler returns the full HTTP handler: CORS around the router.
func (s *Server) Handler() http.Handler {
	router := httprouter.New()
	router.PanicHandler = s.handlePanic
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	router.GET("/api/avatar/:file", s.handleImage("tier"))
	router.GET("/api/classic/:file", s.handleImage("classic"))
	router.GET("/api/blob/:file", s.handleImage("blob"))
	router.GET("/api/metadata/:address", s.handleMetadata)
	router.GET("/api/identity/:address", s.handleIdentity)
	router.GET("/api/tier", s.handleTier)
	router.GET("/api/renders/:address", s.handleRenders)
	router.POST("/api/share/:address", s.handleCreateShare)
	router.GET("/s/:id", s.handleShareRedirect)
	if s.feed != nil {
		router.Handler(http.MethodGet, "/ws/feed", s.feed)
	}

	router.GET("/health", s.handleHealth)
	router.GET("/status", s.handleStatus)
	router.Handler(http.MethodGet, "/metrics", observability.Handler())

	return s.cors().Handler(router)
}

// OpsHandler returns health, metrics and status only, for a separate listener.
func (s *Server) OpsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { s.handleHealth(w, r, nil) })
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) { s.handleStatus(w, r, nil) })
	return mux
}

func (s *Server) cors() *cors.Cors {
	origins := s.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"ETag"},
		MaxAge:         600,
	})
}

// handlePanic serves the fallback image so clients always get something to show.
func (s *Server) handlePanic(w http.ResponseWriter, r *http.Request, p interface{}) {
	observability.RecordPanic()
	s.logger.Error("handler panic", "method", r.Method, "path", r.URL.Path, "panic", fmt.Sprint(p))
	s.writeFallback(w)
}

func (s *Server) writeFallback(w http.ResponseWriter) {
	w.Header().Set("Content-Type", render.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write(s.fallback)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
