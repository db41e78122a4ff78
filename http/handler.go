package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ptrevino/mediashelf"
)

// streamChunkSize is the copy buffer for the streaming loop. Each full
// buffer is flushed before the next read so at most this much of an
// object is ever held in memory per session.
const streamChunkSize = 32 * 1024

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type Config struct {
	CORS CORSConfig

	// MetadataTimeout bounds the HEAD probe before streaming starts.
	MetadataTimeout time.Duration
	// FetchTimeout bounds data handle acquisition (the GET round-trip,
	// not the transfer).
	FetchTimeout time.Duration
	// IdleTimeout is how long a stream may move no bytes before the
	// watchdog kills it.
	IdleTimeout time.Duration
	// WatchdogInterval is how often the watchdog checks for idleness.
	WatchdogInterval time.Duration

	// PresignTTL is the default validity of minted URLs; PresignMaxTTL
	// caps what a request may ask for.
	PresignTTL    time.Duration
	PresignMaxTTL time.Duration

	// Registry receives the gateway metrics. A nil Registry gets a
	// private one, which keeps tests isolated.
	Registry *prometheus.Registry
}

func (c *Config) applyDefaults() {
	if c.MetadataTimeout <= 0 {
		c.MetadataTimeout = 5 * time.Second
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.WatchdogInterval <= 0 {
		c.WatchdogInterval = 15 * time.Second
	}
	if c.PresignTTL <= 0 {
		c.PresignTTL = 15 * time.Minute
	}
	if c.PresignMaxTTL <= 0 {
		c.PresignMaxTTL = 24 * time.Hour
	}
	if c.Registry == nil {
		c.Registry = prometheus.NewRegistry()
	}
}

// Handler provides the HTTP surface of the streaming gateway.
type Handler struct {
	cfg     Config
	store   mediashelf.ObjectStore
	metrics *Metrics
}

// NewHandler creates a Handler serving objects from store. A nil store is
// allowed; media and presign routes then answer 503 so the process can
// come up before its backing store does.
func NewHandler(config *Config, store mediashelf.ObjectStore) (*Handler, error) {
	cfg := *config
	cfg.applyDefaults()

	m, err := NewMetrics(cfg.Registry)
	if err != nil {
		return nil, err
	}

	return &Handler{
		cfg:     cfg,
		store:   store,
		metrics: m,
	}, nil
}

// Router returns the gateway's route tree. Media routes are GET only;
// any other verb on them answers 405.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if h.cfg.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.cfg.CORS.AllowedOrigins,
			AllowedMethods: h.cfg.CORS.AllowedMethods,
			AllowedHeaders: h.cfg.CORS.AllowedHeaders,
			// Range responses are useless to a browser client that
			// cannot read these.
			ExposedHeaders:   appendMissing(h.cfg.CORS.ExposedHeaders, "Content-Range", "Accept-Ranges", "Content-Length"),
			AllowCredentials: h.cfg.CORS.AllowCredentials,
			MaxAge:           h.cfg.CORS.MaxAge,
		}))
	}

	r.Use(Observe(h.metrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.cfg.Registry, promhttp.HandlerOpts{}))

	for _, ns := range mediashelf.Namespaces() {
		r.Get("/media/"+string(ns)+"/*", h.handleMedia(ns))
	}

	r.Post("/presign/upload", h.handlePresignUpload)
	r.Post("/presign/download", h.handlePresignDownload)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, "not_found", "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	return r
}

// appendMissing adds each value not already present, case-insensitively.
func appendMissing(have []string, values ...string) []string {
	out := append([]string(nil), have...)
	for _, v := range values {
		found := false
		for _, h := range have {
			if strings.EqualFold(h, v) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, v)
		}
	}
	return out
}

// PresignRequest asks for a time-limited direct-to-store URL.
type PresignRequest struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type,omitempty"`
	TTLSeconds  int    `json:"ttl_seconds,omitempty"`
}

// PresignResponse carries the minted URL and its validity window.
type PresignResponse struct {
	URL              string `json:"url"`
	Method           string `json:"method"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

// decodePresign validates a presign request body and resolves its TTL.
// Keys get the same validation as media routes: a request for a key no
// media route would serve is refused before the store is involved.
func (h *Handler) decodePresign(w http.ResponseWriter, r *http.Request) (PresignRequest, time.Duration, bool) {
	if h.store == nil {
		WriteError(w, http.StatusServiceUnavailable, "store_unavailable", "No object store configured")
		return PresignRequest{}, 0, false
	}

	var req PresignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return PresignRequest{}, 0, false
	}

	ns, ok := mediashelf.KeyNamespace(req.Key)
	if !ok || !mediashelf.ValidKey(req.Key, ns) {
		WriteError(w, http.StatusBadRequest, "invalid_key", "Invalid storage key")
		return PresignRequest{}, 0, false
	}

	ttl := h.cfg.PresignTTL
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}
	if ttl < time.Minute {
		ttl = time.Minute
	}
	if ttl > h.cfg.PresignMaxTTL {
		ttl = h.cfg.PresignMaxTTL
	}

	return req, ttl, true
}

func (h *Handler) handlePresignUpload(w http.ResponseWriter, r *http.Request) {
	req, ttl, ok := h.decodePresign(w, r)
	if !ok {
		return
	}

	url, err := h.store.PresignUpload(r.Context(), req.Key, req.ContentType, ttl)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, PresignResponse{
		URL:              url,
		Method:           http.MethodPut,
		ExpiresInSeconds: int(ttl.Seconds()),
	})
}

func (h *Handler) handlePresignDownload(w http.ResponseWriter, r *http.Request) {
	req, ttl, ok := h.decodePresign(w, r)
	if !ok {
		return
	}

	exists, err := h.store.Exists(r.Context(), req.Key)
	if err != nil {
		HandleError(w, err)
		return
	}
	if !exists {
		HandleError(w, mediashelf.ErrNotFound)
		return
	}

	url, err := h.store.PresignDownload(r.Context(), req.Key, ttl)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, PresignResponse{
		URL:              url,
		Method:           http.MethodGet,
		ExpiresInSeconds: int(ttl.Seconds()),
	})
}
