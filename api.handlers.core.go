package main

import (
	"bytes"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Statistics holds app stats for ops.
type Statistics struct {
	version   string
	container bool
	runtime   string
	platform  string
	called    uint64
	started   time.Time
	status    map[int]uint64
	mu        *sync.RWMutex
}

// Maintenance holds app maintenance mode infos.
type Maintenance struct {
	enabled atomic.Bool
	mu      sync.RWMutex
	message string
	started time.Time
}

// APIHandler defines the API handler.
type APIHandler struct {
	logger      *zap.Logger
	config      *Config
	stats       *Statistics
	mode        *Maintenance
	clock       Clocker
	idsHandler  UIDHandler
	metrics     *Metrics
	views       Renderer
	bookService BookServiceProvider
}

// NewAPIHandler provides a new instance of APIHandler.
func NewAPIHandler(
	logger *zap.Logger,
	config *Config,
	stats *Statistics,
	clock Clocker,
	idsHandler UIDHandler,
	metrics *Metrics,
	views Renderer,
	bs BookServiceProvider,
) *APIHandler {
	m := &Maintenance{}
	m.enabled.Store(false)
	stats.status = make(map[int]uint64)
	stats.mu = &sync.RWMutex{}
	return &APIHandler{
		logger:      logger,
		config:      config,
		stats:       stats,
		mode:        m,
		clock:       clock,
		idsHandler:  idsHandler,
		metrics:     metrics,
		views:       views,
		bookService: bs,
	}
}

// render builds the whole page before sending anything so a failing
// template never leaves a half written response behind.
func (api *APIHandler) render(w http.ResponseWriter, r *http.Request, status int, view string, data ViewData) {
	logger := api.GetLoggerFromContext(r.Context())
	data.RequestID = GetValueFromContext(r.Context(), RequestIDContextKey)

	var page bytes.Buffer
	if err := api.views.Render(&page, view, data); err != nil {
		logger.Error("failed to render view", zap.String("view", view), zap.Error(err))
		if !IsResponseWritten(w) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	if err := WriteHTMLResponse(r.Context(), w, status, page.Bytes()); err != nil {
		logger.Error("failed to send response", zap.String("view", view), zap.Error(err))
	}
}
