package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/annotext/annotation-platform/internal/annotator"
	"github.com/annotext/annotation-platform/internal/annotator/cache"
	"github.com/annotext/annotation-platform/internal/dictionary"
	"github.com/annotext/annotation-platform/internal/matcher"
	"github.com/annotext/annotation-platform/pkg/config"
	apperrors "github.com/annotext/annotation-platform/pkg/errors"
	"github.com/annotext/annotation-platform/pkg/logger"
	"github.com/annotext/annotation-platform/pkg/metrics"
	"github.com/annotext/annotation-platform/pkg/middleware"
)

type annotateTextRequest struct {
	Dictionary string `json:"dictionary"`
	Text       string `json:"text"`
}

type annotateTokensRequest struct {
	Dictionary string   `json:"dictionary"`
	Tokens     []string `json:"tokens"`
	// AsText switches to reconstructed-text matching: offsets come back in
	// the rebuilt text's character coordinates rather than token indices.
	AsText bool `json:"as_text"`
}

type annotateLabeledRequest struct {
	Dictionary string                 `json:"dictionary"`
	Tokens     []matcher.LabeledToken `json:"tokens"`
}

type annotateResponse struct {
	Dictionary string                   `json:"dictionary"`
	Mode       string                   `json:"mode"`
	Matches    []matcher.OffsetPosition `json:"matches"`
	Count      int                      `json:"count"`
	LatencyMs  int64                    `json:"latency_ms"`
}

type Handler struct {
	registry  *dictionary.Registry
	cache     *cache.AnnotationCache
	collector *annotator.Collector
	metrics   *metrics.Metrics
	cfg       config.AnnotatorConfig
	logger    *slog.Logger
}

func New(reg *dictionary.Registry, annCache *cache.AnnotationCache, collector *annotator.Collector, m *metrics.Metrics, cfg config.AnnotatorConfig) *Handler {
	return &Handler{
		registry:  reg,
		cache:     annCache,
		collector: collector,
		metrics:   m,
		cfg:       cfg,
		logger:    slog.Default().With("component", "annotate-handler"),
	}
}

// AnnotateText matches a dictionary against raw text, returning character
// offsets. Results are cached when a cache is configured.
func (h *Handler) AnnotateText(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req annotateTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.countRequest("text", "bad_request")
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if h.cfg.MaxTextBytes > 0 && len(req.Text) > h.cfg.MaxTextBytes {
		h.countRequest("text", "bad_request")
		h.writeError(w, http.StatusBadRequest, "text exceeds size limit")
		return
	}
	m, err := h.registry.Matcher(req.Dictionary)
	if err != nil {
		h.countRequest("text", "unknown_dictionary")
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}

	var matches []matcher.OffsetPosition
	cacheHit := false
	if h.cache != nil {
		matches, cacheHit = h.cache.GetOrCompute(ctx, req.Dictionary, req.Text, func() []matcher.OffsetPosition {
			return m.Match(req.Text)
		})
	} else {
		matches = m.Match(req.Text)
	}

	latencyMs := time.Since(start).Milliseconds()
	log.Info("text annotated",
		"dictionary", req.Dictionary,
		"text_bytes", len(req.Text),
		"matches", len(matches),
		"cache_hit", cacheHit,
		"latency_ms", latencyMs,
	)
	h.observe("text", start, len(matches))
	h.track(ctx, req.Dictionary, "text", len(matches), latencyMs, h.cache != nil, cacheHit)
	h.writeJSON(w, http.StatusOK, h.response(req.Dictionary, "text", matches, latencyMs))
}

// AnnotateTokens matches a dictionary against a pre-tokenized input,
// returning inclusive token indices, or reconstructed-text character
// offsets when as_text is set.
func (h *Handler) AnnotateTokens(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req annotateTokensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.countRequest("tokens", "bad_request")
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if h.cfg.MaxTokens > 0 && len(req.Tokens) > h.cfg.MaxTokens {
		h.countRequest("tokens", "bad_request")
		h.writeError(w, http.StatusBadRequest, "token count exceeds limit")
		return
	}
	m, err := h.registry.Matcher(req.Dictionary)
	if err != nil {
		h.countRequest("tokens", "unknown_dictionary")
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}

	mode := "tokens"
	var matches []matcher.OffsetPosition
	if req.AsText {
		mode = "tokens_as_text"
		matches = m.MatchTokensAsText(req.Tokens)
	} else {
		matches = m.MatchTokens(req.Tokens)
	}

	latencyMs := time.Since(start).Milliseconds()
	log.Info("tokens annotated",
		"dictionary", req.Dictionary,
		"tokens", len(req.Tokens),
		"mode", mode,
		"matches", len(matches),
		"latency_ms", latencyMs,
	)
	h.observe(mode, start, len(matches))
	h.track(ctx, req.Dictionary, mode, len(matches), latencyMs, false, false)
	h.writeJSON(w, http.StatusOK, h.response(req.Dictionary, mode, matches, latencyMs))
}

// AnnotateLabeled matches against token/label pairs, ignoring labels.
func (h *Handler) AnnotateLabeled(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req annotateLabeledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.countRequest("labeled", "bad_request")
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if h.cfg.MaxTokens > 0 && len(req.Tokens) > h.cfg.MaxTokens {
		h.countRequest("labeled", "bad_request")
		h.writeError(w, http.StatusBadRequest, "token count exceeds limit")
		return
	}
	m, err := h.registry.Matcher(req.Dictionary)
	if err != nil {
		h.countRequest("labeled", "unknown_dictionary")
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}

	matches := m.MatchLabeledTokens(req.Tokens)
	latencyMs := time.Since(start).Milliseconds()
	log.Info("labeled tokens annotated",
		"dictionary", req.Dictionary,
		"tokens", len(req.Tokens),
		"matches", len(matches),
		"latency_ms", latencyMs,
	)
	h.observe("labeled", start, len(matches))
	h.track(ctx, req.Dictionary, "labeled", len(matches), latencyMs, false, false)
	h.writeJSON(w, http.StatusOK, h.response(req.Dictionary, "labeled", matches, latencyMs))
}

// Dictionaries lists the loaded dictionaries and their term counts.
func (h *Handler) Dictionaries(w http.ResponseWriter, r *http.Request) {
	counts := h.registry.TermCounts()
	type info struct {
		Name  string `json:"name"`
		Terms int    `json:"terms"`
	}
	dicts := make([]info, 0, len(counts))
	for _, name := range h.registry.Names() {
		dicts = append(dicts, info{Name: name, Terms: counts[name]})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"dictionaries": dicts})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": hitRate,
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) response(dict, mode string, matches []matcher.OffsetPosition, latencyMs int64) annotateResponse {
	if matches == nil {
		matches = []matcher.OffsetPosition{}
	}
	return annotateResponse{
		Dictionary: dict,
		Mode:       mode,
		Matches:    matches,
		Count:      len(matches),
		LatencyMs:  latencyMs,
	}
}

func (h *Handler) observe(mode string, start time.Time, matches int) {
	if h.metrics == nil {
		return
	}
	h.metrics.AnnotateRequestsTotal.WithLabelValues(mode, "ok").Inc()
	h.metrics.AnnotateLatency.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	h.metrics.MatchesPerRequest.Observe(float64(matches))
}

func (h *Handler) countRequest(mode, status string) {
	if h.metrics != nil {
		h.metrics.AnnotateRequestsTotal.WithLabelValues(mode, status).Inc()
	}
}

// eventTypeFor picks the analytics event type for one request. cached says
// whether a cache lookup happened at all; a consulted cache that did not hit
// is reported as a miss, taking precedence over zero_match.
func eventTypeFor(cached, cacheHit bool, matches int) annotator.EventType {
	switch {
	case cacheHit:
		return annotator.EventCacheHit
	case cached:
		return annotator.EventCacheMiss
	case matches == 0:
		return annotator.EventZeroMatch
	default:
		return annotator.EventAnnotate
	}
}

func (h *Handler) track(ctx context.Context, dictionary, mode string, matches int, latencyMs int64, cached, cacheHit bool) {
	if h.collector == nil {
		return
	}
	h.collector.Track(annotator.AnnotateEvent{
		Type:       eventTypeFor(cached, cacheHit, matches),
		Dictionary: dictionary,
		Mode:       mode,
		Matches:    matches,
		LatencyMs:  latencyMs,
		CacheHit:   cacheHit,
		Timestamp:  time.Now().UTC(),
		RequestID:  middleware.GetRequestID(ctx),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
