// Package httpapi is the delivery surface: the feed endpoint plus the
// health and metrics endpoints.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bantaypondo/news/internal/article"
	"github.com/bantaypondo/news/internal/datewindow"
	"github.com/bantaypondo/news/internal/engine"
	"github.com/bantaypondo/news/internal/logger"
	"github.com/bantaypondo/news/internal/metrics"
)

// Options clamp and default the paging parameters.
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
}

type Server struct {
	engine *engine.Engine
	opts   Options
}

func NewServer(e *engine.Engine, opts Options) *Server {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 20
	}
	if opts.MaxPageSize <= 0 || opts.MaxPageSize > 50 {
		opts.MaxPageSize = 50
	}
	return &Server{engine: e, opts: opts}
}

// Routes registers all handlers on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/news", s.handleNews)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/metrics", s.handleMetrics)
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, engine.Response{
			Status:   "error",
			Articles: []article.Article{},
			Error:    "method not allowed",
		})
		return
	}

	requestID := uuid.NewString()
	start := time.Now()

	req, err := s.parseRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, engine.Response{
			Status:   "error",
			Articles: []article.Article{},
			Error:    err.Error(),
		})
		return
	}

	outcome := s.engine.Aggregate(r.Context(), req)

	if outcome.Limited {
		d := outcome.Decision
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
		if !d.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(d.RetryAfter.Seconds())+1))
		}
	}

	logger.Info("news request",
		"request_id", requestID,
		"category", req.Category,
		"all", req.All,
		"results", outcome.Response.TotalResults,
		"status", outcome.HTTPStatus,
		"took_ms", time.Since(start).Milliseconds(),
	)
	writeJSON(w, outcome.HTTPStatus, outcome.Response)
}

// parseRequest validates the query parameters. Invalid dates are
// dropped, page and pageSize are clamped; only an unknown category
// rejects the request.
func (s *Server) parseRequest(r *http.Request) (engine.Request, error) {
	q := r.URL.Query()

	req := engine.Request{
		Query:    strings.TrimSpace(q.Get("q")),
		ClientID: clientIP(r),
	}

	rawCategory := strings.TrimSpace(q.Get("category"))
	switch {
	case rawCategory == "" || strings.EqualFold(rawCategory, "all"):
		req.All = true
	default:
		cat, ok := article.ParseCategory(rawCategory)
		if !ok {
			valid := make([]string, 0, 5)
			valid = append(valid, "all")
			for _, c := range article.Categories() {
				valid = append(valid, string(c))
			}
			return engine.Request{}, fmt.Errorf("unknown category %q, valid values: %s", rawCategory, strings.Join(valid, ", "))
		}
		req.Category = cat
	}

	// Invalid from/to are dropped, not rejected.
	if raw := q.Get("from"); raw != "" {
		if _, ok := article.ParseDate(raw); ok {
			req.From = raw
		}
	}
	if raw := q.Get("to"); raw != "" {
		if _, ok := article.ParseDate(raw); ok {
			req.To = raw
		}
	}
	req.Window = datewindow.Parse(req.From, req.To)

	req.Page = 1
	if raw := q.Get("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page >= 1 {
			req.Page = page
		}
	}

	req.PageSize = s.opts.DefaultPageSize
	if raw := q.Get("pageSize"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil {
			req.PageSize = size
		}
	}
	if req.PageSize < 1 {
		req.PageSize = 1
	}
	if req.PageSize > s.opts.MaxPageSize {
		req.PageSize = s.opts.MaxPageSize
	}

	return req, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	code := http.StatusOK
	if !stats["is_healthy"].(bool) {
		status = "error"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metrics.Global.GetStats())
}

// clientIP prefers the first X-Forwarded-For hop, since the engine
// normally sits behind a proxy.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "error", err)
	}
}
