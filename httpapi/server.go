// Package httpapi implements the engine's HTTP surface: POST /process,
// GET /metrics, GET /healthz. The request-loop shape (context plumbing,
// deadline honoring, panic recovery wrapper) is re-expressed over plain
// net/http instead of gRPC/Flight.
package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/feathr-ai/feathr-online/internal/recovery"
	"github.com/feathr-ai/feathr-online/jsonvalue"
	"github.com/feathr-ai/feathr-online/metrics"
	"github.com/feathr-ai/feathr-online/pipeline"
)

// Server wires a pipeline.Executor and a metrics.Registry to net/http
// handlers. The zero value is not usable; build one with NewServer.
type Server struct {
	executor *pipeline.Executor
	metrics  *metrics.Registry
	caches   []metrics.CacheSource
	logger   *slog.Logger

	// RequestTimeout bounds how long one /process call may run before its
	// context is cancelled. Zero means no server-imposed
	// deadline beyond the client's own.
	RequestTimeout time.Duration
}

// NewServer builds a Server. A nil logger falls back to slog.Default().
func NewServer(executor *pipeline.Executor, reg *metrics.Registry, caches []metrics.CacheSource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{executor: executor, metrics: reg, caches: caches, logger: logger}
}

// Handler returns the net/http.Handler exposing all three endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /process", s.handleProcess)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return mux
}

type processRequest struct {
	Pipeline string         `json:"pipeline"`
	Data     map[string]any `json:"data"`
}

type processBody struct {
	Requests []processRequest `json:"requests"`
}

type apiResult struct {
	Status   string                `json:"status"`
	Count    int                   `json:"count,omitempty"`
	Data     []map[string]any      `json:"data,omitempty"`
	Pipeline string                `json:"pipeline"`
	Errors   []pipeline.ErrorEntry `json:"errors,omitempty"`
	TimeMs   float64               `json:"time"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	s.metrics.IncRequests()

	ctx := r.Context()
	if s.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.RequestTimeout)
		defer cancel()
	}

	raw, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, "failed to read request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	var body processBody
	if err := jsonvalue.Unmarshal(raw, &body); err != nil {
		http.Error(w, "malformed request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	results := make([]apiResult, len(body.Requests))
	for i, req := range body.Requests {
		results[i] = s.runOne(ctx, req)
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) runOne(ctx context.Context, req processRequest) apiResult {
	start := time.Now()
	elapsed := func() float64 { return float64(time.Since(start)) / float64(time.Millisecond) }

	result, err := recovery.RecoverToValue(s.logger, "pipeline:"+req.Pipeline, func() (pipeline.Result, error) {
		row := jsonvalue.DecodeRow(req.Data)
		return s.executor.Run(ctx, req.Pipeline, row, elapsed), nil
	})
	if err != nil {
		return apiResult{Status: string(pipeline.StatusError), Pipeline: req.Pipeline, TimeMs: elapsed()}
	}

	s.metrics.ObservePipelineLatency(req.Pipeline, int64(time.Since(start)))
	if result.Status == pipeline.StatusError {
		s.logger.Error("pipeline failed", "pipeline", req.Pipeline, "reason", result.Failure())
	}
	return toAPIResult(result)
}

func toAPIResult(r pipeline.Result) apiResult {
	var data []map[string]any
	if len(r.Data) > 0 {
		data = make([]map[string]any, len(r.Data))
		for i, row := range r.Data {
			data[i] = jsonvalue.EncodeRow(row)
		}
	}
	return apiResult{
		Status:   string(r.Status),
		Count:    r.Count,
		Data:     data,
		Pipeline: r.Pipeline,
		Errors:   r.Errors,
		TimeMs:   r.TimeMs,
	}
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.metrics.Render(s.caches)))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := jsonvalue.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
