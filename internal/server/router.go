package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cronbeat/cronbeat/internal/heartbeat"
	"github.com/cronbeat/cronbeat/internal/lease"
	"github.com/cronbeat/cronbeat/internal/monitor"
	"github.com/cronbeat/cronbeat/internal/schedule"
	"github.com/cronbeat/cronbeat/internal/status"
)

// Router provides embeddable HTTP handlers for the monitoring protocol.
// Endpoints:
//   POST {basePath}/start        body: {"task_id": "...", "description": "..."}
//   POST {basePath}/complete     body: {"task_id": "..."}
//   GET  {basePath}/status       query: task=... (single) or none (all tasks)
//   GET  {basePath}/healthz
//   GET  {basePath}/metrics      Prometheus exposition
// basePath may be empty or start with '/'; no trailing slash.

type Router struct {
	mon      *monitor.Monitor
	reader   *status.Reader
	basePath string
}

// NewRouter constructs a new Router with configurable basePath.
// Example basePath: "/api" results in /api/start, /api/complete, /api/status.
func NewRouter(mon *monitor.Monitor, reader *status.Reader, basePath string) *Router {
	return &Router{mon: mon, reader: reader, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.POST("/start", r.handleStart)
	group.POST("/complete", r.handleComplete)
	group.GET("/status", r.handleStatus)
	group.GET("/healthz", r.handleHealthz)
	group.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
// Call Close or Shutdown on the returned server to stop it.
func NewServer(addr, basePath string, mon *monitor.Monitor, reader *status.Reader) (*http.Server, error) {
	r := NewRouter(mon, reader, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

type signalReq struct {
	TaskID      string `json:"task_id"`
	Description string `json:"description"`
}

func (r *Router) handleStart(c *gin.Context) {
	var req signalReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if req.TaskID == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "task_id required"})
		return
	}
	if !isSafeName(req.TaskID) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid task_id: allowed [A-Za-z0-9._-] and no '..' or path separators"})
		return
	}
	if err := r.mon.SignalStart(c.Request.Context(), req.TaskID, req.Description); err != nil {
		writeJSON(c, signalStatus(err), errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleComplete(c *gin.Context) {
	var req signalReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if req.TaskID == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "task_id required"})
		return
	}
	res, err := r.mon.SignalCompletion(c.Request.Context(), req.TaskID)
	if err != nil {
		writeJSON(c, signalStatus(err), errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, res)
}

func (r *Router) handleStatus(c *gin.Context) {
	task := c.Query("task")
	if task == "" {
		sts, err := r.reader.List(c.Request.Context())
		if err != nil {
			writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
			return
		}
		writeJSON(c, http.StatusOK, sts)
		return
	}
	st, err := r.reader.Get(c.Request.Context(), task)
	if err != nil {
		writeJSON(c, signalStatus(err), errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, st)
}

func (r *Router) handleHealthz(c *gin.Context) {
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

// signalStatus maps protocol errors onto HTTP codes: unknown task is 404,
// a violated record precondition is 409, everything else 400.
func signalStatus(err error) int {
	switch {
	case errors.Is(err, schedule.ErrNotFound), errors.Is(err, heartbeat.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, heartbeat.ErrRecordMissing), errors.Is(err, lease.ErrAlreadyRunning):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
