package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/flow"
	"github.com/vk/flowgrid/internal/graph"
	"github.com/vk/flowgrid/internal/hclflow"
	"github.com/vk/flowgrid/internal/scheduler"
	"github.com/vk/flowgrid/internal/settings"
	"github.com/vk/flowgrid/internal/yamlflow"
)

// maxFlowBytes bounds the size of a flow posted to /runs.
const maxFlowBytes = 1 << 20

// Handler returns the HTTP API.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", a.healthHandler)
	r.Method(http.MethodGet, "/metrics", a.metrics.Handler())
	r.Get("/components", a.componentsHandler)
	r.Get("/settings", a.listSettingsHandler)
	r.Put("/settings/{name}", a.putSettingHandler)
	r.Post("/runs", a.runHandler)
	return r
}

// Serve runs the HTTP API until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	if a.config.HTTPPort <= 0 {
		return errors.New("http port must be set to serve")
	}
	errCh := a.startServer(ctx)
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return a.closeServer(context.WithoutCancel(ctx))
	}
}

// startServer runs the HTTP server in a goroutine. The returned channel
// receives an unexpected listener error.
func (a *App) startServer(ctx context.Context) <-chan error {
	logger := ctxlog.FromContext(ctx)
	addr := fmt.Sprintf(":%d", a.config.HTTPPort)
	a.httpServer = &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("🩺 HTTP server starting", "address", fmt.Sprintf("http://localhost%s", addr))
		// ListenAndServe returns ErrServerClosed on graceful shutdown.
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed unexpectedly", "error", err)
			errCh <- err
		}
	}()
	return errCh
}

func (a *App) closeServer(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	if a.httpServer == nil {
		logger.Debug("HTTP server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	logger.Info("🩺 Shutting down HTTP server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
		return err
	}
	logger.Debug("HTTP server shut down gracefully.")
	return nil
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (a *App) componentsHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := a.catalog.Snapshot(a.requestContext(r))
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	a.writeJSON(w, http.StatusOK, snap)
}

func (a *App) listSettingsHandler(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.settings.All())
}

type settingRequest struct {
	Value string `json:"value"`
}

func (a *App) putSettingHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req settingRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFlowBytes)).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if err := a.settings.Set(a.requestContext(r), name, req.Value); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, settings.ErrUnknown) {
			status = http.StatusNotFound
		}
		a.writeError(w, status, err)
		return
	}
	a.writeJSON(w, http.StatusOK, a.settings.All())
}

// runHandler executes a posted flow. HCL bodies are recognised by their
// content type; anything else is decoded as YAML, which covers JSON.
func (a *App) runHandler(w http.ResponseWriter, r *http.Request) {
	ctx := a.requestContext(r)

	src, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFlowBytes))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read request body: %w", err))
		return
	}

	var def *flow.Definition
	if strings.Contains(r.Header.Get("Content-Type"), "hcl") {
		def, err = hclflow.Parse("request.hcl", src)
	} else {
		def, err = yamlflow.Parse("request", src)
	}
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}

	g, err := graph.Build(ctx, def, a.registry)
	if err != nil {
		a.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	res, err := a.scheduler.Run(ctx, g)
	var stalled *scheduler.StalledPropagationError
	if errors.As(err, &stalled) {
		a.writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error(), "result": res})
		return
	}
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	a.writeJSON(w, http.StatusOK, res)
}

func (a *App) requestContext(r *http.Request) context.Context {
	return ctxlog.WithLogger(r.Context(), a.logger.With("request_id", middleware.GetReqID(r.Context())))
}

func (a *App) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error("Failed to encode response.", "error", err)
	}
}

func (a *App) writeError(w http.ResponseWriter, status int, err error) {
	a.logger.Debug("Request failed.", "status", status, "error", err)
	a.writeJSON(w, status, map[string]string{"error": err.Error()})
}
