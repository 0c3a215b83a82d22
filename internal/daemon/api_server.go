package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"xcam/internal/api"
	"xcam/internal/config"
	"xcam/internal/logging"
	"xcam/internal/queue"
)

type apiServer struct {
	bind      string
	token     string
	logger    *slog.Logger
	daemon    *Daemon
	actionSvc *api.ActionService
	cameraSvc *api.CameraService

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:      bind,
		token:     strings.TrimSpace(cfg.Paths.APIToken),
		logger:    logger,
		daemon:    d,
		actionSvc: api.NewActionService(d.store),
		cameraSvc: api.NewCameraService(d.cameras),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(srv.token, srv.handleStatus))
	mux.HandleFunc("/api/actions", authMiddleware(srv.token, srv.handleActions))
	mux.HandleFunc("/api/actions/retry", authMiddleware(srv.token, srv.handleActionRetry))
	mux.HandleFunc("/api/actions/", authMiddleware(srv.token, srv.handleAction))
	mux.HandleFunc("/api/cameras", authMiddleware(srv.token, srv.handleCameras))
	mux.HandleFunc("/api/cameras/", authMiddleware(srv.token, srv.handleCamera))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// addr returns the bound listen address, empty before start.
func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		DatabasePath: status.DatabasePath,
		LockFilePath: status.LockFilePath,
		Cameras:      api.MergeCameraStats(status.CameraStats),
		Dispatcher: api.DispatcherStatus{
			Running:       status.Running,
			Workers:       status.Workers,
			ActionStats:   api.MergeActionStats(status.ActionStats),
			LastError:     status.LastError,
			HandlerHealth: api.FromHandlerHealth(status.HandlerHealth),
		},
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var statuses []queue.Status
	for _, value := range r.URL.Query()["status"] {
		parsed, ok := queue.ParseStatus(strings.TrimSpace(value))
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", value))
			return
		}
		statuses = append(statuses, parsed)
	}

	items, err := s.actionSvc.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ActionListResponse{Items: items})
}

func (s *apiServer) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id, ok := trailingID(r.URL.Path, "/api/actions/")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid action id")
		return
	}
	item, err := s.actionSvc.Describe(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if item == nil {
		s.writeError(w, http.StatusNotFound, "action not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.ActionResponse{Item: *item})
}

func (s *apiServer) handleActionRetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		updated, err := s.daemon.RetryFailed(r.Context(), nil)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.RetryActionsResult{UpdatedCount: updated, Items: []api.RetryActionResult{}})
		return
	}
	svc := actionRetryBackend{actions: s.actionSvc, daemon: s.daemon}
	result, err := api.RetryFailedActionsByID(r.Context(), svc, req.IDs)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// actionRetryBackend adapts the daemon and action service to the retry flow.
type actionRetryBackend struct {
	actions *api.ActionService
	daemon  *Daemon
}

func (b actionRetryBackend) Describe(ctx context.Context, id int64) (*api.ActionView, error) {
	return b.actions.Describe(ctx, id)
}

func (b actionRetryBackend) Retry(ctx context.Context, ids []int64) (int64, error) {
	return b.daemon.RetryFailed(ctx, ids)
}

func (s *apiServer) handleCameras(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	items, err := s.cameraSvc.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.CameraListResponse{Items: items})
}

func (s *apiServer) handleCamera(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id, ok := trailingID(r.URL.Path, "/api/cameras/")
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid camera id")
		return
	}
	item, err := s.cameraSvc.Describe(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if item == nil {
		s.writeError(w, http.StatusNotFound, "camera not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.CameraResponse{Item: *item})
}

func trailingID(path, prefix string) (int64, bool) {
	idStr := strings.TrimPrefix(path, prefix)
	if idStr == "" || strings.Contains(idStr, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
