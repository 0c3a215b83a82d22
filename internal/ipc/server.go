package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"xcam/internal/api"
	"xcam/internal/daemon"
	"xcam/internal/logging"
	"xcam/internal/queue"
	"xcam/internal/registry"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("XCam", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually before the next start"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.DatabasePath = status.DatabasePath
	resp.LockPath = status.LockFilePath
	resp.ActionStats = api.MergeActionStats(status.ActionStats)
	resp.CameraStats = api.MergeCameraStats(status.CameraStats)
	resp.LastError = status.LastError
	resp.Workers = status.Workers
	resp.HandlerHealth = api.FromHandlerHealth(status.HandlerHealth)
	return nil
}

func (s *service) ActionAdd(req ActionAddRequest, resp *ActionAddResponse) error {
	action, err := s.daemon.EnqueueAction(s.ctx, req.Command, req.Additions)
	if err != nil {
		return err
	}
	resp.Item = api.FromAction(action)
	return nil
}

func (s *service) ActionList(req ActionListRequest, resp *ActionListResponse) error {
	statuses := make([]queue.Status, 0, len(req.Statuses))
	for _, status := range req.Statuses {
		parsed, ok := queue.ParseStatus(status)
		if !ok {
			return fmt.Errorf("unknown status %q", status)
		}
		statuses = append(statuses, parsed)
	}
	actions, err := s.daemon.ListActions(s.ctx, statuses)
	if err != nil {
		return err
	}
	resp.Items = api.FromActions(actions)
	return nil
}

func (s *service) ActionDescribe(req ActionDescribeRequest, resp *ActionDescribeResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid action id %d", req.ID)
	}
	action, err := s.daemon.GetAction(s.ctx, req.ID)
	if err != nil {
		return err
	}
	if action == nil {
		return fmt.Errorf("action %d not found", req.ID)
	}
	resp.Item = api.FromAction(action)
	return nil
}

func (s *service) ActionRetry(req ActionRetryRequest, resp *ActionRetryResponse) error {
	s.log().Debug("action retry requested", logging.Int("action_count", len(req.IDs)))
	updated, err := s.daemon.RetryFailed(s.ctx, req.IDs)
	if err != nil {
		return err
	}
	resp.Updated = updated
	s.log().Info("actions retried",
		logging.String(logging.FieldEventType, "action_retry"),
		logging.Int64("updated_count", updated))
	return nil
}

func (s *service) ActionClear(req ActionClearRequest, resp *ActionClearResponse) error {
	var (
		removed int64
		err     error
	)
	switch req.Scope {
	case "", "all":
		removed, err = s.daemon.ClearActions(s.ctx)
	case "done":
		removed, err = s.daemon.ClearDone(s.ctx)
	case "failed":
		removed, err = s.daemon.ClearFailed(s.ctx)
	default:
		return fmt.Errorf("unknown clear scope %q", req.Scope)
	}
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("actions cleared",
		logging.String(logging.FieldEventType, "action_clear"),
		logging.String("scope", req.Scope),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) ActionRemove(req ActionRemoveRequest, resp *ActionRemoveResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid action id %d", req.ID)
	}
	removed, err := s.daemon.RemoveAction(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Removed = removed
	return nil
}

func (s *service) ActionReset(_ ActionResetRequest, resp *ActionResetResponse) error {
	updated, err := s.daemon.ResetStuck(s.ctx)
	if err != nil {
		return err
	}
	resp.Updated = updated
	s.log().Info("in-flight actions reset",
		logging.String(logging.FieldEventType, "action_reset"),
		logging.Int64("updated_count", updated))
	return nil
}

func cameraFromRecord(record CameraRecord) registry.Camera {
	return registry.Camera{
		Name:       record.Name,
		IPAddress:  record.IPAddress,
		MACAddress: record.MACAddress,
		IPType:     record.IPType,
		Username:   record.Username,
		Password:   record.Password,
		Channel:    record.Channel,
		Status:     registry.Status(record.Status),
	}
}

func (s *service) CameraUpsert(req CameraUpsertRequest, resp *CameraUpsertResponse) error {
	stored, err := s.daemon.UpsertCamera(s.ctx, cameraFromRecord(req.Camera))
	if err != nil {
		return err
	}
	resp.Item = api.FromCamera(stored)
	return nil
}

func (s *service) CameraImport(req CameraImportRequest, resp *CameraImportResponse) error {
	cameras := make([]registry.Camera, 0, len(req.Cameras))
	for _, record := range req.Cameras {
		cameras = append(cameras, cameraFromRecord(record))
	}
	imported, err := s.daemon.ImportCameras(s.ctx, cameras)
	resp.Imported = imported
	if err != nil {
		return err
	}
	s.log().Info("cameras imported",
		logging.String(logging.FieldEventType, "camera_import"),
		logging.Int("imported_count", imported))
	return nil
}

func (s *service) CameraList(_ CameraListRequest, resp *CameraListResponse) error {
	cameras, err := s.daemon.ListCameras(s.ctx)
	if err != nil {
		return err
	}
	resp.Items = api.FromCameras(cameras)
	return nil
}

func (s *service) CameraDescribe(req CameraDescribeRequest, resp *CameraDescribeResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid camera id %d", req.ID)
	}
	camera, err := s.daemon.GetCamera(s.ctx, req.ID)
	if err != nil {
		return err
	}
	if camera == nil {
		return fmt.Errorf("camera %d not found", req.ID)
	}
	resp.Item = api.FromCamera(camera)
	return nil
}

func (s *service) CameraSetStatus(req CameraSetStatusRequest, resp *CameraSetStatusResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid camera id %d", req.ID)
	}
	status, ok := registry.ParseStatus(req.Status)
	if !ok {
		return fmt.Errorf("unknown camera status %q", req.Status)
	}
	if err := s.daemon.SetCameraStatus(s.ctx, req.ID, status); err != nil {
		return err
	}
	resp.Updated = true
	return nil
}

func (s *service) CameraRemove(req CameraRemoveRequest, resp *CameraRemoveResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid camera id %d", req.ID)
	}
	removed, err := s.daemon.RemoveCamera(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Removed = removed
	return nil
}

func (s *service) Scan(_ ScanRequest, resp *ScanResponse) error {
	s.log().Debug("manual scan requested")
	discovered, err := s.daemon.Scan(s.ctx)
	if err != nil {
		return err
	}
	resp.Discovered = discovered
	s.log().Info("manual scan finished",
		logging.String(logging.FieldEventType, "discovery_scan"),
		logging.Int("discovered_count", discovered))
	return nil
}

func (s *service) ActionHealth(_ ActionHealthRequest, resp *ActionHealthResponse) error {
	health, err := s.daemon.ActionHealth(s.ctx)
	if err != nil {
		return err
	}
	resp.Total = health.Total
	resp.Pending = health.Pending
	resp.InProgress = health.InProgress
	resp.Done = health.Done
	resp.Failed = health.Failed
	return nil
}

func (s *service) DatabaseHealth(_ DatabaseHealthRequest, resp *DatabaseHealthResponse) error {
	health, err := s.daemon.DatabaseHealth(s.ctx)
	if err != nil && health.Error == "" {
		return err
	}
	resp.DBPath = health.DBPath
	resp.DatabaseExists = health.DatabaseExists
	resp.DatabaseReadable = health.DatabaseReadable
	resp.TableExists = health.TableExists
	resp.ColumnsPresent = append(resp.ColumnsPresent, health.ColumnsPresent...)
	resp.MissingColumns = append(resp.MissingColumns, health.MissingColumns...)
	resp.IntegrityCheck = health.IntegrityCheck
	resp.TotalActions = health.TotalActions
	resp.Error = health.Error
	return err
}
