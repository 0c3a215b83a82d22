package registry

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"xcam/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current camera schema version.
const schemaVersion = 1

// schemaComponent keys this package's row in the shared schema_version table.
const schemaComponent = "cameras"

// Store manages camera persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the camera registry database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath connects to the camera registry at an explicit database path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_version (
            component TEXT PRIMARY KEY,
            version INTEGER NOT NULL
        )`,
	); err != nil {
		return fmt.Errorf("ensure schema_version table: %w", err)
	}

	var version int
	err := s.db.QueryRowContext(ctx,
		"SELECT version FROM schema_version WHERE component = ?", schemaComponent,
	).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return s.createSchema(ctx)
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	}

	if version != schemaVersion {
		return fmt.Errorf("camera schema version mismatch: database has %d, expected %d (delete the database to rebuild)",
			version, schemaVersion)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create camera schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_version (component, version) VALUES (?, ?)",
		schemaComponent, schemaVersion,
	); err != nil {
		return fmt.Errorf("record camera schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit camera schema: %w", err)
	}
	return nil
}

const cameraColumns = "id, cam_name, ip_address, mac_address, ip_type, username, password, channel, status, created_at, updated_at"

func scanCamera(scanner interface{ Scan(dest ...any) error }) (*Camera, error) {
	var (
		camera     Camera
		statusStr  string
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&camera.ID,
		&camera.Name,
		&camera.IPAddress,
		&camera.MACAddress,
		&camera.IPType,
		&camera.Username,
		&camera.Password,
		&camera.Channel,
		&statusStr,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	camera.Status = Status(statusStr)
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		camera.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		camera.UpdatedAt = updated
	}
	return &camera, nil
}

// Resolve fetches a camera by row id. Returns nil when absent.
func (s *Store) Resolve(ctx context.Context, id int64) (*Camera, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+cameraColumns+` FROM xcam_cameras WHERE id = ?`, id)
	camera, err := scanCamera(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve camera: %w", err)
	}
	return camera, nil
}

// ResolveByMAC fetches a camera by MAC address. Returns nil when absent.
func (s *Store) ResolveByMAC(ctx context.Context, mac string) (*Camera, error) {
	normalized, err := NormalizeMAC(mac)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+cameraColumns+` FROM xcam_cameras WHERE mac_address = ?`, normalized)
	camera, err := scanCamera(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve camera by mac: %w", err)
	}
	return camera, nil
}

// List returns every registered camera ordered by name.
func (s *Store) List(ctx context.Context) ([]*Camera, error) {
	return s.list(ctx, "")
}

// ListActive returns cameras eligible for dispatch.
func (s *Store) ListActive(ctx context.Context) ([]*Camera, error) {
	return s.list(ctx, StatusActive)
}

func (s *Store) list(ctx context.Context, status Status) ([]*Camera, error) {
	query := `SELECT ` + cameraColumns + ` FROM xcam_cameras`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY cam_name, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cameras: %w", err)
	}
	defer rows.Close()

	var cameras []*Camera
	for rows.Next() {
		camera, err := scanCamera(rows)
		if err != nil {
			return nil, err
		}
		cameras = append(cameras, camera)
	}
	return cameras, rows.Err()
}

// Upsert inserts or updates a camera keyed by MAC address and returns the
// stored row. Existing credentials survive when the incoming record leaves
// them blank, so discovery sweeps do not wipe manually imported logins.
func (s *Store) Upsert(ctx context.Context, camera Camera) (*Camera, error) {
	if err := camera.normalize(); err != nil {
		return nil, err
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(
		ctx,
		`INSERT INTO xcam_cameras (cam_name, ip_address, mac_address, ip_type, username, password, channel, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(mac_address) DO UPDATE SET
             cam_name = excluded.cam_name,
             ip_address = excluded.ip_address,
             ip_type = excluded.ip_type,
             username = CASE WHEN excluded.username = '' THEN xcam_cameras.username ELSE excluded.username END,
             password = CASE WHEN excluded.password = '' THEN xcam_cameras.password ELSE excluded.password END,
             channel = excluded.channel,
             status = excluded.status,
             updated_at = excluded.updated_at`,
		camera.Name,
		camera.IPAddress,
		camera.MACAddress,
		camera.IPType,
		camera.Username,
		camera.Password,
		camera.Channel,
		camera.Status,
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("upsert camera: %w", err)
	}

	return s.ResolveByMAC(ctx, camera.MACAddress)
}

// UpsertBatch applies Upsert to each camera and reports how many rows were
// written. The first failure aborts the batch.
func (s *Store) UpsertBatch(ctx context.Context, cameras []Camera) (int, error) {
	written := 0
	for _, camera := range cameras {
		if _, err := s.Upsert(ctx, camera); err != nil {
			return written, fmt.Errorf("upsert camera %s: %w", strings.TrimSpace(camera.MACAddress), err)
		}
		written++
	}
	return written, nil
}

// UpsertDiscovered records sweep results. New cameras are inserted with the
// sweep defaults; rows that already exist keep their operator-set name,
// status, credentials, and channel, refreshing only the network address
// fields. A sweep must never rename a hand-labeled camera or reactivate one
// an operator deactivated.
func (s *Store) UpsertDiscovered(ctx context.Context, cameras []Camera) (int, error) {
	written := 0
	for _, camera := range cameras {
		if err := camera.normalize(); err != nil {
			return written, fmt.Errorf("discovered camera %s: %w", strings.TrimSpace(camera.MACAddress), err)
		}
		timestamp := time.Now().UTC().Format(time.RFC3339Nano)
		if _, err := s.db.ExecContext(
			ctx,
			`INSERT INTO xcam_cameras (cam_name, ip_address, mac_address, ip_type, username, password, channel, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(mac_address) DO UPDATE SET
             ip_address = excluded.ip_address,
             ip_type = excluded.ip_type,
             updated_at = excluded.updated_at`,
			camera.Name,
			camera.IPAddress,
			camera.MACAddress,
			camera.IPType,
			camera.Username,
			camera.Password,
			camera.Channel,
			camera.Status,
			timestamp,
			timestamp,
		); err != nil {
			return written, fmt.Errorf("record discovered camera: %w", err)
		}
		written++
	}
	return written, nil
}

// SetStatus flips a camera between active and inactive.
func (s *Store) SetStatus(ctx context.Context, id int64, status Status) error {
	if _, ok := ParseStatus(string(status)); !ok {
		return fmt.Errorf("invalid camera status %q", status)
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE xcam_cameras SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set camera status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("camera %d not found", id)
	}
	return nil
}

// Remove deletes a camera by row id.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM xcam_cameras WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete camera: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Stats returns camera counts grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM xcam_cameras GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("camera stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}
