package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the pgx surface the repositories need. *pgxpool.Pool and
// pgx.Tx both satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DestinationRepository owns destination rows and their used-capacity
// counter. All quota mutations go through TryReserve/Release; nothing
// else in the codebase touches used_mb.
type DestinationRepository interface {
	GetForAccount(ctx context.Context, id, accountID string) (*Destination, error)
	// TryReserve atomically adds spaceMB to used_mb if it still fits the
	// capacity. Returns false when the reservation does not fit.
	TryReserve(ctx context.Context, id string, spaceMB int64) (bool, error)
	// Release atomically subtracts spaceMB from used_mb, floored at zero.
	Release(ctx context.Context, id string, spaceMB int64) error
}

// VideoRepository is CRUD over persisted video records.
type VideoRepository interface {
	Insert(ctx context.Context, v *Video) error
	GetForAccount(ctx context.Context, id, accountID string) (*Video, error)
	ListByDestination(ctx context.Context, destinationID string) ([]*Video, error)
	ListByAccount(ctx context.Context, accountID string) ([]*Video, error)
	// Delete removes the record and reports whether a row existed.
	Delete(ctx context.Context, id string) (bool, error)
}

type destinationRepo struct {
	db DBTX
}

// NewDestinationRepository constructs the pgx-backed destination repository.
func NewDestinationRepository(db DBTX) DestinationRepository {
	return &destinationRepo{db: db}
}

func (r *destinationRepo) GetForAccount(ctx context.Context, id, accountID string) (*Destination, error) {
	query := `
		SELECT id, account_id, name, server_id, capacity_mb, used_mb, created_at, updated_at
		FROM destinations
		WHERE id = $1 AND account_id = $2`

	d := &Destination{}
	err := r.db.QueryRow(ctx, query, id, accountID).Scan(
		&d.ID, &d.AccountID, &d.Name, &d.ServerID,
		&d.CapacityMB, &d.UsedMB, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get destination: %w", err)
	}
	return d, nil
}

// TryReserve is a single conditional UPDATE so concurrent reservations
// against the same destination serialize on the row without a
// read-then-write window.
func (r *destinationRepo) TryReserve(ctx context.Context, id string, spaceMB int64) (bool, error) {
	query := `
		UPDATE destinations
		SET used_mb = used_mb + $2, updated_at = now()
		WHERE id = $1 AND used_mb + $2 <= capacity_mb`

	tag, err := r.db.Exec(ctx, query, id, spaceMB)
	if err != nil {
		return false, fmt.Errorf("reserve quota: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *destinationRepo) Release(ctx context.Context, id string, spaceMB int64) error {
	query := `
		UPDATE destinations
		SET used_mb = GREATEST(used_mb - $2, 0), updated_at = now()
		WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id, spaceMB); err != nil {
		return fmt.Errorf("release quota: %w", err)
	}
	return nil
}

type videoRepo struct {
	db DBTX
}

// NewVideoRepository constructs the pgx-backed video repository.
func NewVideoRepository(db DBTX) VideoRepository {
	return &videoRepo{db: db}
}

const videoColumns = `id, name, relative_path, remote_path, duration_s, size_bytes,
	account_id, destination_id, bitrate_kbps, format, codec, width, height,
	is_mp4, compatible, created_at`

func (r *videoRepo) Insert(ctx context.Context, v *Video) error {
	query := `
		INSERT INTO videos (id, name, relative_path, remote_path, duration_s, size_bytes,
			account_id, destination_id, bitrate_kbps, format, codec, width, height,
			is_mp4, compatible)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		v.ID, v.Name, v.RelativePath, v.RemotePath, v.DurationS, v.SizeBytes,
		v.AccountID, v.DestinationID, v.BitrateKbps, v.Format, v.Codec,
		v.Width, v.Height, v.IsMP4, v.Compatible,
	).Scan(&v.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

func scanVideo(row pgx.Row) (*Video, error) {
	v := &Video{}
	err := row.Scan(
		&v.ID, &v.Name, &v.RelativePath, &v.RemotePath, &v.DurationS, &v.SizeBytes,
		&v.AccountID, &v.DestinationID, &v.BitrateKbps, &v.Format, &v.Codec,
		&v.Width, &v.Height, &v.IsMP4, &v.Compatible, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *videoRepo) GetForAccount(ctx context.Context, id, accountID string) (*Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1 AND account_id = $2`

	v, err := scanVideo(r.db.QueryRow(ctx, query, id, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get video: %w", err)
	}
	return v, nil
}

func (r *videoRepo) list(ctx context.Context, query string, arg any) ([]*Video, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var out []*Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return out, nil
}

func (r *videoRepo) ListByDestination(ctx context.Context, destinationID string) ([]*Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE destination_id = $1 ORDER BY created_at`
	return r.list(ctx, query, destinationID)
}

func (r *videoRepo) ListByAccount(ctx context.Context, accountID string) ([]*Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE account_id = $1 ORDER BY created_at`
	return r.list(ctx, query, accountID)
}

func (r *videoRepo) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete video: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
