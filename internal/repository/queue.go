package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"trailquest/internal/model"
	"trailquest/pkg/logger"

	"github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type uploadQueueItem struct {
	ID        string     `db:"id"`
	HikeID    string     `db:"hike_id"`
	LocalRef  string     `db:"local_ref"`
	Kind      string     `db:"kind"`
	Metadata  string     `db:"metadata"`
	Synced    bool       `db:"synced"`
	CreatedAt time.Time  `db:"created_at"`
	SyncedAt  *time.Time `db:"synced_at"`
}

var queueColumns = []string{"id", "hike_id", "local_ref", "kind", "metadata", "synced", "created_at", "synced_at"}

// QueueStore is the device-local durable upload queue. Rows are append-only and
// read back in insertion order.
type QueueStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewQueueStore(path string) (*QueueStore, error) {
	db, err := sqlx.Connect("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open upload queue: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range splitStatements(queueSchema) {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate upload queue: %w", err)
		}
	}

	logger.Logger().Info("upload queue ready", zap.String("path", path))

	return &QueueStore{db: db, now: time.Now}, nil
}

func (s *QueueStore) Close() error {
	return s.db.Close()
}

func (s *QueueStore) Enqueue(ctx context.Context, item *model.UploadQueueItem) error {
	metadata, err := json.Marshal(item.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	query, args, err := squirrel.
		Insert("upload_queue").
		SetMap(map[string]interface{}{
			"id":         item.ID,
			"hike_id":    item.HikeID,
			"local_ref":  item.LocalRef,
			"kind":       string(item.Kind),
			"metadata":   string(metadata),
			"synced":     item.Synced,
			"created_at": item.CreatedAt.UTC(),
			"synced_at":  item.SyncedAt,
		}).
		PlaceholderFormat(squirrel.Question).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build queue insert query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert queue item: %w", err)
	}
	return nil
}

func (s *QueueStore) Get(ctx context.Context, itemID string) (*model.UploadQueueItem, error) {
	query, args, err := squirrel.
		Select(queueColumns...).
		From("upload_queue").
		Where(squirrel.Eq{"id": itemID}).
		PlaceholderFormat(squirrel.Question).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row uploadQueueItem
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	item, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *QueueStore) ListByHike(ctx context.Context, hikeID string) ([]model.UploadQueueItem, error) {
	query, args, err := squirrel.
		Select(queueColumns...).
		From("upload_queue").
		Where(squirrel.Eq{"hike_id": hikeID}).
		OrderBy("seq").
		PlaceholderFormat(squirrel.Question).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []uploadQueueItem
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list queue items: %w", err)
	}

	items := make([]model.UploadQueueItem, 0, len(rows))
	for _, row := range rows {
		item, err := row.toModel()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// MarkSynced keeps the first sync time of an item.
func (s *QueueStore) MarkSynced(ctx context.Context, itemID string) error {
	query, args, err := squirrel.
		Update("upload_queue").
		Set("synced", true).
		Set("synced_at", squirrel.Expr("COALESCE(synced_at, ?)", s.now().UTC())).
		Where(squirrel.Eq{"id": itemID}).
		PlaceholderFormat(squirrel.Question).
		ToSql()
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (row uploadQueueItem) toModel() (model.UploadQueueItem, error) {
	var metadata map[string]any
	if row.Metadata != "" {
		if err := json.Unmarshal([]byte(row.Metadata), &metadata); err != nil {
			return model.UploadQueueItem{}, fmt.Errorf("failed to decode metadata of %s: %w", row.ID, err)
		}
	}

	return model.UploadQueueItem{
		ID:        row.ID,
		HikeID:    row.HikeID,
		LocalRef:  row.LocalRef,
		Kind:      model.MediaKind(row.Kind),
		Metadata:  metadata,
		Synced:    row.Synced,
		CreatedAt: row.CreatedAt,
		SyncedAt:  row.SyncedAt,
	}, nil
}
