package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGConfig controls the Postgres connection pool.
type PGConfig struct {
	ConnectionString string        `env:"NOTIFY_PG_CONN_URL,required"`
	MaxOpenConns     int32         `env:"NOTIFY_PG_MAX_OPEN_CONNS" envDefault:"10"`
	MinConns         int32         `env:"NOTIFY_PG_MIN_CONNS" envDefault:"2"`
	MaxConnLifetime  time.Duration `env:"NOTIFY_PG_MAX_CONN_LIFETIME" envDefault:"30m"`
	RetryAttempts    int           `env:"NOTIFY_PG_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval    time.Duration `env:"NOTIFY_PG_RETRY_INTERVAL" envDefault:"5s"`
}

// ErrFailedToConnectPG is returned when the pool cannot be established
// within the configured retry budget.
var ErrFailedToConnectPG = errors.New("notify: failed to connect to postgres")

// ConnectPG establishes a pgx pool with linear backoff between attempts.
func ConnectPG(ctx context.Context, cfg PGConfig) (*pgxpool.Pool, error) {
	connConfig, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, errors.Join(ErrFailedToConnectPG, err)
	}
	connConfig.MaxConns = cfg.MaxOpenConns
	connConfig.MinConns = cfg.MinConns
	connConfig.MaxConnLifetime = cfg.MaxConnLifetime

	for i := range cfg.RetryAttempts {
		pool, err := pgxpool.NewWithConfig(ctx, connConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToConnectPG, ctx.Err())
		case <-time.After(time.Duration(i+1) * cfg.RetryInterval):
		}
	}
	return nil, ErrFailedToConnectPG
}

// PGStorage is the Postgres-backed Storage. Expected schema:
//
//	CREATE TABLE notifications (
//	    id              TEXT PRIMARY KEY,
//	    title           TEXT NOT NULL,
//	    message         TEXT NOT NULL,
//	    channel         TEXT NOT NULL,
//	    target          TEXT NOT NULL,
//	    target_id       TEXT NOT NULL DEFAULT '',
//	    status          TEXT NOT NULL DEFAULT 'PENDING',
//	    recipient_count INT  NOT NULL DEFAULT 0,
//	    success_count   INT  NOT NULL DEFAULT 0,
//	    failed_count    INT  NOT NULL DEFAULT 0,
//	    sent_at         TIMESTAMPTZ,
//	    metadata        JSONB,
//	    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//	CREATE INDEX notifications_status_idx ON notifications (status);
type PGStorage struct {
	pool *pgxpool.Pool
}

// NewPGStorage wraps an established pool.
func NewPGStorage(pool *pgxpool.Pool) (*PGStorage, error) {
	if pool == nil {
		return nil, fmt.Errorf("%w: pgx pool", ErrDependencyNil)
	}
	return &PGStorage{pool: pool}, nil
}

func (s *PGStorage) Create(ctx context.Context, n Notification) error {
	var metadata []byte
	if n.Metadata != nil {
		var err error
		metadata, err = json.Marshal(n.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications
			(id, title, message, channel, target, target_id, status,
			 recipient_count, success_count, failed_count, sent_at, metadata, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		n.ID, n.Title, n.Message, string(n.Channel), string(n.Target), n.TargetID,
		string(n.Status), n.RecipientCount, n.SuccessCount, n.FailedCount,
		n.SentAt, metadata, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (s *PGStorage) Get(ctx context.Context, id string) (*Notification, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, title, message, channel, target, target_id, status,
		       recipient_count, success_count, failed_count, sent_at, metadata, created_at
		FROM notifications WHERE id = $1`, id)

	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load notification: %w", err)
	}
	return n, nil
}

func (s *PGStorage) Update(ctx context.Context, id string, fields UpdateFields) error {
	set := make([]string, 0, 5)
	args := make([]any, 0, 6)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if fields.Status != nil {
		set = append(set, "status = "+arg(string(*fields.Status)))
	}
	if fields.RecipientCount != nil {
		set = append(set, "recipient_count = "+arg(*fields.RecipientCount))
	}
	if fields.SuccessCount != nil {
		set = append(set, "success_count = "+arg(*fields.SuccessCount))
	}
	if fields.FailedCount != nil {
		set = append(set, "failed_count = "+arg(*fields.FailedCount))
	}
	if fields.SentAt != nil {
		set = append(set, "sent_at = "+arg(*fields.SentAt))
	}
	if len(set) == 0 {
		return nil
	}

	query := "UPDATE notifications SET "
	for i, clause := range set {
		if i > 0 {
			query += ", "
		}
		query += clause
	}
	query += " WHERE id = " + arg(id)

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *PGStorage) List(ctx context.Context, f Filter) ([]Notification, error) {
	query := `
		SELECT id, title, message, channel, target, target_id, status,
		       recipient_count, success_count, failed_count, sent_at, metadata, created_at
		FROM notifications`
	args := make([]any, 0, 4)
	where := ""
	addCond := func(cond string, v any) {
		args = append(args, v)
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(cond, len(args))
	}

	if f.Status != "" {
		addCond("status = $%d", string(f.Status))
	}
	if f.Channel != "" {
		addCond("channel = $%d", string(f.Channel))
	}
	query += where + " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return out, nil
}

func scanNotification(row pgx.Row) (*Notification, error) {
	var (
		n        Notification
		channel  string
		target   string
		status   string
		metadata []byte
	)
	err := row.Scan(&n.ID, &n.Title, &n.Message, &channel, &target, &n.TargetID,
		&status, &n.RecipientCount, &n.SuccessCount, &n.FailedCount,
		&n.SentAt, &metadata, &n.CreatedAt)
	if err != nil {
		return nil, err
	}

	n.Channel = Channel(channel)
	n.Target = TargetType(target)
	n.Status = Status(status)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}
	return &n, nil
}

// PGInbox is the Postgres-backed InboxStorage. Expected schema:
//
//	CREATE TABLE inbox_items (
//	    user_id         TEXT NOT NULL,
//	    notification_id TEXT NOT NULL,
//	    read            BOOLEAN NOT NULL DEFAULT FALSE,
//	    read_at         TIMESTAMPTZ,
//	    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    PRIMARY KEY (user_id, notification_id)
//	);
//	CREATE INDEX inbox_items_unread_idx ON inbox_items (user_id) WHERE NOT read;
type PGInbox struct {
	pool *pgxpool.Pool
}

// NewPGInbox wraps an established pool.
func NewPGInbox(pool *pgxpool.Pool) (*PGInbox, error) {
	if pool == nil {
		return nil, fmt.Errorf("%w: pgx pool", ErrDependencyNil)
	}
	return &PGInbox{pool: pool}, nil
}

// Upsert relies on the primary key for idempotence: a redelivered job
// resets the existing row to unread instead of inserting a duplicate.
func (s *PGInbox) Upsert(ctx context.Context, userID, notificationID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO inbox_items (user_id, notification_id, read, read_at, created_at, updated_at)
		VALUES ($1, $2, FALSE, NULL, now(), now())
		ON CONFLICT (user_id, notification_id)
		DO UPDATE SET read = FALSE, read_at = NULL, updated_at = now()`,
		userID, notificationID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert inbox item: %w", err)
	}
	return nil
}

func (s *PGInbox) List(ctx context.Context, userID string, opts InboxListOptions) ([]InboxItem, error) {
	query := `
		SELECT user_id, notification_id, read, read_at, created_at, updated_at
		FROM inbox_items WHERE user_id = $1`
	args := []any{userID}
	if opts.OnlyUnread {
		query += " AND NOT read"
	}
	query += " ORDER BY created_at DESC"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox: %w", err)
	}
	defer rows.Close()

	var out []InboxItem
	for rows.Next() {
		var item InboxItem
		if err := rows.Scan(&item.UserID, &item.NotificationID, &item.Read,
			&item.ReadAt, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inbox item: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list inbox: %w", err)
	}
	return out, nil
}

func (s *PGInbox) MarkRead(ctx context.Context, userID string, notificationIDs ...string) error {
	if len(notificationIDs) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE inbox_items
		SET read = TRUE, read_at = now(), updated_at = now()
		WHERE user_id = $1 AND notification_id = ANY($2) AND NOT read`,
		userID, notificationIDs,
	)
	if err != nil {
		return fmt.Errorf("failed to mark inbox items read: %w", err)
	}
	return nil
}

func (s *PGInbox) MarkAllRead(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE inbox_items
		SET read = TRUE, read_at = now(), updated_at = now()
		WHERE user_id = $1 AND NOT read`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark inbox read: %w", err)
	}
	return nil
}

func (s *PGInbox) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM inbox_items WHERE user_id = $1 AND NOT read`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread inbox items: %w", err)
	}
	return count, nil
}
