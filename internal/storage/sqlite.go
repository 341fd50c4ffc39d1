package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"headlines/internal/model"
	"headlines/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

const subscriptionColumns = `id, chat_id, category, query, last_push_at, created_at`

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateSubscription inserts a new subscription and populates its ID. A zero
// CreatedAt is set to the current time. It returns ErrExists when the chat
// already has a subscription with the same category and query.
func (s *SQLite) CreateSubscription(ctx context.Context, sub *model.Subscription) error {
	created := sub.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	now := created.UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (chat_id, category, query, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (chat_id, category, query) DO NOTHING`,
		sub.ChatID, string(sub.Category), sub.Query, now,
	)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrExists
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	sub.ID = id
	sub.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// GetSubscription returns a single subscription by its ID.
func (s *SQLite) GetSubscription(ctx context.Context, id int64) (*model.Subscription, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`, id,
	)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListSubscriptions returns all subscriptions of the given chat.
func (s *SQLite) ListSubscriptions(ctx context.Context, chatID int64) ([]model.Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE chat_id = ? ORDER BY id`, chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanSubscriptions(rows)
}

// ListAllSubscriptions returns every subscription, oldest first.
func (s *SQLite) ListAllSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query all subscriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanSubscriptions(rows)
}

// UpdateSubscription persists the query and last push time of sub.
func (s *SQLite) UpdateSubscription(ctx context.Context, sub *model.Subscription) error {
	var lastPush *string
	if sub.LastPushAt != nil {
		v := sub.LastPushAt.UTC().Format(timeLayout)
		lastPush = &v
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE subscriptions SET query = ?, last_push_at = ? WHERE id = ?`,
		sub.Query, lastPush, sub.ID,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return requireRow(res)
}

// DeleteSubscription removes a subscription by its ID.
func (s *SQLite) DeleteSubscription(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return requireRow(res)
}

// MarkDelivered records that an article was pushed to a chat at the given
// time. PruneDelivered compares against the same clock.
func (s *SQLite) MarkDelivered(ctx context.Context, chatID int64, articleID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO delivered_articles (chat_id, article_id, delivered_at) VALUES (?, ?, ?)`,
		chatID, articleID, at.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	return nil
}

// IsDelivered checks whether an article has already been pushed to a chat.
func (s *SQLite) IsDelivered(ctx context.Context, chatID int64, articleID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM delivered_articles WHERE chat_id = ? AND article_id = ?`,
		chatID, articleID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check delivered: %w", err)
	}
	return count > 0, nil
}

// PruneDelivered forgets deliveries recorded before the given time and
// reports how many were removed. Articles that old have left every feed.
func (s *SQLite) PruneDelivered(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM delivered_articles WHERE delivered_at < ?`,
		before.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune delivered: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSubscription(row scannable) (model.Subscription, error) {
	var sub model.Subscription
	var category string
	var lastPush, created sql.NullString
	err := row.Scan(&sub.ID, &sub.ChatID, &category, &sub.Query, &lastPush, &created)
	if err != nil {
		return sub, fmt.Errorf("scan subscription: %w", err)
	}
	sub.Category = model.Category(category)
	if lastPush.Valid {
		t, _ := time.Parse(timeLayout, lastPush.String)
		sub.LastPushAt = &t
	}
	if created.Valid {
		sub.CreatedAt, _ = time.Parse(timeLayout, created.String)
	}
	return sub, nil
}

func scanSubscriptions(rows *sql.Rows) ([]model.Subscription, error) {
	var subs []model.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
