// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"headlines/internal/model"
)

var (
	// ErrNotFound is returned when a subscription does not exist.
	ErrNotFound = errors.New("subscription not found")
	// ErrExists is returned when a chat already has the same subscription.
	ErrExists = errors.New("subscription already exists")
)

// Storage is the interface for all persistence operations.
type Storage interface {
	CreateSubscription(ctx context.Context, sub *model.Subscription) error
	GetSubscription(ctx context.Context, id int64) (*model.Subscription, error)
	ListSubscriptions(ctx context.Context, chatID int64) ([]model.Subscription, error)
	ListAllSubscriptions(ctx context.Context) ([]model.Subscription, error)
	UpdateSubscription(ctx context.Context, sub *model.Subscription) error
	DeleteSubscription(ctx context.Context, id int64) error

	MarkDelivered(ctx context.Context, chatID int64, articleID string, at time.Time) error
	IsDelivered(ctx context.Context, chatID int64, articleID string) (bool, error)
	PruneDelivered(ctx context.Context, before time.Time) (int64, error)

	Close() error
}
