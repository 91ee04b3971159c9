package repository

import (
	"context"
	"time"

	"channel-notifier/internal/domain/entity"
)

type ChannelRepository interface {
	Get(ctx context.Context, id int64) (*entity.Channel, error)
	GetByExternalID(ctx context.Context, externalID string) (*entity.Channel, error)
	GetByHandle(ctx context.Context, handle string) (*entity.Channel, error)
	List(ctx context.Context) ([]*entity.Channel, error)
	ListByDestination(ctx context.Context, destinationID int64) ([]*entity.Channel, error)
	CountByDestination(ctx context.Context, destinationID int64) (int64, error)
	Create(ctx context.Context, channel *entity.Channel) error
	Delete(ctx context.Context, id int64) error
	// UpdateLastCheckedAt moves the watermark. Out-of-order writes are not rejected
	// and a missing row is not an error.
	UpdateLastCheckedAt(ctx context.Context, id int64, t time.Time) error
}
