package repository

import (
	"context"

	"channel-notifier/internal/domain/entity"
)

type DestinationRepository interface {
	Get(ctx context.Context, id int64) (*entity.Destination, error)
	List(ctx context.Context) ([]*entity.Destination, error)
	Create(ctx context.Context, destination *entity.Destination) error
	Delete(ctx context.Context, id int64) error
}
