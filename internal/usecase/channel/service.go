package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"channel-notifier/internal/domain/entity"
	"channel-notifier/internal/handler/http/respond"
	"channel-notifier/internal/infra/youtube"
	"channel-notifier/internal/repository"
)

// Resolver turns a user-entered handle into the provider's channel identity.
type Resolver interface {
	Resolve(ctx context.Context, handle string) (youtube.ChannelInfo, error)
}

// RegisterInput represents the input parameters for registering a channel.
type RegisterInput struct {
	DestinationID int64
	Handle        string
}

// Service provides channel management use cases.
type Service struct {
	Repo         repository.ChannelRepository
	Destinations repository.DestinationRepository
	Resolver     Resolver

	// Now returns the registration time used as the initial watermark.
	// Nil means time.Now.
	Now func() time.Time
}

// List retrieves all channels, or only those of one destination when
// destinationID is non-nil.
func (s *Service) List(ctx context.Context, destinationID *int64) ([]*entity.Channel, error) {
	var (
		chs []*entity.Channel
		err error
	)
	if destinationID != nil {
		chs, err = s.Repo.ListByDestination(ctx, *destinationID)
	} else {
		chs, err = s.Repo.List(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return chs, nil
}

// Get retrieves one channel. Returns ErrChannelNotFound when absent.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Channel, error) {
	if id <= 0 {
		return nil, &entity.ValidationError{Field: "id", Message: "must be positive"}
	}
	ch, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get channel: %w", err)
	}
	if ch == nil {
		return nil, ErrChannelNotFound
	}
	return ch, nil
}

// Register resolves in.Handle and stores the channel with its watermark set
// to the registration time, so uploads published before registration are
// never notified.
//
// Checks run in order: handle validation, destination existence
// (ErrDestinationNotFound), handle uniqueness (ErrHandleAlreadyRegistered),
// provider resolution (ErrResolveFailed), external id uniqueness
// (ErrChannelAlreadyRegistered).
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.Channel, error) {
	handle := entity.NormalizeHandle(in.Handle)
	if err := entity.ValidateHandle(handle); err != nil {
		return nil, err
	}
	if in.DestinationID <= 0 {
		return nil, &entity.ValidationError{Field: "destination_id", Message: "must be positive"}
	}

	dest, err := s.Destinations.Get(ctx, in.DestinationID)
	if err != nil {
		return nil, fmt.Errorf("get destination: %w", err)
	}
	if dest == nil {
		return nil, ErrDestinationNotFound
	}

	existing, err := s.Repo.GetByHandle(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("check handle: %w", err)
	}
	if existing != nil {
		return nil, ErrHandleAlreadyRegistered
	}

	info, err := s.Resolver.Resolve(ctx, handle)
	if err != nil {
		slog.Warn("channel resolution failed",
			slog.String("handle", handle),
			slog.String("error", respond.SanitizeError(err)))
		return nil, fmt.Errorf("%w: @%s", ErrResolveFailed, handle)
	}

	existing, err = s.Repo.GetByExternalID(ctx, info.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("check external id: %w", err)
	}
	if existing != nil {
		return nil, ErrChannelAlreadyRegistered
	}

	ch := &entity.Channel{
		DestinationID:  dest.ID,
		ExternalID:     info.ExternalID,
		ExternalHandle: handle,
		DisplayName:    info.DisplayName,
		LastCheckedAt:  s.now().UTC(),
	}
	if err := s.Repo.Create(ctx, ch); err != nil {
		// 同時登録で一意制約に当たった場合
		if errors.Is(err, entity.ErrConflict) {
			return nil, ErrHandleAlreadyRegistered
		}
		return nil, fmt.Errorf("create channel: %w", err)
	}

	slog.Info("channel registered",
		slog.Int64("channel_id", ch.ID),
		slog.String("external_id", ch.ExternalID),
		slog.String("handle", ch.ExternalHandle),
		slog.Int64("destination_id", ch.DestinationID))
	return ch, nil
}

// Delete removes a channel. Returns ErrChannelNotFound when absent.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return ErrChannelNotFound
		}
		return fmt.Errorf("delete channel: %w", err)
	}
	return nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
