package destination

import (
	"context"
	"errors"
	"fmt"

	"channel-notifier/internal/domain/entity"
	"channel-notifier/internal/repository"
)

// CreateInput represents the input parameters for registering a destination.
type CreateInput struct {
	GroupingLabel string
	DisplayLabel  string
	EndpointURL   string
}

// Service provides destination management use cases.
type Service struct {
	Repo     repository.DestinationRepository
	Channels repository.ChannelRepository
}

// List retrieves all destinations ordered by id.
func (s *Service) List(ctx context.Context) ([]*entity.Destination, error) {
	dests, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list destinations: %w", err)
	}
	return dests, nil
}

// Get retrieves one destination. Returns ErrDestinationNotFound when absent.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Destination, error) {
	if id <= 0 {
		return nil, &entity.ValidationError{Field: "id", Message: "must be positive"}
	}
	dest, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get destination: %w", err)
	}
	if dest == nil {
		return nil, ErrDestinationNotFound
	}
	return dest, nil
}

// Create validates and stores a new destination and returns the stored record.
// Returns a ValidationError if any input field is invalid.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Destination, error) {
	dest := &entity.Destination{
		GroupingLabel: in.GroupingLabel,
		DisplayLabel:  in.DisplayLabel,
		EndpointURL:   in.EndpointURL,
	}
	dest.Normalize()

	if err := dest.Validate(); err != nil {
		return nil, err
	}

	if err := s.Repo.Create(ctx, dest); err != nil {
		return nil, fmt.Errorf("create destination: %w", err)
	}
	return dest, nil
}

// Delete removes a destination that no channel references.
// Returns ErrDestinationNotFound when absent and ErrDestinationInUse when referenced.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	n, err := s.Channels.CountByDestination(ctx, id)
	if err != nil {
		return fmt.Errorf("count channels: %w", err)
	}
	if n > 0 {
		return ErrDestinationInUse
	}

	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return ErrDestinationNotFound
		}
		return fmt.Errorf("delete destination: %w", err)
	}
	return nil
}
