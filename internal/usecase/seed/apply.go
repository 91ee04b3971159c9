// Package seed applies bootstrap registrations from a seed file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"channel-notifier/internal/config"
	"channel-notifier/internal/domain/entity"
	chUC "channel-notifier/internal/usecase/channel"
	destUC "channel-notifier/internal/usecase/destination"
)

// Destinations is the subset of the destination service used for seeding.
type Destinations interface {
	List(ctx context.Context) ([]*entity.Destination, error)
	Create(ctx context.Context, in destUC.CreateInput) (*entity.Destination, error)
}

// Channels is the subset of the channel service used for seeding.
type Channels interface {
	Register(ctx context.Context, in chUC.RegisterInput) (*entity.Channel, error)
}

// Result counts what Apply did.
type Result struct {
	DestinationsCreated int
	ChannelsCreated     int
	ChannelsSkipped     int
	ChannelErrors       int
}

// Apply registers destinations and channels that are not already present.
//
// A destination is present when one with the same endpoint URL and labels
// exists. Channels already registered (by handle or resolved id) are skipped.
// Other channel failures, such as a handle the provider cannot resolve, are
// logged and counted without aborting; destination failures abort.
func Apply(ctx context.Context, s *config.Seed, dests Destinations, chans Channels, logger *slog.Logger) (Result, error) {
	var res Result
	if logger == nil {
		logger = slog.Default()
	}

	existing, err := dests.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list destinations: %w", err)
	}

	ids := make(map[string]int64, len(s.Destinations))
	for _, sd := range s.Destinations {
		if d := match(existing, sd); d != nil {
			ids[sd.Key] = d.ID
			continue
		}
		d, err := dests.Create(ctx, destUC.CreateInput{
			GroupingLabel: sd.GroupingLabel,
			DisplayLabel:  sd.DisplayLabel,
			EndpointURL:   sd.EndpointURL,
		})
		if err != nil {
			return res, fmt.Errorf("seed destination %q: %w", sd.Key, err)
		}
		ids[sd.Key] = d.ID
		existing = append(existing, d)
		res.DestinationsCreated++
		logger.Info("seeded destination", slog.String("key", sd.Key), slog.Int64("destination_id", d.ID))
	}

	for _, sc := range s.Channels {
		ch, err := chans.Register(ctx, chUC.RegisterInput{
			DestinationID: ids[sc.Destination],
			Handle:        sc.ExternalHandle,
		})
		switch {
		case err == nil:
			res.ChannelsCreated++
			logger.Info("seeded channel",
				slog.String("handle", ch.ExternalHandle),
				slog.String("external_id", ch.ExternalID))
		case errors.Is(err, chUC.ErrHandleAlreadyRegistered), errors.Is(err, chUC.ErrChannelAlreadyRegistered):
			res.ChannelsSkipped++
		case ctx.Err() != nil:
			return res, ctx.Err()
		default:
			res.ChannelErrors++
			logger.Warn("seed channel failed",
				slog.String("handle", sc.ExternalHandle),
				slog.String("error", err.Error()))
		}
	}

	return res, nil
}

func match(existing []*entity.Destination, sd config.SeedDestination) *entity.Destination {
	want := entity.Destination{GroupingLabel: sd.GroupingLabel, DisplayLabel: sd.DisplayLabel, EndpointURL: sd.EndpointURL}
	want.Normalize()
	for _, d := range existing {
		if d.EndpointURL == want.EndpointURL && d.GroupingLabel == want.GroupingLabel && d.DisplayLabel == want.DisplayLabel {
			return d
		}
	}
	return nil
}
