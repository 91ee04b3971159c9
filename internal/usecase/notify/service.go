// Package notify delivers one notification per new item to the destination
// a channel is registered with.
package notify

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"slices"
	"strconv"
	"sync"
	"time"

	"channel-notifier/internal/domain/entity"
	"channel-notifier/internal/handler/http/respond"
	"channel-notifier/internal/infra/notifier"
	"channel-notifier/internal/observability/logging"
	"channel-notifier/internal/repository"
	"channel-notifier/internal/resilience/circuitbreaker"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

// deliveryTimeout bounds one delivery including the sender's retries.
const deliveryTimeout = 60 * time.Second

// Service resolves destinations and hands formatted messages to a Sender.
type Service struct {
	destinations repository.DestinationRepository
	sender       notifier.Sender
	timeout      time.Duration

	mu       sync.Mutex
	breakers map[int64]*circuitbreaker.CircuitBreaker // per destination id
}

// NewService returns a Service sending through sender.
func NewService(destinations repository.DestinationRepository, sender notifier.Sender) *Service {
	return &Service{
		destinations: destinations,
		sender:       sender,
		timeout:      deliveryTimeout,
		breakers:     make(map[int64]*circuitbreaker.CircuitBreaker),
	}
}

// Deliver sends one message about item to ch's destination and reports
// whether the endpoint accepted it. Lookup failures, transport errors and
// rejections are logged and reported as false; Deliver never panics.
func (s *Service) Deliver(ctx context.Context, ch *entity.Channel, item entity.Item) (ok bool) {
	requestID := uuid.NewString()
	logger := logging.FromContext(ctx).With(slog.String("request_id", requestID))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in notification delivery",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			RecordDropped("panic")
			ok = false
		}
	}()

	if ch == nil {
		logger.Warn("notification skipped", slog.Any("error", ErrInvalidChannel))
		return false
	}
	logger = logger.With(
		slog.Int64("channel_id", ch.ID),
		slog.String("external_id", ch.ExternalID),
		slog.String("video_id", item.VideoID))

	dest, err := s.destinations.Get(ctx, ch.DestinationID)
	if err != nil {
		logger.Error("destination lookup failed",
			slog.Int64("destination_id", ch.DestinationID),
			slog.String("error", respond.SanitizeError(err)))
		RecordDropped("lookup_failed")
		return false
	}
	if dest == nil {
		logger.Warn("notification skipped",
			slog.Int64("destination_id", ch.DestinationID),
			slog.Any("error", ErrDestinationNotFound))
		RecordDropped("destination_missing")
		return false
	}

	service := serviceName(dest.EndpointURL)
	RecordDispatch(service)

	sendCtx, cancel := context.WithTimeout(notifier.WithRequestID(ctx, requestID), s.timeout)
	defer cancel()

	msg := notifier.Message{ChannelName: ch.DisplayName, Item: item}
	start := time.Now()
	_, err = s.breaker(dest.ID).Execute(func() (interface{}, error) {
		return nil, s.sender.Send(sendCtx, dest.EndpointURL, msg)
	})
	duration := time.Since(start)

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		logger.Warn("notification skipped",
			slog.Int64("destination_id", dest.ID),
			slog.Any("error", ErrCircuitBreakerOpen))
		RecordCircuitBreakerOpen(service)
		RecordDropped("circuit_open")
		return false
	}
	if err != nil {
		logger.Error("notification failed",
			slog.Int64("destination_id", dest.ID),
			slog.String("service", service),
			slog.Duration("duration", duration),
			slog.String("error", respond.SanitizeError(err)))
		RecordFailure(service, duration)
		return false
	}

	logger.Info("notification delivered",
		slog.Int64("destination_id", dest.ID),
		slog.String("service", service),
		slog.Duration("duration", duration))
	RecordSuccess(service, duration)
	return true
}

// BreakerStatus is the health of one destination's circuit breaker.
type BreakerStatus struct {
	DestinationID int64  `json:"destination_id"`
	State         string `json:"state"`
}

// BreakerStates lists every destination breaker created so far, ordered by id.
func (s *Service) BreakerStates() []BreakerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]BreakerStatus, 0, len(s.breakers))
	for id, cb := range s.breakers {
		out = append(out, BreakerStatus{DestinationID: id, State: cb.State().String()})
	}
	slices.SortFunc(out, func(a, b BreakerStatus) int {
		return cmp.Compare(a.DestinationID, b.DestinationID)
	})
	return out
}

func (s *Service) breaker(destinationID int64) *circuitbreaker.CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	cb, ok := s.breakers[destinationID]
	if !ok {
		cfg := circuitbreaker.WebhookConfig("webhook-" + strconv.FormatInt(destinationID, 10))
		// キャンセルは宛先の障害ではない
		cfg.IsSuccessful = func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		}
		cb = circuitbreaker.New(cfg)
		s.breakers[destinationID] = cb
	}
	return cb
}

func serviceName(endpointURL string) string {
	if notifier.IsDiscordURL(endpointURL) {
		return "discord"
	}
	return "slack"
}
