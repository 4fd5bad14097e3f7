package mqhandler

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	mqcontracts "opsboard/contracts/mq"
	"opsboard/internal/timeline"
	"opsboard/pkg/mq"
)

// FilterChangedHandler applies filter.changed events to the shared filter bus
// and announces the recompute. Subscribed views reload on publish.
type FilterChangedHandler struct {
	bus       *timeline.FilterBus
	publisher *mq.Publisher
	logger    *zap.Logger
}

func NewFilterChangedHandler(bus *timeline.FilterBus, publisher *mq.Publisher, logger *zap.Logger) *FilterChangedHandler {
	return &FilterChangedHandler{
		bus:       bus,
		publisher: publisher,
		logger:    logger,
	}
}

func (h *FilterChangedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.FilterChangedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal FilterChangedPayload", zap.Error(err))
		return err
	}

	h.logger.Info("Handling filter.changed event",
		zap.String("from", p.From),
		zap.String("to", p.To),
		zap.Bool("has_project", p.ProjectID != nil),
	)

	f := timeline.Filter{FocusedProjectID: p.ProjectID}
	if p.From != "" {
		t, err := time.ParseInLocation("2006-01-02", p.From, time.Local)
		if err != nil {
			h.logger.Error("Invalid from date in filter.changed",
				zap.String("from", p.From), zap.Error(err))
			return err
		}
		f.DateRange.From = &t
	}
	if p.To != "" {
		t, err := time.ParseInLocation("2006-01-02", p.To, time.Local)
		if err != nil {
			h.logger.Error("Invalid to date in filter.changed",
				zap.String("to", p.To), zap.Error(err))
			return err
		}
		f.DateRange.To = &t
	}

	h.bus.Publish(f)

	if h.publisher != nil {
		payload := mqcontracts.TimelineRecomputedPayload{
			Focused:      p.ProjectID != nil,
			RecomputedAt: time.Now(),
		}
		if err := h.publisher.Publish("timeline.recomputed", payload); err != nil {
			h.logger.Error("Failed to publish timeline.recomputed", zap.Error(err))
			// Filter is already applied, do not requeue the event for this.
		}
	}

	return nil
}
