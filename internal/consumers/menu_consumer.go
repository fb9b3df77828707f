package consumers

import (
	"context"
	"fmt"
	"menuo/domain"
	"menuo/pkg/events"

	"go.uber.org/zap"
)

type categoryRefresher interface {
	Refresh(ctx context.Context) error
}

type productRefresher interface {
	CategoryID() (int64, bool)
	Products() []domain.Product
	Refresh(ctx context.Context, categoryID int64) error
}

type settingsRefresher interface {
	Refresh(ctx context.Context) error
}

// MenuEventHandler keeps a set of public-view stores in step with the admin
// mutations announced on the menu exchange.
type MenuEventHandler struct {
	categories categoryRefresher
	products   productRefresher
	settings   settingsRefresher
}

func NewMenuEventHandler(categories categoryRefresher, products productRefresher, settings settingsRefresher) *MenuEventHandler {
	return &MenuEventHandler{
		categories: categories,
		products:   products,
		settings:   settings,
	}
}

func (h *MenuEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	zap.L().Info("Menu event received",
		zap.String("event", event.Event),
		zap.String("version", event.Version),
		zap.String("traceId", event.TraceID),
	)

	if event.Version != events.EventVersionV1 {
		zap.L().Warn("Unsupported menu event version", zap.String("event", event.Event), zap.String("version", event.Version))
		return nil
	}

	switch event.Event {
	case events.CategoryCreatedEvent, events.CategoryUpdatedEvent, events.CategoryDeletedEvent:
		if err := h.categories.Refresh(ctx); err != nil {
			return fmt.Errorf("handle %s: %w", event.Event, err)
		}
		return nil
	case events.ProductCreatedEvent, events.ProductUpdatedEvent, events.ProductDeletedEvent:
		return h.handleProductEvent(ctx, event)
	case events.SettingsSavedEvent:
		if err := h.settings.Refresh(ctx); err != nil {
			return fmt.Errorf("handle %s: %w", event.Event, err)
		}
		return nil
	default:
		zap.L().Warn("Unknown menu event type", zap.String("event", event.Event))
		return nil
	}
}

// handleProductEvent refetches products when the event touches the category
// on display: either the product now belongs to it, or it is listed there and
// has moved away or been deleted.
func (h *MenuEventHandler) handleProductEvent(ctx context.Context, event *events.Event) error {
	var payload struct {
		ID         int64 `json:"id"`
		CategoryID int64 `json:"categoryId"`
	}
	if err := event.DecodePayload(&payload); err != nil {
		return err
	}

	displayed, ok := h.products.CategoryID()
	if !ok || (payload.CategoryID != displayed && !h.displays(payload.ID)) {
		zap.L().Debug("Product event for a category not on display",
			zap.Int64("productId", payload.ID),
			zap.Int64("categoryId", payload.CategoryID),
			zap.Int64("displayedCategoryId", displayed),
		)
		return nil
	}

	if err := h.products.Refresh(ctx, displayed); err != nil {
		return fmt.Errorf("handle %s: %w", event.Event, err)
	}
	return nil
}

func (h *MenuEventHandler) displays(productID int64) bool {
	for _, p := range h.products.Products() {
		if p.ID == productID {
			return true
		}
	}
	return false
}
