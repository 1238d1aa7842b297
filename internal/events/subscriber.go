package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// EventHandler defines the interface for handling events
type EventHandler interface {
	HandleSaleRecorded(event *SaleRecordedEvent) error
}

// Subscriber handles NATS event subscriptions
type Subscriber struct {
	nc      *nats.Conn
	logger  *zap.Logger
	handler EventHandler
	subs    []*nats.Subscription
}

// NewSubscriber creates a new NATS subscriber
func NewSubscriber(nc *nats.Conn, handler EventHandler, logger *zap.Logger) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{
		nc:      nc,
		logger:  logger,
		handler: handler,
		subs:    make([]*nats.Subscription, 0),
	}
}

// Start subscribes to all relevant events
func (s *Subscriber) Start() error {
	sub, err := s.nc.Subscribe(SubjectSaleRecorded, s.handleSaleRecorded)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", SubjectSaleRecorded, err)
	}
	s.subs = append(s.subs, sub)
	s.logger.Info("Subscribed to event", zap.String("subject", SubjectSaleRecorded))

	return nil
}

// Stop unsubscribes from all events
func (s *Subscriber) Stop() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	s.subs = s.subs[:0]
	s.logger.Info("NATS subscriber stopped")
}

func (s *Subscriber) handleSaleRecorded(msg *nats.Msg) {
	s.dispatchSaleRecorded(msg.Data)
}

func (s *Subscriber) dispatchSaleRecorded(data []byte) {
	var event SaleRecordedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		s.logger.Error("Failed to unmarshal sale recorded event", zap.Error(err))
		return
	}
	if event.SellerID == "" {
		s.logger.Warn("Dropping sale recorded event without seller_id", zap.String("crop_id", event.CropID))
		return
	}

	s.logger.Debug("Received sale recorded event",
		zap.String("seller_id", event.SellerID),
		zap.String("crop_id", event.CropID),
		zap.Int64("quantity_sold", event.QuantitySold),
	)

	if err := s.handler.HandleSaleRecorded(&event); err != nil {
		s.logger.Error("Failed to handle sale recorded event",
			zap.String("seller_id", event.SellerID),
			zap.Error(err),
		)
	}
}
