package receipts

import (
	"context"
	"fmt"

	"pos-system/internal/logger"
	"pos-system/internal/messaging"
	"pos-system/internal/models"
)

// Subscriber consumes settled-order messages and prints a receipt
// line for each one.
type Subscriber struct {
	consumer *messaging.Consumer
	logger   *logger.Logger
}

// NewSubscriber creates a new receipt subscriber
func NewSubscriber(consumer *messaging.Consumer, log *logger.Logger) *Subscriber {
	return &Subscriber{
		consumer: consumer,
		logger:   log,
	}
}

// Start consumes until the context is cancelled
func (s *Subscriber) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()
	s.logger.Info("service_started", "Receipt subscriber started", requestID, nil)

	err := s.consumer.StartConsuming(ctx, s.handleOrderCompleted)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("receipt consumer failed: %w", err)
	}
	return nil
}

// handleOrderCompleted processes one settled-order message
func (s *Subscriber) handleOrderCompleted(ctx context.Context, body []byte) error {
	requestID := logger.GenerateRequestID()

	var msg models.OrderCompletedMessage
	if err := messaging.ParseMessage(body, &msg); err != nil {
		s.logger.Error("message_parsing_failed", "Failed to parse order completed message", requestID, err, nil)
		return fmt.Errorf("failed to parse order completed message: %w", err)
	}

	fmt.Println(s.formatReceipt(&msg))

	s.logger.Info("receipt_printed", "Receipt printed for settled order", requestID, map[string]interface{}{
		"order_id":     msg.OrderID,
		"customer_id":  msg.CustomerID,
		"total":        msg.Total.String(),
		"payment_type": string(msg.PaymentType),
	})

	return nil
}

// formatReceipt creates a human-readable receipt line
func (s *Subscriber) formatReceipt(msg *models.OrderCompletedMessage) string {
	timestamp := msg.Timestamp.Format("2006-01-02 15:04:05")
	return fmt.Sprintf(
		"[%s] Order #%d for %s settled: RM %s paid via %s. Thank you!",
		timestamp,
		msg.OrderID,
		msg.CustomerName,
		msg.Total.StringFixed(2),
		msg.PaymentType,
	)
}

// Close stops the underlying consumer
func (s *Subscriber) Close() error {
	if s.consumer != nil {
		return s.consumer.Close()
	}
	return nil
}
