package printing

import (
	"context"
	"fmt"

	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
)

// JobPublisher publishes print jobs to the broker.
type JobPublisher interface {
	PublishPrintJob(ctx context.Context, job *models.PrintJob) error
}

// Dispatcher turns print requests into queued jobs. It does not render
// anything itself; the print worker picks the jobs up.
type Dispatcher struct {
	publisher JobPublisher
	logger    *logger.Logger
}

// NewDispatcher creates a new print dispatcher.
func NewDispatcher(publisher JobPublisher, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		logger:    log,
	}
}

// PrintKOT queues a kitchen order ticket for the order.
func (d *Dispatcher) PrintKOT(ctx context.Context, order *models.Order) error {
	return d.dispatch(ctx, models.PrintKOT, order)
}

// PrintReceipt queues a customer receipt for the order.
func (d *Dispatcher) PrintReceipt(ctx context.Context, order *models.Order) error {
	return d.dispatch(ctx, models.PrintReceipt, order)
}

func (d *Dispatcher) dispatch(ctx context.Context, kind models.PrintJobKind, order *models.Order) error {
	job := models.NewPrintJob(kind, *order)
	if err := d.publisher.PublishPrintJob(ctx, job); err != nil {
		return fmt.Errorf("failed to queue %s job: %w", kind, err)
	}

	d.logger.Info("print_job_queued", fmt.Sprintf("Queued %s for order #%d", kind, order.OrderNumber), "", map[string]interface{}{
		"kind":         string(kind),
		"order_number": order.OrderNumber,
	})
	return nil
}
