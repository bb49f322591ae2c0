package printing

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/messaging"
	"restaurant-pos/internal/models"
)

// Worker consumes print jobs and renders tickets to the printer output.
// One worker drains both the KOT and receipt queues.
type Worker struct {
	name            string
	kotConsumer     *messaging.Consumer
	receiptConsumer *messaging.Consumer
	out             io.Writer
	logger          *logger.Logger

	shutdown chan os.Signal
	done     chan bool
}

// NewWorker creates a new print worker. out is the printer device; stdout in
// development.
func NewWorker(name string, kotConsumer, receiptConsumer *messaging.Consumer, out io.Writer, log *logger.Logger) *Worker {
	return &Worker{
		name:            name,
		kotConsumer:     kotConsumer,
		receiptConsumer: receiptConsumer,
		out:             out,
		logger:          log,
		shutdown:        make(chan os.Signal, 1),
		done:            make(chan bool, 2),
	}
}

// Start runs the worker until a shutdown signal arrives.
func (w *Worker) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()

	signal.Notify(w.shutdown, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := w.kotConsumer.StartConsuming(ctx, w.handleJob); err != nil && ctx.Err() == nil {
			w.logger.Error("consumer_failed", "KOT consumer failed", requestID, err, nil)
		}
		w.done <- true
	}()
	go func() {
		if err := w.receiptConsumer.StartConsuming(ctx, w.handleJob); err != nil && ctx.Err() == nil {
			w.logger.Error("consumer_failed", "Receipt consumer failed", requestID, err, nil)
		}
		w.done <- true
	}()

	w.logger.Info("worker_started", fmt.Sprintf("Print worker %s started", w.name), requestID, map[string]interface{}{
		"worker_name": w.name,
	})

	select {
	case <-w.shutdown:
		w.logger.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
		cancel()
		<-w.done
		<-w.done
		return nil
	case <-w.done:
		cancel()
		return nil
	}
}

// handleJob renders one print job. Returning an error nacks the message so
// the ticket is requeued instead of lost.
func (w *Worker) handleJob(ctx context.Context, body []byte) error {
	var job models.PrintJob
	if err := messaging.ParseMessage(body, &job); err != nil {
		return fmt.Errorf("failed to parse print job: %w", err)
	}

	var ticket string
	switch job.Kind {
	case models.PrintKOT:
		ticket = RenderKOT(&job.Order)
	case models.PrintReceipt:
		ticket = RenderReceipt(&job.Order)
	default:
		return fmt.Errorf("unknown print job kind: %s", job.Kind)
	}

	if _, err := fmt.Fprintln(w.out, ticket); err != nil {
		return fmt.Errorf("failed to write ticket: %w", err)
	}

	w.logger.Info("ticket_printed", fmt.Sprintf("Printed %s for order #%d", job.Kind, job.Order.OrderNumber), "", map[string]interface{}{
		"kind":         string(job.Kind),
		"order_number": job.Order.OrderNumber,
	})
	return nil
}
