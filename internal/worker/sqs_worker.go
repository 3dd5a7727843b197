package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/service/queue"
	"github.com/Samer-Is/ig-shop-agent-v2/pkg/logger"
)

// SQSWorker consumes webhook payloads from the SQS handoff queue. It exists
// for deployments that split the API and the relay pipeline into separate
// instances; single-instance deployments use WebhookWorker instead.
type SQSWorker struct {
	sqsQueue     *queue.SQSQueue
	processor    PayloadProcessor
	logger       *logger.Logger
	workerCount  int
	pollInterval time.Duration
	maxMessages  int32
	waitTime     int32
	shutdownChan chan struct{}
	waitGroup    sync.WaitGroup
}

func NewSQSWorker(
	sqsQueue *queue.SQSQueue,
	processor PayloadProcessor,
	logger *logger.Logger,
	workerCount int,
	pollInterval time.Duration,
) *SQSWorker {
	return &SQSWorker{
		sqsQueue:     sqsQueue,
		processor:    processor,
		logger:       logger,
		workerCount:  workerCount,
		pollInterval: pollInterval,
		maxMessages:  10,
		waitTime:     20, // long polling
		shutdownChan: make(chan struct{}),
	}
}

func (w *SQSWorker) Start() {
	w.logger.Info("Starting SQS webhook workers...")

	for i := 0; i < w.workerCount; i++ {
		w.waitGroup.Add(1)
		go w.runWorker(i)
	}
}

func (w *SQSWorker) Stop() {
	w.logger.Info("Stopping SQS webhook workers...")
	close(w.shutdownChan)
	w.waitGroup.Wait()
	w.logger.Info("All SQS webhook workers stopped")
}

func (w *SQSWorker) runWorker(workerID int) {
	defer w.waitGroup.Done()

	w.logger.Infof("SQS worker %d started", workerID)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.shutdownChan:
			w.logger.Infof("SQS worker %d shutting down", workerID)
			return
		case <-ticker.C:
			if err := w.processMessages(context.Background()); err != nil {
				w.logger.Errorf("SQS worker %d failed to process messages: %v", workerID, err)
			}
		}
	}
}

func (w *SQSWorker) processMessages(ctx context.Context) error {
	messages, err := w.sqsQueue.ReceiveMessages(ctx, w.maxMessages, w.waitTime)
	if err != nil {
		return fmt.Errorf("failed to receive messages: %w", err)
	}

	for _, msg := range messages {
		if msg.Message.Payload == nil {
			w.logger.Warnf("Skipping SQS message without payload")
		} else {
			w.processor.ProcessPayload(ctx, msg.Message.Payload)
		}

		// The pipeline is terminal at the log layer: deliveries are never
		// retried past this point, so the message is always deleted.
		if err := w.sqsQueue.DeleteMessage(ctx, msg.ReceiptHandle); err != nil {
			w.logger.Errorf("Failed to delete message: %v", err)
		}
	}

	return nil
}
