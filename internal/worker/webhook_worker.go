package worker

import (
	"context"
	"sync"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/domain"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/service/queue"
	"github.com/Samer-Is/ig-shop-agent-v2/pkg/logger"
)

// PayloadProcessor is the background half of the webhook pipeline.
type PayloadProcessor interface {
	ProcessPayload(ctx context.Context, payload *domain.WebhookPayload)
}

// WebhookWorker drains the in-process queue with a bounded pool. One queued
// job per webhook delivery; each job iterates its entries serially so events
// within an entry keep delivery order.
type WebhookWorker struct {
	queue        *queue.MemoryQueue
	processor    PayloadProcessor
	logger       *logger.Logger
	workerCount  int
	shutdownChan chan struct{}
	waitGroup    sync.WaitGroup
}

func NewWebhookWorker(
	q *queue.MemoryQueue,
	processor PayloadProcessor,
	logger *logger.Logger,
	workerCount int,
) *WebhookWorker {
	if workerCount <= 0 {
		workerCount = 4
	}
	return &WebhookWorker{
		queue:        q,
		processor:    processor,
		logger:       logger,
		workerCount:  workerCount,
		shutdownChan: make(chan struct{}),
	}
}

func (w *WebhookWorker) Start() {
	w.logger.Infof("Starting %d webhook workers", w.workerCount)

	for i := 0; i < w.workerCount; i++ {
		w.waitGroup.Add(1)
		go w.runWorker(i)
	}
}

func (w *WebhookWorker) Stop() {
	w.logger.Info("Stopping webhook workers...")
	close(w.shutdownChan)
	w.waitGroup.Wait()
	w.logger.Info("All webhook workers stopped")
}

func (w *WebhookWorker) runWorker(workerID int) {
	defer w.waitGroup.Done()

	w.logger.Infof("Webhook worker %d started", workerID)

	for {
		select {
		case <-w.shutdownChan:
			w.logger.Infof("Webhook worker %d shutting down", workerID)
			return
		case payload := <-w.queue.Jobs():
			if payload == nil {
				continue
			}
			// ProcessPayload carries its own recover boundary; nothing a
			// single delivery does can take the worker down.
			w.processor.ProcessPayload(context.Background(), payload)
		}
	}
}
