package queue

import (
	"context"
	"errors"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/domain"
)

// ErrQueueFull is returned when the in-process queue cannot accept another
// payload. Callers log it and still ack the webhook; the contract with the
// platform is fire-and-forget.
var ErrQueueFull = errors.New("webhook queue full")

// Queue is the handoff between the synchronous webhook ack path and the
// background pipeline. Enqueue must never block the HTTP response.
type Queue interface {
	Enqueue(ctx context.Context, payload *domain.WebhookPayload) error
}

// MemoryQueue is the default single-instance implementation: a bounded
// channel drained by the webhook worker pool in the same process.
type MemoryQueue struct {
	jobs chan *domain.WebhookPayload
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 256
	}
	return &MemoryQueue{
		jobs: make(chan *domain.WebhookPayload, size),
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, payload *domain.WebhookPayload) error {
	select {
	case q.jobs <- payload:
		return nil
	default:
		return ErrQueueFull
	}
}

// Jobs exposes the drain side for the worker pool.
func (q *MemoryQueue) Jobs() <-chan *domain.WebhookPayload {
	return q.jobs
}
