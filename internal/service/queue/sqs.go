package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/Samer-Is/ig-shop-agent-v2/internal/config"
	"github.com/Samer-Is/ig-shop-agent-v2/internal/domain"
)

// Message is the envelope carried on the SQS webhook queue.
type Message struct {
	Payload   *domain.WebhookPayload `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

// ReceivedMessage pairs a decoded message with its receipt handle for
// post-processing deletion.
type ReceivedMessage struct {
	Message       Message
	ReceiptHandle *string
}

// SQSQueue routes webhook payloads through SQS so the relay can run as
// separate API and worker instances. It satisfies Queue on the send side.
type SQSQueue struct {
	client          *sqs.Client
	webhookQueueURL string
}

func NewSQSQueue(client *sqs.Client, cfg *config.SQSConfig) *SQSQueue {
	return &SQSQueue{
		client:          client,
		webhookQueueURL: cfg.WebhookQueueURL,
	}
}

func (q *SQSQueue) Enqueue(ctx context.Context, payload *domain.WebhookPayload) error {
	msg := Message{
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook message: %w", err)
	}

	input := &sqs.SendMessageInput{
		MessageBody: aws.String(string(body)),
		QueueUrl:    aws.String(q.webhookQueueURL),
	}

	if _, err := q.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("failed to send webhook message: %w", err)
	}

	return nil
}

// ReceiveMessages long-polls the webhook queue.
func (q *SQSQueue) ReceiveMessages(ctx context.Context, maxMessages int32, waitTimeSeconds int32) ([]ReceivedMessage, error) {
	input := &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.webhookQueueURL),
		MaxNumberOfMessages: maxMessages,
		WaitTimeSeconds:     waitTimeSeconds,
	}

	output, err := q.client.ReceiveMessage(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to receive messages: %w", err)
	}

	var messages []ReceivedMessage
	for _, msg := range output.Messages {
		var message Message
		if err := json.Unmarshal([]byte(*msg.Body), &message); err != nil {
			return nil, fmt.Errorf("failed to unmarshal webhook message: %w", err)
		}
		messages = append(messages, ReceivedMessage{
			Message:       message,
			ReceiptHandle: msg.ReceiptHandle,
		})
	}

	return messages, nil
}

func (q *SQSQueue) DeleteMessage(ctx context.Context, receiptHandle *string) error {
	input := &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.webhookQueueURL),
		ReceiptHandle: receiptHandle,
	}

	if _, err := q.client.DeleteMessage(ctx, input); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	return nil
}
