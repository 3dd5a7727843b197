package domain

// Types for the Instagram webhook batch envelope. These are ephemeral: they
// live only for the duration of pipeline processing and are never persisted.

type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry is one page's worth of batched inbound events in a single delivery.
type Entry struct {
	ID        string           `json:"id"`
	Time      int64            `json:"time"`
	Messaging []MessagingEvent `json:"messaging"`
}

// MessagingEvent is one inbound message from one sender to one page.
type MessagingEvent struct {
	Sender    Participant    `json:"sender"`
	Recipient Participant    `json:"recipient"`
	Timestamp int64          `json:"timestamp"`
	Message   InboundMessage `json:"message"`
}

type Participant struct {
	ID string `json:"id"`
}

type InboundMessage struct {
	MID  string `json:"mid"`
	Text string `json:"text"`
}

// ConversationEvent is the record of one processed messaging event, published
// to the merchant's live conversation stream. Success/failure of the outbound
// send is observable only here and in the logs.
type ConversationEvent struct {
	MerchantID  string `json:"merchant_id"`
	SenderID    string `json:"sender_id"`
	MessageText string `json:"message_text"`
	ReplyText   string `json:"reply_text,omitempty"`
	Delivered   bool   `json:"delivered"`
	Timestamp   int64  `json:"timestamp"`
}
