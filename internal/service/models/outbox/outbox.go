package outbox

import (
	"time"
)

// OutboxMessage represents a message that failed to be published to RabbitMQ.
// ID is the store key and is not part of the stored document.
type OutboxMessage struct {
	ID           string    `json:"-"`
	QueueName    string    `json:"queueName"`
	ExchangeName string    `json:"exchangeName"`
	RoutingKey   string    `json:"routingKey"`
	Payload      []byte    `json:"payload"`
	ContentType  string    `json:"contentType"`
	RetryCount   int       `json:"retryCount"`
	MaxRetries   int       `json:"maxRetries"`
	LastError    string    `json:"lastError"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	NextRetryAt  time.Time `json:"nextRetryAt"`
}

// Pending reports whether the message is due for another attempt at now.
func (m OutboxMessage) Pending(now time.Time) bool {
	return m.RetryCount < m.MaxRetries && !m.NextRetryAt.After(now)
}
