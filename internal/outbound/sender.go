package outbound

import "context"

// Receipt is what a channel sender reports back for a single message.
type Receipt struct {
	// Status is the provider HTTP status, 0 when no request was made.
	Status    int
	MessageID string
	// Body is the raw provider response, kept for the audit log.
	Body string
	Demo bool
}

// Sender delivers a text message over one chat channel.
type Sender interface {
	Send(ctx context.Context, to, body string) (Receipt, error)
}
