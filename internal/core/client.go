package core

// eventBuffer bounds the per-client outbound queue. Broadcasts never
// block on it; events beyond the buffer are dropped for that client.
const eventBuffer = 32

// Client is one live connection as seen by the core layer. Identity is
// the instance itself; two connections from the same user are two
// distinct clients.
type Client struct {
	ID     string
	Events chan *Event
}

// NewClient constructs a client with an initialized event queue.
func NewClient(id string) *Client {
	return &Client{
		ID:     id,
		Events: make(chan *Event, eventBuffer),
	}
}

// Enqueue offers an event to the client's queue without blocking.
// Returns false if the queue is full (slow consumer).
func (c *Client) Enqueue(event *Event) bool {
	select {
	case c.Events <- event:
		return true
	default:
		return false
	}
}
