package core

import "sync"

// Room groups clients editing the same shared document. All state
// transitions happen under the room's own mutex, so events observed by
// the members of one room form a single total order while rooms never
// block each other.
type Room struct {
	Name string

	mu      sync.Mutex
	code    string
	clients map[*Client]struct{}
	defunct bool // set when the hub dropped the room; no further joins
}

func newRoom(name string) *Room {
	return &Room{
		Name:    name,
		clients: make(map[*Client]struct{}),
	}
}

// Join adds a client and returns the document snapshot plus the member
// count after the add. The snapshot is queued on the client as an init
// event inside the same critical section as the add, so no concurrent
// update can land on the client's queue ahead of it: the new member
// sees the snapshot first and every later update strictly after it.
// Returns ok=false when the room has already been dropped by the hub;
// callers must look the room up again.
func (r *Room) Join(c *Client) (code string, users int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.defunct {
		return "", 0, false
	}
	r.clients[c] = struct{}{}
	c.Enqueue(&Event{Kind: EventInit, Code: r.code})
	return r.code, len(r.clients), true
}

// Leave removes a client and returns the remaining member count.
// Safe to call when the client was already removed.
func (r *Room) Leave(c *Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
	return len(r.clients)
}

// ApplyUpdate replaces the shared document and fans the new content out
// to every member except the sender, whose editor already holds it.
func (r *Room) ApplyUpdate(sender *Client, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.code = code
	event := &Event{Kind: EventDocUpdate, Code: code}
	for client := range r.clients {
		if client == sender {
			continue
		}
		client.Enqueue(event)
	}
}

// BroadcastPresence sends the current member count to every member.
func (r *Room) BroadcastPresence() {
	r.mu.Lock()
	defer r.mu.Unlock()
	event := &Event{Kind: EventPresence, Users: len(r.clients)}
	for client := range r.clients {
		client.Enqueue(event)
	}
}

// BroadcastFile relays a file notification to every member, the sender
// included: unlike a document update, the sender's own file list is not
// yet updated locally when it reports the event.
func (r *Room) BroadcastFile(kind EventKind, filename string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event := &Event{Kind: kind, Filename: filename}
	for client := range r.clients {
		client.Enqueue(event)
	}
}

// Code returns a snapshot of the shared document.
func (r *Room) Code() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.code
}

// Users returns the current member count.
func (r *Room) Users() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// retire marks the room defunct if and only if it is empty. The hub
// calls this with the registry lock held so that "check empty" and
// "drop room" are atomic with respect to concurrent joins.
func (r *Room) retire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.clients) > 0 {
		return false
	}
	r.defunct = true
	return true
}
