package core

import "sync"

// Hub is the registry of active rooms. Rooms come into existence on
// first join and are dropped once their last member leaves; a room name
// is reusable afterwards but starts from a fresh empty document.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*Room)}
}

// Join adds the client to the named room, creating the room when
// absent. It returns the room, the document snapshot taken at the
// moment of the add, and the member count including the new client.
func (h *Hub) Join(name string, c *Client) (*Room, string, int) {
	for {
		room := h.getOrCreate(name)
		if code, users, ok := room.Join(c); ok {
			return room, code, users
		}
		// Lost the race against removal of a dying room; take a fresh one.
	}
}

// Leave removes the client from the room, tells the remaining members
// the new count, and drops the room from the registry if it became
// empty. Returns the remaining member count. Idempotent per client.
func (h *Hub) Leave(room *Room, c *Client) int {
	users := room.Leave(c)
	room.BroadcastPresence()
	if users == 0 {
		h.removeIfEmpty(room)
	}
	return users
}

// Rooms returns the number of active rooms.
func (h *Hub) Rooms() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

func (h *Hub) getOrCreate(name string) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[name]
	if room == nil {
		room = newRoom(name)
		h.rooms[name] = room
	}
	return room
}

// removeIfEmpty drops the room when it is still registered and still
// empty. Retiring the room under the registry lock closes the race
// with a concurrent join: a join either lands before the check and
// keeps the room alive, or observes the defunct flag and retries
// against a fresh room.
func (h *Hub) removeIfEmpty(room *Room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room.Name] != room {
		return
	}
	if room.retire() {
		delete(h.rooms, room.Name)
	}
}
