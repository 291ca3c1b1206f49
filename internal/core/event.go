package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventInit delivers the full document to a client upon joining a room.
	EventInit EventKind = iota
	// EventPresence notifies clients about the room's current member count.
	EventPresence
	// EventDocUpdate notifies clients that the shared document was replaced.
	EventDocUpdate
	// EventFileAdded notifies clients that a file was attached to the room.
	EventFileAdded
	// EventFileRemoved notifies clients that a file was removed from the room.
	EventFileRemoved
)

// Event is sent to clients to describe what happened in their room.
type Event struct {
	Kind     EventKind
	Code     string // document content for EventInit and EventDocUpdate
	Users    int    // member count for EventPresence
	Filename string // file name for EventFileAdded and EventFileRemoved
}
