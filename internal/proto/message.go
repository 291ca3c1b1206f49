package proto

// Message type tags, shared by both directions of the protocol.
const (
	TypeInit   = "init"
	TypeUsers  = "users"
	TypeUpdate = "update"
	TypeFile   = "file"
	TypeDelete = "delete"
)

// Inbound is a frame received from the client. Which payload field is
// meaningful depends on Type; frames with an unknown type are ignored.
type Inbound struct {
	Type     string `json:"type"`
	Code     string `json:"code"`
	Filename string `json:"filename"`
}

// Init carries the full document to a member that just joined.
type Init struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

// Users carries the member count after any join or leave.
type Users struct {
	Type  string `json:"type"`
	Users int    `json:"users"`
}

// Update carries a wholesale replacement of the shared document.
type Update struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

// FileEvent announces a file attached to or removed from the room.
type FileEvent struct {
	Type     string `json:"type"`
	Filename string `json:"filename"`
}
