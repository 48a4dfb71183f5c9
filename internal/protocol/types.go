package protocol

// Command is the inner method-call payload of an inbound envelope.
type Command struct {
	Name   string         `json:"command"`
	Args   []any          `json:"args,omitempty"`
	Kwargs map[string]any `json:"kwargs,omitempty"`
}

// Envelope is one inbound wire frame: a command plus its caller-chosen
// correlation id. The id is opaque and echoed verbatim in the reply; it is
// the sole correlation key.
type Envelope struct {
	Command Command `json:"command"`
	ID      string  `json:"id"`
}

// Reply tags.
const (
	TagResponse = "response"
	TagError    = "error"
)

// Reply is the outbound success frame. Response is always present, even
// when the method result is null or false.
type Reply struct {
	ID       string `json:"id"`
	Tag      string `json:"tag"`
	Response any    `json:"response"`
}

// ErrorReply is the outbound failure frame, mutually exclusive with Reply
// for a given id.
type ErrorReply struct {
	ID    string    `json:"id"`
	Tag   string    `json:"tag"`
	Error ErrorInfo `json:"error"`
}

// ErrorInfo is the structured error description carried by an ErrorReply.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Error kinds surfaced in ErrorReply frames.
const (
	KindNotFound       = "NotFound"
	KindCallError      = "CallError"
	KindUnknownCommand = "UnknownCommand"
	KindDecodeError    = "DecodeError"
)
