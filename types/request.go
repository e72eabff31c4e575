package types

import (
	"encoding/json"
	"time"
)

// Request is one decoded protocol request. It is immutable after creation
// and discarded once its response has been emitted.
type Request struct {
	// ID identifies the request in logs and audit records. It is assigned
	// at decode time and never appears on the wire.
	ID string `json:"-"`

	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments,omitempty"`

	// Raw is the original input line the request was decoded from.
	Raw string `json:"-"`

	// ReceivedAt is the time the input line was read.
	ReceivedAt time.Time `json:"-"`
}

// Args returns the argument map verbatim, substituting an empty object
// when the caller omitted the field.
func (r *Request) Args() json.RawMessage {
	if len(r.Arguments) == 0 {
		return json.RawMessage(`{}`)
	}
	return r.Arguments
}
