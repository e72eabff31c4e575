package types

import (
	"encoding/json"
	"time"
)

// Outcome is the result of processing one Request. Exactly one Outcome is
// produced per Request, and it is consumed exactly once by the response
// writer.
type Outcome struct {
	Result   json.RawMessage `json:"result,omitempty"`
	Err      *Error          `json:"error,omitempty"`
	Duration time.Duration   `json:"duration,omitempty"`
}

// Success creates an Outcome carrying a backend result body.
func Success(result json.RawMessage) Outcome {
	return Outcome{Result: result}
}

// Failure creates an Outcome carrying a structured error.
func Failure(err *Error) Outcome {
	return Outcome{Err: err}
}

// IsError returns true if the request failed.
func (o Outcome) IsError() bool {
	return o.Err != nil
}
