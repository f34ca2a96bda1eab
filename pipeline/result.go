package pipeline

import "github.com/feathr-ai/feathr-online/value"

// Status is the top-level outcome of running one request through a
// pipeline (step 5).
type Status string

const (
	StatusOK    Status = "OK"
	StatusError Status = "ERROR"
)

// ErrorEntry is one entry of the per-request error ledger: a cell-level
// Error value replaced by Null in Data, recorded here instead.
type ErrorEntry struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
}

// Result is the outcome of Executor.Run, matching the response shape for
// a single entry of the `results` array. On StatusError, Data and Errors
// carry no meaning and Count is 0; count and data are omitted entirely
// from the JSON encoding.
type Result struct {
	Status   Status       `json:"status"`
	Count    int          `json:"count,omitempty"`
	Data     []value.Row  `json:"data,omitempty"`
	Pipeline string       `json:"pipeline"`
	Errors   []ErrorEntry `json:"errors,omitempty"`
	TimeMs   float64      `json:"time"`
	failure  string       // set only on StatusError, for logging; not serialized directly
}

// Failure returns the reason a StatusError Result failed, or "" on success.
func (r Result) Failure() string { return r.failure }
