package models

// Operation names served over the transport. Each fixes the row template
// and column headers the host must send.
const (
	OpApriori      = "apriori"
	OpPredict      = "predict"
	OpPredictKeyed = "predict_keyed"
)

// Request is one host call: an ordered batch of rows. Cell kinds are fixed
// per operation; the reserved kwargs column of row 0 carries the execution
// arguments.
type Request struct {
	TraceID string  `json:"trace_id,omitempty"`
	ReqID   string  `json:"req_id"`
	Rows    [][]any `json:"rows"`
	ReplyTo string  `json:"reply_to,omitempty"`
}

// Response carries the table description ahead of the row data so hosts
// can set up receiving columns before consuming rows.
type Response struct {
	ReqID      string            `json:"req_id"`
	Table      *TableDescription `json:"table,omitempty"`
	Rows       [][]any           `json:"rows,omitempty"`
	DurationMs int64             `json:"duration_ms"`
	Error      string            `json:"error,omitempty"`
}
