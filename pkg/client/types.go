package client

// Request is one row batch sent to the extension service.
type Request struct {
	TraceID string  `json:"trace_id,omitempty"`
	ReqID   string  `json:"req_id"`
	Rows    [][]any `json:"rows"`
	ReplyTo string  `json:"reply_to,omitempty"`
}

// Field describes one response column.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TableDescription is the response schema, sent ahead of the row data.
type TableDescription struct {
	Name         string  `json:"name"`
	NumberOfRows int     `json:"number_of_rows"`
	Fields       []Field `json:"fields"`
}

// Response is the typed response table with its description.
type Response struct {
	ReqID      string            `json:"req_id"`
	Table      *TableDescription `json:"table,omitempty"`
	Rows       [][]any           `json:"rows,omitempty"`
	DurationMs int64             `json:"duration_ms"`
	Error      string            `json:"error,omitempty"`
}
