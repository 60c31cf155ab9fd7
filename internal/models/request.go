package models

import "time"

// RequestLog is one audited call.
type RequestLog struct {
	Timestamp  time.Time `json:"ts"`
	TraceID    string    `json:"trace_id"`
	ReqID      string    `json:"req_id"`
	WorkerID   string    `json:"worker_id"`
	Source     string    `json:"source"`
	Function   string    `json:"function"`
	ModelName  string    `json:"model_name"`
	RowsIn     int       `json:"rows_in"`
	RowsOut    int       `json:"rows_out"`
	ParamsJSON string    `json:"params_json"`
	Debug      bool      `json:"debug"`
	DurationMs int64     `json:"dur_ms"`
	Status     string    `json:"status"`
	Error      string    `json:"error"`
}
