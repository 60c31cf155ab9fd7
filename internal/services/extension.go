package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dsxlab/analytics-extension/internal/debuglog"
	"github.com/dsxlab/analytics-extension/internal/infer"
	"github.com/dsxlab/analytics-extension/internal/models"
	"github.com/dsxlab/analytics-extension/internal/params"
	"github.com/dsxlab/analytics-extension/internal/registry"
	"github.com/dsxlab/analytics-extension/internal/repository"
	"github.com/dsxlab/analytics-extension/internal/rules"
	"github.com/dsxlab/analytics-extension/internal/table"
)

// ExtensionService runs the request-to-inference pipeline for every
// operation: decode rows, parse execution arguments, resolve the model (or
// group transactions), execute, describe the response.
type ExtensionService struct {
	registry *registry.Registry
	repo     repository.Repository
	logDir   string
}

func NewExtensionService(reg *registry.Registry, repo repository.Repository, logDir string) *ExtensionService {
	return &ExtensionService{registry: reg, repo: repo, logDir: logDir}
}

// row contracts per operation: every cell arrives as a string
var operationColumns = map[string][]string{
	models.OpApriori:      {rules.GroupColumn, rules.ItemColumn, "kwargs"},
	models.OpPredict:      {infer.ModelColumn, infer.FeatureColumn, "kwargs"},
	models.OpPredictKeyed: {infer.ModelColumn, infer.KeyColumn, infer.FeatureColumn, "kwargs"},
}

// call carries one decoded request through execution.
type call struct {
	tbl   *table.Table
	ps    *params.Set
	debug bool
	sink  *debuglog.Sink
}

// prepare decodes the rows for an operation, parses the kwargs cell of the
// first row and drops the kwargs column from the table.
func (s *ExtensionService) prepare(function string, req models.Request) (*call, error) {
	headers, ok := operationColumns[function]
	if !ok {
		return nil, fmt.Errorf("unknown operation %q", function)
	}
	template := make([]table.Kind, len(headers))
	for i := range template {
		template[i] = table.KindString
	}

	tbl, err := table.Decode(req.Rows, template, headers)
	if err != nil {
		return nil, err
	}

	raw := ""
	if kwargs, ok := tbl.Cell(0, "kwargs"); ok {
		raw = kwargs.Str
	}
	debug, ps, err := params.Parse(raw)
	if err != nil {
		return nil, err
	}
	tbl.DropColumn("kwargs")

	c := &call{tbl: tbl, ps: ps, debug: debug}
	if debug {
		c.sink = debuglog.New(s.logDir)
		c.sink.Printf("REQUEST %s: %d rows, operation %s", req.ReqID, tbl.NumRows(), function)
		c.sink.Printf("Execution parameters: %s", ps)
	}
	return c, nil
}

// ProcessPredict executes the prediction operation. Keyed calls return
// model_name/key/prediction rows joined by key; unkeyed calls return the
// bare prediction column.
func (s *ExtensionService) ProcessPredict(ctx context.Context, req models.Request, keyed bool, source, workerID string) (response *models.Response, err error) {
	start := time.Now()
	function := models.OpPredict
	if keyed {
		function = models.OpPredictKeyed
	}
	modelName := ""

	defer func() {
		if r := recover(); r != nil {
			response, err = s.finish(ctx, req, function, modelName, source, workerID, start, nil, nil, fmt.Errorf("service panic: %v", r))
		}
	}()

	c, err := s.prepare(function, req)
	if err != nil {
		return s.finish(ctx, req, function, modelName, source, workerID, start, nil, nil, err)
	}
	defer c.sink.Close()

	if name, ok := c.tbl.Cell(0, infer.ModelColumn); ok {
		modelName = name.Str
	}

	loaded, err := s.registry.Load(modelName)
	if err != nil {
		return s.finish(ctx, req, function, modelName, source, workerID, start, c, nil, err)
	}
	c.sink.Printf("Model %q loaded, backend %s, %d features", loaded.Name, loaded.Backend, len(loaded.Schema))

	// The invocation method is a pass-through parameter, e.g.
	// return=predict_proba for probability scores.
	method := c.ps.GetString("return", "predict")

	rows, err := infer.Run(c.tbl, loaded, method, keyed)
	if err != nil {
		return s.finish(ctx, req, function, modelName, source, workerID, start, c, nil, err)
	}

	variant := models.VariantPrediction
	if keyed {
		variant = models.VariantPredict
	}
	desc, err := models.Describe(variant, len(rows))
	if err != nil {
		return s.finish(ctx, req, function, modelName, source, workerID, start, c, nil, err)
	}

	response = &models.Response{ReqID: req.ReqID, Table: desc, Rows: rows}
	return s.finish(ctx, req, function, modelName, source, workerID, start, c, response, nil)
}

// ProcessRules executes the association-rule mining operation.
func (s *ExtensionService) ProcessRules(ctx context.Context, req models.Request, source, workerID string) (response *models.Response, err error) {
	start := time.Now()
	function := models.OpApriori

	defer func() {
		if r := recover(); r != nil {
			response, err = s.finish(ctx, req, function, "", source, workerID, start, nil, nil, fmt.Errorf("service panic: %v", r))
		}
	}()

	c, err := s.prepare(function, req)
	if err != nil {
		return s.finish(ctx, req, function, "", source, workerID, start, nil, nil, err)
	}
	defer c.sink.Close()

	rows, err := rules.Run(c.tbl, c.ps)
	if err != nil {
		return s.finish(ctx, req, function, "", source, workerID, start, c, nil, err)
	}

	desc, err := models.Describe(models.VariantApriori, len(rows))
	if err != nil {
		return s.finish(ctx, req, function, "", source, workerID, start, c, nil, err)
	}

	response = &models.Response{ReqID: req.ReqID, Table: desc, Rows: rows}
	return s.finish(ctx, req, function, "", source, workerID, start, c, response, nil)
}

// finish audits the call, writes debug output and shapes the terminal
// response. Errors are terminal: no partial rows are ever returned.
func (s *ExtensionService) finish(ctx context.Context, req models.Request, function, modelName, source, workerID string, start time.Time, c *call, response *models.Response, err error) (*models.Response, error) {
	duration := time.Since(start)
	status := "ok"
	errStr := ""
	if err != nil {
		status = "error"
		errStr = err.Error()
	}

	logEntry := &models.RequestLog{
		Timestamp:  start,
		TraceID:    traceID(req),
		ReqID:      req.ReqID,
		WorkerID:   workerID,
		Source:     source,
		Function:   function,
		ModelName:  modelName,
		RowsIn:     len(req.Rows),
		DurationMs: duration.Milliseconds(),
		Status:     status,
		Error:      errStr,
	}
	if c != nil {
		logEntry.ParamsJSON = paramsJSON(c.ps)
		logEntry.Debug = c.debug
	}
	if response != nil {
		logEntry.RowsOut = len(response.Rows)
	}
	if logErr := s.repo.Request().LogRequest(ctx, logEntry); logErr != nil {
		slog.Warn("Could not audit request", "req_id", req.ReqID, "error", logErr)
	}

	if c != nil && c.sink != nil {
		if response != nil {
			c.sink.Printf("RESPONSE: %d rows, %d fields", len(response.Rows), len(response.Table.Fields))
			c.sink.Printf("Table description sent: %+v", *response.Table)
		}
		if err != nil {
			c.sink.Printf("ERROR: %v", err)
		}
	}

	if err != nil {
		slog.Error("Call failed", "req_id", req.ReqID, "function", function, "error", err)
		return &models.Response{ReqID: req.ReqID, DurationMs: duration.Milliseconds(), Error: errStr}, err
	}

	response.DurationMs = duration.Milliseconds()
	slog.Info("Call completed", "req_id", req.ReqID, "function", function, "rows_in", len(req.Rows), "rows_out", len(response.Rows), "dur_ms", duration.Milliseconds())
	return response, nil
}

// GetRequestLogs retrieves recent audited calls.
func (s *ExtensionService) GetRequestLogs(ctx context.Context, limit int) ([]*models.RequestLog, error) {
	return s.repo.Request().GetRequestLogs(ctx, limit)
}

// GetRepository returns the repository for use by other services.
func (s *ExtensionService) GetRepository() repository.Repository {
	return s.repo
}

// Registry exposes the model catalog for the listing surface.
func (s *ExtensionService) Registry() *registry.Registry {
	return s.registry
}

func traceID(req models.Request) string {
	if req.TraceID != "" {
		return req.TraceID
	}
	return req.ReqID
}

func paramsJSON(ps *params.Set) string {
	if ps == nil || ps.Len() == 0 {
		return "{}"
	}
	m := make(map[string]any, ps.Len())
	for _, k := range ps.Keys() {
		v, _ := ps.Get(k)
		m[k] = v
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}
