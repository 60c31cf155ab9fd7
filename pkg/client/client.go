// Package client is a NATS-based Go client for the analytics extension
// service. Each request publishes a row batch to the operation's subject
// and waits for the response on a per-request reply subject.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"
)

// ExtensionClient is the calling surface of the extension service.
type ExtensionClient interface {
	// Predict runs inference: one row per record, cells
	// [model_name, n_features, kwargs].
	Predict(ctx context.Context, rows [][]any) (*Response, error)
	// PredictKeyed runs keyed inference: cells
	// [model_name, key, n_features, kwargs].
	PredictKeyed(ctx context.Context, rows [][]any) (*Response, error)
	// MineRules runs association-rule mining: cells [group, item, kwargs].
	MineRules(ctx context.Context, rows [][]any) (*Response, error)

	Close() error
}

type NATSExtensionClient struct {
	conn          *nats.Conn
	clientID      string
	subjectPrefix string
	timeout       time.Duration
}

// NewNATSClient connects to NATS and returns a client. An empty clientID
// gets a default; subjectPrefix must match the server's configuration.
func NewNATSClient(natsURL, clientID, subjectPrefix string) (ExtensionClient, error) {
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	if clientID == "" {
		clientID = "extension-client"
	}
	if subjectPrefix == "" {
		subjectPrefix = "analytics.request"
	}

	return &NATSExtensionClient{
		conn:          conn,
		clientID:      clientID,
		subjectPrefix: subjectPrefix,
		timeout:       30 * time.Second,
	}, nil
}

func (c *NATSExtensionClient) Predict(ctx context.Context, rows [][]any) (*Response, error) {
	return c.call(ctx, "predict", rows)
}

func (c *NATSExtensionClient) PredictKeyed(ctx context.Context, rows [][]any) (*Response, error) {
	return c.call(ctx, "predict_keyed", rows)
}

func (c *NATSExtensionClient) MineRules(ctx context.Context, rows [][]any) (*Response, error) {
	return c.call(ctx, "apriori", rows)
}

func (c *NATSExtensionClient) call(ctx context.Context, operation string, rows [][]any) (*Response, error) {
	topic := fmt.Sprintf("%s.%s", c.subjectPrefix, operation)

	reqID := ulid.Make().String()
	replySubject := fmt.Sprintf("analytics.response.%s.%s", c.clientID, reqID)

	request := Request{
		ReqID:   reqID,
		Rows:    rows,
		ReplyTo: replySubject,
	}

	slog.Debug("Sending extension request",
		"topic", topic,
		"req_id", reqID,
		"rows", len(rows))

	requestBytes, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Subscribe to the reply subject before publishing
	replyChan := make(chan *nats.Msg, 1)
	sub, err := c.conn.Subscribe(replySubject, func(msg *nats.Msg) {
		replyChan <- msg
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to reply: %w", err)
	}
	defer sub.Unsubscribe()

	if err := c.conn.Publish(topic, requestBytes); err != nil {
		return nil, fmt.Errorf("failed to publish request: %w", err)
	}

	select {
	case msg := <-replyChan:
		var response Response
		if err := json.Unmarshal(msg.Data, &response); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		if response.Error != "" {
			return &response, fmt.Errorf("call failed: %s", response.Error)
		}
		return &response, nil

	case <-time.After(c.timeout):
		return nil, fmt.Errorf("request timeout after %v", c.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close closes the NATS connection.
func (c *NATSExtensionClient) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}

// SetTimeout configures request timeout.
func (c *NATSExtensionClient) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}
