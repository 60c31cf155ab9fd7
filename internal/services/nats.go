package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/dsxlab/analytics-extension/internal/config"
	"github.com/dsxlab/analytics-extension/internal/models"
)

// generateWorkerID creates a unique worker ID using timestamp and random bytes
func generateWorkerID() string {
	timestamp := time.Now().UnixNano()
	randomBytes := make([]byte, 4)
	rand.Read(randomBytes)
	randomHex := hex.EncodeToString(randomBytes)
	return fmt.Sprintf("worker-%d-%s", timestamp, randomHex)
}

type NATSService struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	service *ExtensionService
	cfg     *config.Config
}

func NewNATSService(cfg *config.Config, service *ExtensionService) (*NATSService, error) {
	conn, err := nats.Connect(cfg.NatsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &NATSService{
		conn:    conn,
		js:      js,
		service: service,
		cfg:     cfg,
	}, nil
}

func (s *NATSService) Start(ctx context.Context) error {
	if err := s.ensureStream(); err != nil {
		return fmt.Errorf("failed to ensure stream: %w", err)
	}

	consumer, err := s.createConsumer()
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	slog.Info("NATS service starting",
		"stream", s.cfg.Stream,
		"subjects", s.cfg.SubjectPrefix+".>",
		"consumer", s.cfg.Durable,
		"concurrency", s.cfg.Concurrency)

	for i := 0; i < s.cfg.Concurrency; i++ {
		workerID := generateWorkerID()
		go s.worker(ctx, consumer, workerID)
	}

	// Block until context is cancelled
	<-ctx.Done()
	slog.Info("NATS service shutting down")

	s.conn.Close()
	return nil
}

func (s *NATSService) ensureStream() error {
	subject := s.cfg.SubjectPrefix + ".>"
	streamInfo, err := s.js.StreamInfo(s.cfg.Stream)
	if err != nil {
		if err == nats.ErrStreamNotFound {
			_, err = s.js.AddStream(&nats.StreamConfig{
				Name:      s.cfg.Stream,
				Subjects:  []string{subject},
				MaxMsgs:   int64(s.cfg.MaxMsgs),
				MaxAge:    s.cfg.MaxAge,
				Storage:   nats.FileStorage,
				Retention: nats.WorkQueuePolicy,
			})
			if err != nil {
				return fmt.Errorf("failed to create stream: %w", err)
			}
			slog.Info("Created NATS stream", "name", s.cfg.Stream)
			return nil
		}
		return fmt.Errorf("failed to get stream info: %w", err)
	}

	hasSubject := false
	for _, existing := range streamInfo.Config.Subjects {
		if existing == subject {
			hasSubject = true
			break
		}
	}
	if !hasSubject {
		newConfig := streamInfo.Config
		newConfig.Subjects = append(newConfig.Subjects, subject)
		if _, err = s.js.UpdateStream(&newConfig); err != nil {
			return fmt.Errorf("failed to update stream with new subject: %w", err)
		}
		slog.Info("Updated NATS stream with new subject", "name", s.cfg.Stream, "subject", subject)
	} else {
		slog.Info("NATS stream already exists", "name", s.cfg.Stream, "messages", streamInfo.State.Msgs)
	}
	return nil
}

func (s *NATSService) createConsumer() (*nats.Subscription, error) {
	sub, err := s.js.PullSubscribe(s.cfg.SubjectPrefix+".>", s.cfg.Durable, nats.ManualAck())
	if err != nil {
		return nil, fmt.Errorf("failed to create pull consumer: %w", err)
	}
	slog.Info("Created NATS consumer", "durable", s.cfg.Durable)
	return sub, nil
}

func (s *NATSService) worker(ctx context.Context, consumer *nats.Subscription, workerID string) {
	slog.Info("NATS worker starting", "worker_id", workerID)

	for {
		select {
		case <-ctx.Done():
			slog.Info("NATS worker shutting down", "worker_id", workerID)
			return
		default:
			msgs, err := consumer.Fetch(1, nats.MaxWait(time.Second))
			if err != nil {
				if err == nats.ErrTimeout {
					continue // Normal timeout, continue polling
				}
				slog.Error("Failed to fetch messages", "worker_id", workerID, "error", err)
				time.Sleep(time.Second) // Back off on error
				continue
			}

			for _, msg := range msgs {
				s.processMessage(ctx, msg, workerID)
			}
		}
	}
}

func (s *NATSService) processMessage(ctx context.Context, msg *nats.Msg, workerID string) {
	defer msg.Ack()

	operation := strings.TrimPrefix(msg.Subject, s.cfg.SubjectPrefix+".")

	var req models.Request
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		slog.Error("Invalid request payload", "worker_id", workerID, "subject", msg.Subject, "error", err)
		s.service.GetRepository().Event().LogEvent(ctx, "error", "request.malformed", "Invalid request payload", map[string]interface{}{
			"subject": msg.Subject,
			"error":   err.Error(),
		})
		return
	}

	var response *models.Response
	switch operation {
	case models.OpPredict:
		response, _ = s.service.ProcessPredict(ctx, req, false, "nats."+operation, workerID)
	case models.OpPredictKeyed:
		response, _ = s.service.ProcessPredict(ctx, req, true, "nats."+operation, workerID)
	case models.OpApriori:
		response, _ = s.service.ProcessRules(ctx, req, "nats."+operation, workerID)
	default:
		response = &models.Response{ReqID: req.ReqID, Error: fmt.Sprintf("unknown operation %q", operation)}
	}

	replyTo := req.ReplyTo
	if replyTo == "" {
		replyTo = msg.Reply
	}
	if replyTo == "" {
		slog.Warn("No reply subject for request", "req_id", req.ReqID, "subject", msg.Subject)
		return
	}

	payload, err := json.Marshal(response)
	if err != nil {
		slog.Error("Could not marshal response", "req_id", req.ReqID, "error", err)
		return
	}
	if err := s.conn.Publish(replyTo, payload); err != nil {
		slog.Error("Could not publish response", "req_id", req.ReqID, "reply_to", replyTo, "error", err)
	}
}
