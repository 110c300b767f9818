package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/avvvet/voicebuddy-actions/internal/config"
	"github.com/avvvet/voicebuddy-actions/internal/handlers"
	"github.com/avvvet/voicebuddy-actions/internal/models"
)

// drainPoll is how often Close checks whether subscriptions finished draining
const drainPoll = 10 * time.Millisecond

// subscription is the part of *nats.Subscription used on shutdown
type subscription interface {
	Drain() error
	IsValid() bool
}

type subscribed struct {
	sub     subscription
	subject string
}

type NATSTransport struct {
	conn    *nats.Conn
	config  *config.Config
	handler *handlers.ActionHandler
	logger  *slog.Logger

	subs []subscribed
	wg   sync.WaitGroup
}

// Connect opens the NATS connection shared by the transport and the call side effects
func Connect(cfg *config.Config, logger *slog.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(cfg.NatsURL,
		nats.Name(cfg.ServiceName),
		nats.Timeout(cfg.NatsTimeout),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1), // Infinite reconnects
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("connected to NATS server", "url", cfg.NatsURL)
	return conn, nil
}

func NewNATSTransport(conn *nats.Conn, cfg *config.Config, handler *handlers.ActionHandler, logger *slog.Logger) *NATSTransport {
	return &NATSTransport{
		conn:    conn,
		config:  cfg,
		handler: handler,
		logger:  logger,
	}
}

func (nt *NATSTransport) Start() error {
	routes := map[string]func(context.Context, []byte) []byte{
		nt.config.NatsCallStartSubject: nt.handleStartCall,
		nt.config.NatsCallEndSubject:   nt.handleEndCall,
		nt.config.NatsSchemasSubject:   nt.handleSchemas,
		nt.config.NatsInvokeSubject:    nt.handleInvoke,
	}

	for subject, route := range routes {
		sub, err := nt.conn.QueueSubscribe(subject, nt.config.NatsQueueGroup, nt.serve(route))
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		nt.subs = append(nt.subs, subscribed{sub: sub, subject: subject})
		nt.logger.Info("subscribed", "subject", subject, "queue", nt.config.NatsQueueGroup)
	}
	return nil
}

// serve answers each request on its own goroutine so one slow call
// (an action waiting for speech) does not hold the others
func (nt *NATSTransport) serve(route func(context.Context, []byte) []byte) nats.MsgHandler {
	return func(msg *nats.Msg) {
		nt.wg.Add(1)
		go func() {
			defer nt.wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), nt.config.ActionTimeout+nt.config.SideEffectTimeout)
			defer cancel()

			reply := route(ctx, msg.Data)
			if err := msg.Respond(reply); err != nil {
				nt.logger.Error("failed to send response", "subject", msg.Subject, "error", err)
			}
		}()
	}
}

func (nt *NATSTransport) handleStartCall(ctx context.Context, data []byte) []byte {
	var request models.StartCallRequest
	if err := json.Unmarshal(data, &request); err != nil {
		nt.logger.Warn("error parsing start request", "error", err)
		return nt.encode(&models.StartCallResponse{
			Status:       models.StatusError,
			ErrorCode:    stringPtr(models.ErrorParseError),
			ErrorMessage: stringPtr("Invalid request format"),
		})
	}
	return nt.encode(nt.handler.StartCall(ctx, &request))
}

func (nt *NATSTransport) handleEndCall(ctx context.Context, data []byte) []byte {
	var request models.EndCallRequest
	if err := json.Unmarshal(data, &request); err != nil {
		nt.logger.Warn("error parsing end request", "error", err)
		return nt.encode(&models.StartCallResponse{
			Status:       models.StatusError,
			ErrorCode:    stringPtr(models.ErrorParseError),
			ErrorMessage: stringPtr("Invalid request format"),
		})
	}
	return nt.encode(nt.handler.EndCall(ctx, &request))
}

func (nt *NATSTransport) handleSchemas(ctx context.Context, data []byte) []byte {
	var request models.SchemasRequest
	if err := json.Unmarshal(data, &request); err != nil {
		nt.logger.Warn("error parsing schemas request", "error", err)
		return nt.encode(&models.SchemasResponse{
			Status:       models.StatusError,
			ErrorCode:    stringPtr(models.ErrorParseError),
			ErrorMessage: stringPtr("Invalid request format"),
		})
	}
	return nt.encode(nt.handler.Schemas(ctx, &request))
}

func (nt *NATSTransport) handleInvoke(ctx context.Context, data []byte) []byte {
	var request models.InvokeRequest
	if err := json.Unmarshal(data, &request); err != nil {
		nt.logger.Warn("error parsing invoke request", "error", err)
		return nt.encode(&models.InvokeResponse{
			Status:       models.StatusError,
			ErrorCode:    stringPtr(models.ErrorParseError),
			ErrorMessage: stringPtr("Invalid request format"),
		})
	}

	nt.logger.Debug("processing tool call", "session_id", request.SessionID, "name", request.Name)
	response := nt.handler.Invoke(ctx, &request)
	nt.logger.Debug("tool call answered", "session_id", response.SessionID, "status", response.Status, "result", response.Result)
	return nt.encode(response)
}

func (nt *NATSTransport) encode(response any) []byte {
	data, err := json.Marshal(response)
	if err != nil {
		nt.logger.Error("failed to marshal response", "error", err)
		return []byte(`{"status":"ERROR","error_code":"INTERNAL_ERROR"}`)
	}
	return data
}

// Close stops receiving requests and waits for in-flight ones, until ctx is done.
// Drain is asynchronous: a subscription turns invalid once every pending
// message went through the handler, only then no request can start anymore.
func (nt *NATSTransport) Close(ctx context.Context) error {
	for _, s := range nt.subs {
		if err := s.sub.Drain(); err != nil {
			nt.logger.Warn("failed to drain subscription", "subject", s.subject, "error", err)
		}
	}

	ticker := time.NewTicker(drainPoll)
	defer ticker.Stop()
	for _, s := range nt.subs {
		for s.sub.IsValid() {
			select {
			case <-ctx.Done():
				return fmt.Errorf("draining %s: %w", s.subject, ctx.Err())
			case <-ticker.C:
			}
		}
	}
	nt.subs = nil

	done := make(chan struct{})
	go func() {
		nt.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight requests: %w", ctx.Err())
	}
}

func stringPtr(s string) *string {
	return &s
}
