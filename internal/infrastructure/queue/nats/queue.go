package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/yemyatmin/shop-assistant/internal/infrastructure/resilience"
)

// Queue carries the offline pipeline triggers between the admin endpoints and
// the worker: document ingestion requests (payload is the source path) and
// catalog backfill requests (no payload).
type Queue struct {
	conn            *nats.Conn
	ingestSubject   string
	backfillSubject string
	executor        *resilience.Executor

	mu   sync.Mutex
	subs []*nats.Subscription
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func New(url, ingestSubject, backfillSubject string) (*Queue, error) {
	return NewWithOptions(url, ingestSubject, backfillSubject, Options{})
}

func NewWithOptions(url, ingestSubject, backfillSubject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("shop-assistant"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:            conn,
		ingestSubject:   ingestSubject,
		backfillSubject: backfillSubject,
		executor:        options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	q.mu.Lock()
	subs := q.subs
	q.subs = nil
	q.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Drain(); err != nil {
			slog.Warn("nats_drain_failed", "subject", sub.Subject, "error", err)
		}
	}
	if q.conn != nil {
		if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
			slog.Warn("nats_flush_failed", "error", err)
		}
		q.conn.Close()
	}
}

func (q *Queue) PublishDocumentIngest(ctx context.Context, sourcePath string) error {
	return q.publish(ctx, q.ingestSubject, []byte(sourcePath))
}

func (q *Queue) PublishCatalogBackfill(ctx context.Context) error {
	return q.publish(ctx, q.backfillSubject, nil)
}

func (q *Queue) publish(ctx context.Context, subject string, payload []byte) error {
	call := func(_ context.Context) error {
		if err := q.conn.Publish(subject, payload); err != nil {
			return fmt.Errorf("nats publish %s: %w", subject, err)
		}
		return nil
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

// SubscribeDocumentIngest registers the handler and returns; delivery stops
// when the queue is closed or ctx is canceled.
func (q *Queue) SubscribeDocumentIngest(ctx context.Context, handler func(context.Context, string) error) error {
	return q.subscribe(ctx, q.ingestSubject, func(handlerCtx context.Context, msg *nats.Msg) error {
		return handler(handlerCtx, string(msg.Data))
	})
}

func (q *Queue) SubscribeCatalogBackfill(ctx context.Context, handler func(context.Context) error) error {
	return q.subscribe(ctx, q.backfillSubject, func(handlerCtx context.Context, _ *nats.Msg) error {
		return handler(handlerCtx)
	})
}

func (q *Queue) subscribe(ctx context.Context, subject string, handle func(context.Context, *nats.Msg) error) error {
	sub, err := q.conn.QueueSubscribe(subject, "workers", func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handle(handlerCtx, msg); err != nil {
			slog.Error("worker_handler_failed", "subject", subject, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", subject, err)
	}
	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	q.mu.Lock()
	q.subs = append(q.subs, sub)
	q.mu.Unlock()
	return nil
}
