// Package events publishes engine events to NATS subjects consumed by the
// real-time broadcast layer. Publishing is fire-and-forget from the engine's
// point of view; callers log failures and move on, a dropped event never rolls
// back the state change that produced it.
package events

import (
	"context"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/nats-io/nats.go"

	"github.com/pickemlab/confidence-pool/internal/platform/logging"
	"github.com/pickemlab/confidence-pool/internal/usecase"
)

const (
	SubjectGameResult      = "pool.game.result"
	SubjectGameLock        = "pool.game.lock"
	SubjectStandingsUpdate = "pool.standings.update"
	SubjectWeeklyWinner    = "pool.week.winner"
)

type NATSConfig struct {
	URL     string
	Token   string
	Name    string
	Timeout time.Duration
}

// Connect dials the broker with reconnect enabled so a broker restart does
// not take the engine down with it.
func Connect(cfg NATSConfig) (*nats.Conn, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		url = nats.DefaultURL
	}
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "confidence-pool"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	opts := []nats.Option{
		nats.Name(name),
		nats.Timeout(timeout),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	}
	if token := strings.TrimSpace(cfg.Token); token != "" {
		opts = append(opts, nats.Token(token))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, crerr.Wrapf(err, "connect nats %s", url)
	}
	return conn, nil
}

// NATSPublisher implements usecase.EventPublisher on top of a NATS
// connection.
type NATSPublisher struct {
	conn   *nats.Conn
	logger *logging.Logger
}

func NewNATSPublisher(conn *nats.Conn, logger *logging.Logger) *NATSPublisher {
	if logger == nil {
		logger = logging.Default()
	}
	return &NATSPublisher{conn: conn, logger: logger}
}

func (p *NATSPublisher) PublishGameResult(ctx context.Context, event usecase.GameResultEvent) error {
	return p.publish(ctx, SubjectGameResult, event)
}

func (p *NATSPublisher) PublishGameLock(ctx context.Context, event usecase.GameLockEvent) error {
	return p.publish(ctx, SubjectGameLock, event)
}

func (p *NATSPublisher) PublishStandingsUpdate(ctx context.Context, event usecase.StandingsUpdateEvent) error {
	return p.publish(ctx, SubjectStandingsUpdate, event)
}

func (p *NATSPublisher) PublishWeeklyWinner(ctx context.Context, event usecase.WeeklyWinnerEvent) error {
	return p.publish(ctx, SubjectWeeklyWinner, event)
}

func (p *NATSPublisher) publish(ctx context.Context, subject string, payload any) error {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return crerr.Wrapf(err, "marshal event %s", subject)
	}
	if err := p.conn.Publish(subject, body); err != nil {
		return crerr.Wrapf(err, "publish event %s", subject)
	}
	p.logger.DebugContext(ctx, "event published", "subject", subject, "bytes", len(body))
	return nil
}

// Close flushes buffered publishes before dropping the connection.
func (p *NATSPublisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.FlushTimeout(2 * time.Second); err != nil {
		p.logger.Warn("flush nats connection", "error", err)
	}
	p.conn.Close()
}
