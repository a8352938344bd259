package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"txScope/internal/model"
)

// StreamName is the JetStream stream holding published records.
const StreamName = "TXSCOPE"

// StreamRetention is how long published records are kept.
const StreamRetention = 90 * 24 * time.Hour

type publisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Publisher publishes each record to "<prefix>.<event_type>".
type Publisher struct {
	nc     *nats.Conn
	js     publisher
	prefix string
	logger *zap.Logger
}

// NewPublisher connects to NATS and ensures the stream exists.
func NewPublisher(ctx context.Context, natsURL, prefix string, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if natsURL == "" {
		return nil, fmt.Errorf("nats url is required")
	}
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		return nil, fmt.Errorf("nats subject prefix is required")
	}

	nc, err := nats.Connect(natsURL,
		nats.Name("txscope-publisher"),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	if err := ensureStream(ctx, js, prefix, logger); err != nil {
		nc.Close()
		return nil, err
	}

	logger.Info("nats publisher ready", zap.String("stream", StreamName), zap.String("subjects", prefix+".>"))
	return &Publisher{nc: nc, js: js, prefix: prefix, logger: logger}, nil
}

func ensureStream(ctx context.Context, js jetstream.JetStream, prefix string, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	logger.Info("creating jetstream stream", zap.String("stream", StreamName))
	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Description: "Classified NFT transactions",
		Subjects:    []string{prefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      StreamRetention,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		return fmt.Errorf("create stream: %w", err)
	}
	return nil
}

// Subject returns the subject a record of eventType is published on.
func (p *Publisher) Subject(eventType model.EventTag) string {
	return p.prefix + "." + strings.ToLower(string(eventType))
}

// PutBatch publishes every record, deduplicated by hash on the server side.
// A failed publish is logged and the batch continues; the error count is returned.
func (p *Publisher) PutBatch(ctx context.Context, records []model.TransactionRecord) error {
	failed := 0
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record %s: %w", rec.TxHash, err)
		}
		subject := p.Subject(rec.EventType)
		if _, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(rec.TxHash)); err != nil {
			failed++
			p.logger.Error("publish record failed",
				zap.String("subject", subject),
				zap.String("tx_hash", rec.TxHash),
				zap.Error(err),
			)
			continue
		}
	}
	if failed > 0 {
		return fmt.Errorf("publish: %d of %d records failed", failed, len(records))
	}
	p.logger.Debug("published batch", zap.Int("count", len(records)))
	return nil
}

func (p *Publisher) Close() error {
	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			p.nc.Close()
			return err
		}
	}
	return nil
}
