package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// JetStreamConfig holds connection and stream settings for the notification
// broker.
type JetStreamConfig struct {
	URL             string
	StreamName      string
	SubjectPrefix   string
	MaxReconnects   int
	ReconnectWait   time.Duration
	MaxAge          time.Duration
	DuplicateWindow time.Duration
}

func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:             nats.DefaultURL,
		StreamName:      "DRAFT_NOTIFICATIONS",
		SubjectPrefix:   "draft.notify",
		MaxReconnects:   -1, // Infinite
		ReconnectWait:   2 * time.Second,
		MaxAge:          24 * time.Hour,
		DuplicateWindow: 2 * time.Hour,
	}
}

// JetStreamDispatcher publishes pick notifications to NATS JetStream, where
// the SMS and social outreach consumers pick them up.
type JetStreamDispatcher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config JetStreamConfig
}

func NewJetStreamDispatcher(cfg JetStreamConfig) (*JetStreamDispatcher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	d := &JetStreamDispatcher{nc: nc, js: js, config: cfg}

	if err := d.ensureStream(context.Background()); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}

	return d, nil
}

func (d *JetStreamDispatcher) ensureStream(ctx context.Context) error {
	sc := jetstream.StreamConfig{
		Name:        d.config.StreamName,
		Description: "Committed draft picks for SMS/social outreach",
		Subjects:    []string{fmt.Sprintf("%s.>", d.config.SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      d.config.MaxAge,
		Storage:     jetstream.FileStorage,
		Duplicates:  d.config.DuplicateWindow,
	}

	if _, err := d.js.Stream(ctx, d.config.StreamName); err != nil {
		if _, err = d.js.CreateStream(ctx, sc); err != nil {
			return fmt.Errorf("create stream: %w", err)
		}
		log.Info().Str("stream", d.config.StreamName).Msg("created JetStream stream")
	}
	return nil
}

// DispatchPickMade publishes one notification. The pick id doubles as the
// JetStream message id, so retries never duplicate a downstream SMS.
func (d *JetStreamDispatcher) DispatchPickMade(ctx context.Context, n PickNotification) error {
	subject := fmt.Sprintf("%s.pick_made", d.config.SubjectPrefix)

	envelope := map[string]interface{}{
		"eventId":   uuid.New().String(),
		"eventType": "PickMade",
		"sessionId": n.Pick.SessionID.String(),
		"timestamp": time.Now().UTC(),
		"payload":   n,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	_, err = d.js.PublishMsg(ctx, &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Session-ID": []string{n.Pick.SessionID.String()},
			"Pick-ID":    []string{n.Pick.ID.String()},
		},
	}, jetstream.WithMsgID(n.Pick.ID.String()))
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Close drains the NATS connection.
func (d *JetStreamDispatcher) Close() {
	d.nc.Close()
}
