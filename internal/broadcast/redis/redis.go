// Package redis relays message broadcasts between server instances over
// Redis pub/sub.
//
// Each instance publishes locally and to the shared channel. The Relay
// subscribes to the same channel and re-publishes envelopes that originated
// elsewhere into the local hub.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatline-server/internal/core"
)

// ErrUnsupportedPayload is returned for payloads that cannot cross instances.
var ErrUnsupportedPayload = errors.New("unsupported broadcast payload")

type envelope struct {
	Origin string      `json:"origin"`
	Topic  string      `json:"topic"`
	Msg    wireMessage `json:"msg"`
}

type wireMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}

func encode(origin, topic string, payload any) ([]byte, error) {
	update, ok := payload.(core.MessageUpdate)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedPayload, payload)
	}
	return json.Marshal(envelope{
		Origin: origin,
		Topic:  topic,
		Msg: wireMessage{
			ID:        update.Msg.ID,
			Text:      update.Msg.Text,
			Author:    update.Msg.Author,
			Timestamp: update.Msg.Timestamp.UTC(),
		},
	})
}

func decode(data []byte) (envelope, core.MessageUpdate, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return envelope{}, core.MessageUpdate{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, core.MessageUpdate{Msg: core.Message{
		ID:        env.Msg.ID,
		Text:      env.Msg.Text,
		Author:    env.Msg.Author,
		Timestamp: env.Msg.Timestamp.UTC(),
	}}, nil
}

// Publisher sends broadcasts to a Redis channel.
type Publisher struct {
	client  *redis.Client
	channel string
	origin  string
}

// NewPublisher creates a Publisher tagging envelopes with origin.
func NewPublisher(client *redis.Client, channel, origin string) *Publisher {
	return &Publisher{client: client, channel: channel, origin: origin}
}

// Publish encodes the payload and publishes it on the channel.
func (p *Publisher) Publish(ctx context.Context, topic string, payload any) error {
	data, err := encode(p.origin, topic, payload)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

var _ core.Publisher = (*Publisher)(nil)

// Relay forwards broadcasts from other instances into a local publisher.
type Relay struct {
	client  *redis.Client
	channel string
	origin  string
	local   core.Publisher
	log     *zerolog.Logger
}

// NewRelay creates a Relay. Envelopes tagged with origin are skipped since
// this instance already delivered them.
func NewRelay(client *redis.Client, channel, origin string, local core.Publisher, logger *zerolog.Logger) *Relay {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Relay{
		client:  client,
		channel: channel,
		origin:  origin,
		local:   local,
		log:     logger,
	}
}

// Run subscribes to the channel and blocks until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %q: %w", r.channel, err)
	}
	r.log.Info().Str("channel", r.channel).Msg("relay subscribed")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("relay stopping")
			return nil
		case msg, ok := <-ch:
			if !ok {
				r.log.Warn().Msg("relay channel closed")
				return nil
			}
			r.handle(ctx, []byte(msg.Payload))
		}
	}
}

func (r *Relay) handle(ctx context.Context, data []byte) {
	env, update, err := decode(data)
	if err != nil {
		r.log.Error().Err(err).Msg("relay: bad envelope")
		return
	}
	if env.Origin == r.origin {
		return
	}
	if err := r.local.Publish(ctx, env.Topic, update); err != nil {
		r.log.Warn().Err(err).Str("message_id", update.Msg.ID).Msg("relay: local publish failed")
	}
}
