/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package natsutil publishes monitor notifications to NATS JetStream as
// CloudEvents.
package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/alsamon/pkg/logger"
	"github.com/carverauto/alsamon/pkg/models"
	"github.com/carverauto/alsamon/pkg/version"
)

const (
	eventSource      = "alsamon/monitor"
	maxPendingAcks   = 256
	defaultAckWindow = 5 * time.Second
)

var errPublishTimeout = errors.New("timed out waiting for publish acknowledgements")

// EventPublisher provides methods for publishing CloudEvents to NATS JetStream.
type EventPublisher struct {
	js         jetstream.JetStream
	stream     string
	prefix     string
	ackTimeout time.Duration
	logger     logger.Logger
}

// NewEventPublisher creates a new EventPublisher for the specified stream.
// Subjects are rooted at prefix.
func NewEventPublisher(js jetstream.JetStream, streamName, prefix string, log logger.Logger) *EventPublisher {
	return &EventPublisher{
		js:         js,
		stream:     streamName,
		prefix:     prefix,
		ackTimeout: defaultAckWindow,
		logger:     log,
	}
}

// SetAckTimeout bounds how long Close waits for outstanding acknowledgements.
func (p *EventPublisher) SetAckTimeout(d time.Duration) {
	if d > 0 {
		p.ackTimeout = d
	}
}

// Stream returns the name of the stream events land in.
func (p *EventPublisher) Stream() string {
	return p.stream
}

// Subject joins tokens below the publisher prefix, replacing characters NATS
// reserves.
func (p *EventPublisher) Subject(tokens ...string) string {
	parts := make([]string, 0, len(tokens)+1)
	parts = append(parts, p.prefix)

	for _, t := range tokens {
		parts = append(parts, SubjectToken(t))
	}

	return strings.Join(parts, ".")
}

// SubjectToken makes s safe to use as one subject token.
func SubjectToken(s string) string {
	if s == "" {
		return "_"
	}

	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		default:
			return r
		}
	}, s)
}

// Publish wraps data in a CloudEvent and publishes it without waiting for the
// acknowledgement. Failed acknowledgements are logged.
func (p *EventPublisher) Publish(eventType, subject string, data interface{}) error {
	now := time.Now().UTC()

	event := models.CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          eventSource,
		Type:            eventType,
		DataContentType: "application/json",
		Subject:         subject,
		Time:            &now,
		Data:            data,
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	if _, err := p.js.PublishAsync(subject, eventBytes, jetstream.WithMsgID(event.ID)); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	if p.logger != nil {
		p.logger.Debug().Str("id", event.ID).Str("subject", subject).Str("type", eventType).Msg("Published event")
	}

	return nil
}

// Close waits for outstanding acknowledgements, up to the ack timeout or
// until ctx ends.
func (p *EventPublisher) Close(ctx context.Context) error {
	if p.js.PublishAsyncPending() == 0 {
		return nil
	}

	timer := time.NewTimer(p.ackTimeout)
	defer timer.Stop()

	select {
	case <-p.js.PublishAsyncComplete():
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: %d pending", errPublishTimeout, p.js.PublishAsyncPending())
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ConnectWithSecurity creates a NATS connection with security configuration.
func ConnectWithSecurity(natsURL string, security *models.SecurityConfig, log logger.Logger, extraOpts ...nats.Option) (*nats.Conn, error) {
	var opts []nats.Option

	if security != nil && security.Mode == models.SecurityModeMTLS {
		tlsConf, err := TLSConfig(security)
		if err != nil {
			return nil, fmt.Errorf("failed to build NATS TLS config: %w", err)
		}

		opts = append(opts, nats.Secure(tlsConf))
	}

	opts = append(opts,
		nats.Name(version.UserAgent("alsa-monitor")),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Warn().Err(err).Msg("NATS error")
		}),
		nats.ConnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("Connected to NATS")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)

	opts = append(opts, extraOpts...)

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return nc, nil
}

// CreateEventPublisher creates an EventPublisher on an existing connection and
// makes sure the stream captures every subject below the configured prefix.
func CreateEventPublisher(ctx context.Context, nc *nats.Conn, cfg *models.NATSConfig, log logger.Logger) (*EventPublisher, error) {
	opts := []jetstream.JetStreamOpt{
		jetstream.WithPublishAsyncMaxPending(maxPendingAcks),
		jetstream.WithPublishAsyncErrHandler(func(_ jetstream.JetStream, msg *nats.Msg, err error) {
			log.Warn().Err(err).Str("subject", msg.Subject).Msg("Event was not acknowledged")
		}),
	}

	var (
		js  jetstream.JetStream
		err error
	)

	if cfg.Domain != "" {
		js, err = jetstream.NewWithDomain(nc, cfg.Domain, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create JetStream context with domain %s: %w", cfg.Domain, err)
		}
	} else {
		js, err = jetstream.New(nc, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create JetStream context: %w", err)
		}
	}

	if err := ensureStream(ctx, js, cfg.Stream, cfg.SubjectPrefix+".>", log); err != nil {
		return nil, err
	}

	pub := NewEventPublisher(js, cfg.Stream, cfg.SubjectPrefix, log)
	pub.SetAckTimeout(time.Duration(cfg.AckTimeout))

	return pub, nil
}

func ensureStream(ctx context.Context, js jetstream.JetStream, name, subject string, log logger.Logger) error {
	stream, err := js.Stream(ctx, name)
	if err != nil {
		if !isStreamMissingErr(err) {
			return fmt.Errorf("failed to look up stream %s: %w", name, err)
		}

		_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     name,
			Subjects: []string{subject},
		})
		if err != nil {
			return fmt.Errorf("failed to create stream %s: %w", name, err)
		}

		log.Info().Str("stream", name).Str("subject", subject).Msg("Created NATS JetStream stream")

		return nil
	}

	cfg := stream.CachedInfo().Config

	subjects := ensureSubjectList(cfg.Subjects, subject)
	if len(subjects) == len(cfg.Subjects) {
		return nil
	}

	cfg.Subjects = subjects

	if _, err := js.UpdateStream(ctx, cfg); err != nil {
		return fmt.Errorf("failed to add %s to stream %s: %w", subject, name, err)
	}

	log.Info().Str("stream", name).Str("subject", subject).Msg("Added subject to NATS JetStream stream")

	return nil
}

func isStreamMissingErr(err error) bool {
	return errors.Is(err, jetstream.ErrStreamNotFound) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrStreamNotFound) ||
		errors.Is(err, nats.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrNoResponders)
}

// ensureSubjectList appends subject unless a pattern already covers it.
func ensureSubjectList(subjects []string, subject string) []string {
	for _, s := range subjects {
		if matchesSubject(s, subject) {
			return subjects
		}
	}

	return append(subjects, subject)
}

// matchesSubject reports whether pattern, which may use the * and >
// wildcards, covers subject.
func matchesSubject(pattern, subject string) bool {
	p := strings.Split(pattern, ".")
	s := strings.Split(subject, ".")

	for i, tok := range p {
		if tok == ">" {
			return i < len(s)
		}

		if i >= len(s) {
			return false
		}

		if tok != "*" && tok != s[i] {
			return false
		}
	}

	return len(p) == len(s)
}
