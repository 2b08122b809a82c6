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

// Package events publishes CloudEvents for the CMDB records a run created
// or updated to a NATS JetStream stream.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/vcsync/pkg/logger"
	"github.com/carverauto/vcsync/pkg/models"
)

const (
	DefaultStream  = "VCSYNC"
	DefaultSubject = "vcsync.entities"

	eventTypePrefix = "com.carverauto.vcsync.entity."
	sourcePrefix    = "vcsync/"
)

var errNotConnected = errors.New("publisher has no NATS connection")

// Config holds the NATS settings. Events are disabled when URL is empty.
type Config struct {
	URL       string     `json:"url" yaml:"url"`
	Stream    string     `json:"stream" yaml:"stream"`
	Subject   string     `json:"subject" yaml:"subject"`
	Domain    string     `json:"domain" yaml:"domain"`
	CredsFile string     `json:"creds_file" yaml:"creds_file"`
	TLS       *TLSConfig `json:"tls,omitempty" yaml:"tls,omitempty"`
}

// Enabled reports whether a NATS URL is configured.
func (c *Config) Enabled() bool { return c != nil && c.URL != "" }

func (c *Config) stream() string {
	if c.Stream == "" {
		return DefaultStream
	}

	return c.Stream
}

func (c *Config) subject() string {
	if c.Subject == "" {
		return DefaultSubject
	}

	return c.Subject
}

// publisher is the subset of jetstream.JetStream used to emit events.
type publisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// EntityData is the CloudEvent payload for one reconciled entity.
type EntityData struct {
	RunID    string            `json:"run_id"`
	Source   string            `json:"source"`
	Kind     models.EntityKind `json:"kind"`
	Name     string            `json:"name"`
	UUID     string            `json:"uuid,omitempty"`
	Pass     string            `json:"pass,omitempty"`
	Strategy models.Strategy   `json:"strategy,omitempty"`
	RecordID int               `json:"record_id,omitempty"`
}

// Publisher emits one CloudEvent per created or updated entity.
type Publisher struct {
	js      publisher
	nc      *nats.Conn
	subject string
	logger  logger.Logger
}

// NewPublisher wraps an existing JetStream handle.
func NewPublisher(js publisher, subject string, log logger.Logger) *Publisher {
	return &Publisher{
		js:      js,
		subject: subject,
		logger:  log.WithComponent("events"),
	}
}

// Connect dials NATS, makes sure the stream exists and captures the
// configured subject, and returns a publisher owning the connection.
func Connect(ctx context.Context, cfg *Config, log logger.Logger) (*Publisher, error) {
	log = log.WithComponent("events")

	opts := []nats.Option{
		nats.Name("vcsync"),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	if cfg.CredsFile != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFile))
	}

	if cfg.TLS != nil {
		tlsConf, err := cfg.TLS.build()
		if err != nil {
			return nil, err
		}

		opts = append(opts, nats.Secure(tlsConf))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	var js jetstream.JetStream
	if cfg.Domain != "" {
		js, err = jetstream.NewWithDomain(nc, cfg.Domain)
	} else {
		js, err = jetstream.New(nc)
	}

	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if err := ensureStream(ctx, js, cfg.stream(), cfg.subject()+".>"); err != nil {
		nc.Close()
		return nil, err
	}

	log.Info().
		Str("url", nc.ConnectedUrl()).
		Str("stream", cfg.stream()).
		Str("subject", cfg.subject()).
		Msg("Connected to NATS JetStream")

	p := NewPublisher(js, cfg.subject(), log)
	p.nc = nc

	return p, nil
}

func ensureStream(ctx context.Context, js jetstream.JetStream, name, subject string) error {
	sc := jetstream.StreamConfig{Name: name, Subjects: []string{subject}}

	if stream, err := js.Stream(ctx, name); err == nil {
		info, err := stream.Info(ctx)
		if err != nil {
			return fmt.Errorf("failed to read stream %s: %w", name, err)
		}

		sc = info.Config
		sc.Subjects = ensureSubjectList(sc.Subjects, subject)
	}

	if _, err := js.CreateOrUpdateStream(ctx, sc); err != nil {
		return fmt.Errorf("failed to create or update stream %s: %w", name, err)
	}

	return nil
}

// ensureSubjectList appends subject unless an existing pattern covers it.
func ensureSubjectList(subjects []string, subject string) []string {
	for _, s := range subjects {
		if matchesSubject(s, subject) {
			return subjects
		}
	}

	return append(subjects, subject)
}

// matchesSubject reports whether pattern covers subject using NATS
// wildcard rules. A ">" in subject is only covered by ">" in pattern.
func matchesSubject(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")

	for i, p := range pt {
		if p == ">" {
			return len(st) > i
		}

		if i >= len(st) {
			return false
		}

		if p != "*" && p != st[i] {
			return false
		}

		if p == "*" && st[i] == ">" {
			return false
		}
	}

	return len(pt) == len(st)
}

// subjectToken makes name safe for use as one NATS subject token.
func subjectToken(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t':
			return '_'
		default:
			return r
		}
	}, name)
}

// PublishReport publishes the created and updated outcomes of report and
// returns the number of events sent. Publishing stops at the first error.
func (p *Publisher) PublishReport(ctx context.Context, report *models.Report) (int, error) {
	if p.js == nil {
		return 0, errNotConnected
	}

	subject := p.subject + "." + subjectToken(report.Source)
	sent := 0

	for i := range report.Outcomes {
		o := &report.Outcomes[i]
		if o.Action != models.ActionCreated && o.Action != models.ActionUpdated {
			continue
		}

		event := models.NewCloudEvent(
			sourcePrefix+report.Source,
			eventTypePrefix+string(o.Action),
			o.Name,
			report.Finished,
			EntityData{
				RunID:    report.RunID,
				Source:   report.Source,
				Kind:     o.Kind,
				Name:     o.Name,
				UUID:     o.UUID,
				Pass:     o.Pass,
				Strategy: o.Strategy,
				RecordID: o.RecordID,
			},
		)

		payload, err := json.Marshal(event)
		if err != nil {
			return sent, fmt.Errorf("failed to marshal event for %q: %w", o.Name, err)
		}

		if _, err := p.js.Publish(ctx, subject, payload, jetstream.WithMsgID(event.ID)); err != nil {
			return sent, fmt.Errorf("failed to publish event for %q: %w", o.Name, err)
		}

		sent++
	}

	p.logger.Debug().
		Str("source", report.Source).
		Str("subject", subject).
		Int("events", sent).
		Msg("Published entity events")

	return sent, nil
}

// Close drains the owned NATS connection, if any.
func (p *Publisher) Close() error {
	if p.nc == nil {
		return nil
	}

	return p.nc.Drain()
}
