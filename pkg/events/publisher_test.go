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

package events

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/vcsync/pkg/logger"
	"github.com/carverauto/vcsync/pkg/models"
)

var errPublishFailed = errors.New("publish failed")

type published struct {
	subject string
	payload []byte
}

type fakeJetStream struct {
	msgs   []published
	failAt int
}

func (f *fakeJetStream) Publish(_ context.Context, subject string, payload []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.failAt > 0 && len(f.msgs)+1 == f.failAt {
		return nil, errPublishFailed
	}

	f.msgs = append(f.msgs, published{subject: subject, payload: payload})

	return &jetstream.PubAck{Stream: DefaultStream, Sequence: uint64(len(f.msgs))}, nil
}

func testReport() *models.Report {
	finished := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	return &models.Report{
		RunID:    "run-1",
		Source:   "vc01.example.com",
		Started:  finished.Add(-time.Minute),
		Finished: finished,
		Outcomes: []models.Outcome{
			{Kind: models.EntityHost, Name: "esx01", Action: models.ActionCreated, Strategy: models.StrategyNone, RecordID: 9},
			{Kind: models.EntityVM, Name: "web01", Action: models.ActionSkipped, Reason: "duplicate_name"},
			{Kind: models.EntityVM, Name: "web02", UUID: "4210", Pass: "SCANNING_ALL", Action: models.ActionUpdated, Strategy: models.StrategyMAC},
		},
	}
}

func TestPublishReport(t *testing.T) {
	t.Parallel()

	js := &fakeJetStream{}
	p := NewPublisher(js, DefaultSubject, logger.NewTestLogger())

	sent, err := p.PublishReport(context.Background(), testReport())
	require.NoError(t, err)
	assert.Equal(t, 2, sent, "skipped outcomes are not published")
	require.Len(t, js.msgs, 2)

	for _, m := range js.msgs {
		assert.Equal(t, "vcsync.entities.vc01_example_com", m.subject)
	}

	var event struct {
		models.CloudEvent
		Data EntityData `json:"data"`
	}

	require.NoError(t, json.Unmarshal(js.msgs[1].payload, &event))
	assert.Equal(t, "1.0", event.SpecVersion)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "vcsync/vc01.example.com", event.Source)
	assert.Equal(t, "com.carverauto.vcsync.entity.updated", event.Type)
	assert.Equal(t, "web02", event.Subject)
	require.NotNil(t, event.Time)
	assert.True(t, event.Time.Equal(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, EntityData{
		RunID:    "run-1",
		Source:   "vc01.example.com",
		Kind:     models.EntityVM,
		Name:     "web02",
		UUID:     "4210",
		Pass:     "SCANNING_ALL",
		Strategy: models.StrategyMAC,
	}, event.Data)
}

func TestPublishReportStopsOnError(t *testing.T) {
	t.Parallel()

	js := &fakeJetStream{failAt: 2}
	p := NewPublisher(js, "custom", logger.NewTestLogger())

	sent, err := p.PublishReport(context.Background(), testReport())
	require.ErrorIs(t, err, errPublishFailed)
	assert.Equal(t, 1, sent)
}

func TestPublishWithoutConnection(t *testing.T) {
	t.Parallel()

	p := &Publisher{}

	_, err := p.PublishReport(context.Background(), testReport())
	require.ErrorIs(t, err, errNotConnected)
	require.NoError(t, p.Close())
}

func TestEnsureSubjectList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		subjects []string
		subject  string
		want     []string
	}{
		{
			name:    "adds subject when list empty",
			subject: "vcsync.entities.>",
			want:    []string{"vcsync.entities.>"},
		},
		{
			name:     "keeps list when greater wildcard matches",
			subjects: []string{"vcsync.>"},
			subject:  "vcsync.entities.>",
			want:     []string{"vcsync.>"},
		},
		{
			name:     "single wildcard does not cover greater wildcard",
			subjects: []string{"vcsync.entities.*"},
			subject:  "vcsync.entities.>",
			want:     []string{"vcsync.entities.*", "vcsync.entities.>"},
		},
		{
			name:     "appends when unmatched",
			subjects: []string{"events.poller.*"},
			subject:  "vcsync.entities.>",
			want:     []string{"events.poller.*", "vcsync.entities.>"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, ensureSubjectList(append([]string(nil), tc.subjects...), tc.subject))
		})
	}
}

func TestMatchesSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		subject string
		want    bool
	}{
		{"vcsync.entities.vc01", "vcsync.entities.vc01", true},
		{"vcsync.*.vc01", "vcsync.entities.vc01", true},
		{"vcsync.>", "vcsync.entities.vc01", true},
		{"vcsync.entities", "vcsync.entities.vc01", false},
		{"vcsync.entities.vc01.x", "vcsync.entities.vc01", false},
		{"other.>", "vcsync.entities.vc01", false},
	}

	for _, tc := range tests {
		t.Run(tc.pattern, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, matchesSubject(tc.pattern, tc.subject))
		})
	}
}

func TestTLSConfig(t *testing.T) {
	t.Parallel()

	_, err := (&TLSConfig{CertFile: "client.pem"}).build()
	require.ErrorIs(t, err, errKeyPairRequired)

	bad := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(bad, []byte("not a certificate"), 0o600))

	_, err = (&TLSConfig{CAFile: bad}).build()
	require.ErrorIs(t, err, ErrCAParsingFailed)

	conf, err := (&TLSConfig{ServerName: "nats.internal"}).build()
	require.NoError(t, err)
	assert.Equal(t, "nats.internal", conf.ServerName)
}

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	var cfg *Config
	assert.False(t, cfg.Enabled())

	cfg = &Config{URL: "nats://localhost:4222"}
	assert.True(t, cfg.Enabled())
	assert.Equal(t, DefaultStream, cfg.stream())
	assert.Equal(t, DefaultSubject, cfg.subject())
}
