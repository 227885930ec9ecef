package services

import (
	"context"
	"testing"

	"finbook/internal/amqp"
	"finbook/internal/core"
	"finbook/internal/store"
	"finbook/internal/store/jsonfile"
)

// recordingPublisher captures published mutation events.
type recordingPublisher struct {
	messages []*amqp.MutationMessage
}

func (p *recordingPublisher) PublishMutation(_ context.Context, msg *amqp.MutationMessage) error {
	p.messages = append(p.messages, msg)
	return nil
}

func openStore(t *testing.T) store.Store {
	t.Helper()
	s, err := jsonfile.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustDate(t *testing.T, iso string) core.Date {
	t.Helper()
	d, err := core.ParseDate(iso)
	if err != nil {
		t.Fatalf("parse date %q: %v", iso, err)
	}
	return d
}
