package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/KiritoZik/psb-AI-backend/internal/core/domain"
)

func TestClassifyPublishError(t *testing.T) {
	cases := []struct {
		name          string
		err           error
		retryable     bool
		recordFailure bool
	}{
		{"no servers", nats.ErrNoServers, true, true},
		{"timeout", nats.ErrTimeout, true, true},
		{"connection closed", nats.ErrConnectionClosed, true, true},
		{"disconnected", nats.ErrDisconnected, true, true},
		{"canceled context", context.Canceled, false, false},
		{"deadline exceeded", context.DeadlineExceeded, false, false},
		{"payload too big", nats.ErrMaxPayload, false, true},
		{"unknown", errors.New("boom"), false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyPublishError(tc.err)
			if got.Retryable != tc.retryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tc.retryable)
			}
			if got.RecordFailure != tc.recordFailure {
				t.Errorf("RecordFailure = %v, want %v", got.RecordFailure, tc.recordFailure)
			}
		})
	}
}

func TestMarkTemporaryTagsTransientFailures(t *testing.T) {
	if err := markTemporary(nats.ErrTimeout); !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("transient publish failure must map to temporary, got %v", err)
	}

	permanent := errors.New("subject rejected")
	if err := markTemporary(permanent); !errors.Is(err, permanent) || domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("permanent failure must pass through untouched, got %v", err)
	}

	already := domain.WrapError(domain.ErrTemporary, "publish letter", nats.ErrTimeout)
	if err := markTemporary(already); err != already {
		t.Fatalf("already-tagged error must not be re-wrapped, got %v", err)
	}

	if err := markTemporary(nil); err != nil {
		t.Fatalf("nil error must stay nil, got %v", err)
	}
}
