package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, Message) error {
	f.calls++
	return errors.New("broker down")
}

func TestSend(t *testing.T) {
	rec := &Recorder{}
	Send(context.Background(), rec, Message{Kind: KindFixtureStarted, FixtureID: uuid.New()})

	require.Len(t, rec.Messages, 1)
	assert.False(t, rec.Messages[0].At.IsZero(), "timestamp is filled in")
	assert.Equal(t, []string{KindFixtureStarted}, rec.Kinds())

	failing := &failingPublisher{}
	assert.NotPanics(t, func() {
		Send(context.Background(), failing, Message{Kind: KindMatchConcluded})
		Send(context.Background(), nil, Message{Kind: KindMatchConcluded})
	})
	assert.Equal(t, 1, failing.calls)
}
