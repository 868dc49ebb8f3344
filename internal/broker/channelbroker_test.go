package broker_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/myrjola/whodunit/internal/broker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelBroker(t *testing.T) {
	type testCase struct {
		name     string
		testFunc func(t *testing.T, b *broker.ChannelBroker[string, string])
	}
	tests := []testCase{
		{
			name: "subscriber receives content",
			testFunc: func(t *testing.T, b *broker.ChannelBroker[string, string]) {
				id := "game/group"
				channel := make(chan string)
				require.NoError(t, b.Publish(id, channel))
				go func() {
					channel <- "hello"
					close(channel)
					b.Unpublish(id)
				}()
				subscriptionChan := <-b.Subscribe(id)
				require.Equal(t, "hello", <-subscriptionChan, "subscriber did not receive content")
				msg, ok := <-subscriptionChan
				require.Empty(t, msg, "subscriber received content after producer closed")
				require.Falsef(t, ok, "channel not closed")
			},
		},
		{
			name: "unpublished channel closes subscription",
			testFunc: func(t *testing.T, b *broker.ChannelBroker[string, string]) {
				c, ok := <-b.Subscribe("unknown")
				require.Nil(t, c)
				require.False(t, ok)
			},
		},
		{
			name: "one channel per id",
			testFunc: func(t *testing.T, b *broker.ChannelBroker[string, string]) {
				require.NoError(t, b.Publish("game/group", make(chan string)))
				require.ErrorIs(t, b.Publish("game/group", make(chan string)), broker.ErrAlreadyPublished)
				require.NoError(t, b.Publish("game/arthur-graves", make(chan string)))
				b.Unpublish("game/group")
				require.NoError(t, b.Publish("game/group", make(chan string)))
			},
		},
		{
			name: "subsequent subscribers block until producer is finished",
			testFunc: func(t *testing.T, b *broker.ChannelBroker[string, string]) {
				id := "game/group"
				channel := make(chan string)
				require.NoError(t, b.Publish(id, channel))
				producerFinished := atomic.Bool{}

				// First subscriber
				subscriptionChan := <-b.Subscribe(id)
				require.NotNil(t, subscriptionChan)

				// Next subscriber
				next := b.Subscribe(id)

				// Finish producer
				go func() {
					channel <- "hello"
					close(channel)
					producerFinished.Store(true)
					b.Unpublish(id)
				}()
				require.Equal(t, "hello", <-subscriptionChan, "subscriber did not receive content")

				nextSubscriptionChan, ok := <-next
				require.Nil(t, nextSubscriptionChan, "subsequent subscriber received content")
				require.False(t, ok, "channel not closed to signal producer is finished")
				require.True(t, producerFinished.Load(), "producer not finished before subsequent subscriber unblocked")

				// Last subscriber
				lastSubscriptionChan, ok := <-b.Subscribe(id)
				require.Nil(t, lastSubscriptionChan, "last subscriber received content")
				require.False(t, ok, "last subscriber channel not closed to signal producer is finished")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			br := broker.NewChannelBroker[string, string]()
			go br.Start(ctx)
			t.Cleanup(cancel)
			tt.testFunc(t, br)
		})
	}
}

func TestChannelBroker_Stop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	br := broker.NewChannelBroker[string, string]()
	stopped := make(chan struct{})
	go func() {
		br.Start(ctx)
		close(stopped)
	}()

	require.NoError(t, br.Publish("game/group", make(chan string)))
	<-br.Subscribe("game/group")
	waiting := br.Subscribe("game/group")

	cancel()
	<-stopped

	_, ok := <-waiting
	assert.False(t, ok, "waiting subscriber not released")
	require.ErrorIs(t, br.Publish("game/group", make(chan string)), broker.ErrStopped)
	_, ok = <-br.Subscribe("game/group")
	assert.False(t, ok)
	br.Unpublish("game/group")
}
