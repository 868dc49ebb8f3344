package broker

import (
	"context"

	"github.com/myrjola/whodunit/internal/errors"
)

var (
	ErrStopped          = errors.NewSentinel("broker stopped")
	ErrAlreadyPublished = errors.NewSentinel("channel already published")
)

type publication[TID comparable, TPayload any] struct {
	ID      TID
	Channel chan TPayload
	Result  chan error
}

type subscription[TID comparable, TPayload any] struct {
	ID      TID
	Channel chan chan TPayload
}

// ChannelBroker passes a channel with ID from producer to the first consumer.
// The subsequent consumers will block until producer is finished so that they
// can resolve the situation e.g. by fetching persisted data from the database.
//
// This kind of broker is useful for streaming chat responses through SSE. The
// Producer in this case is a goroutine spawned by HTTP POST to initiate the streaming.
// The first consumer is the HTTP handler that returns the SSE stream. The subsequent
// consumers are likely caused by connectivity issues. In their case, it's better to
// wait for the producer to finish and return the complete data at the end.
type ChannelBroker[TID comparable, TPayload any] struct {
	publishChannel   chan publication[TID, TPayload]
	unpublishChannel chan TID
	subscribeChannel chan subscription[TID, TPayload]
	done             chan struct{}
}

// NewChannelBroker creates a new ChannelBroker. Run Start in a goroutine before using it.
func NewChannelBroker[TID comparable, TPayload any]() *ChannelBroker[TID, TPayload] {
	return &ChannelBroker[TID, TPayload]{
		publishChannel:   make(chan publication[TID, TPayload]),
		unpublishChannel: make(chan TID),
		subscribeChannel: make(chan subscription[TID, TPayload]),
		done:             make(chan struct{}),
	}
}

// Start listening for publish, unpublish, and subscribe events. It blocks until ctx is done, so it should be called
// in a goroutine. Waiting subscribers are released when it returns.
func (b *ChannelBroker[TID, TPayload]) Start(ctx context.Context) {
	defer close(b.done)
	publishedChannels := map[TID]chan TPayload{}
	claimed := map[TID]bool{}
	waiting := map[TID][]chan chan TPayload{}
	release := func(id TID) {
		for _, c := range waiting[id] {
			close(c)
		}
		delete(waiting, id)
	}
	for {
		select {
		case <-ctx.Done():
			for id := range waiting {
				release(id)
			}
			return

		case s := <-b.subscribeChannel:
			c, ok := publishedChannels[s.ID]
			switch {
			case !ok:
				// Signal to the subscriber that the producer is finished (or hasn't started yet).
				close(s.Channel)
			case !claimed[s.ID]:
				// First subscriber gets the channel from the producer.
				claimed[s.ID] = true
				s.Channel <- c
			default:
				// Subsequent subscribers block until the producer is finished.
				waiting[s.ID] = append(waiting[s.ID], s.Channel)
			}

		case p := <-b.publishChannel:
			if _, ok := publishedChannels[p.ID]; ok {
				p.Result <- ErrAlreadyPublished
				break
			}
			publishedChannels[p.ID] = p.Channel
			p.Result <- nil

		case id := <-b.unpublishChannel:
			delete(publishedChannels, id)
			delete(claimed, id)
			release(id)
		}
	}
}

// Subscribe to the channel with ID. Returns a channel that will receive the channel corresponding to the ID.
// If the channel is not published, the returned channel will be closed.
// If there's already a subscriber, the returned channel is closed once the producer unpublishes.
func (b *ChannelBroker[TID, TPayload]) Subscribe(id TID) <-chan chan TPayload {
	channel := make(chan chan TPayload, 1)
	select {
	case b.subscribeChannel <- subscription[TID, TPayload]{ID: id, Channel: channel}:
	case <-b.done:
		close(channel)
	}
	return channel
}

// Publish the channel with ID. The channel will be sent to the first subscriber. Only one channel can be published
// per ID at a time.
func (b *ChannelBroker[TID, TPayload]) Publish(id TID, channel chan TPayload) error {
	result := make(chan error, 1)
	select {
	case b.publishChannel <- publication[TID, TPayload]{ID: id, Channel: channel, Result: result}:
		return <-result
	case <-b.done:
		return ErrStopped
	}
}

// Unpublish the channel with ID. Note that the channel will be removed from the broker which means
// that subscribers will not be able to receive the channel from the broker. The suggested way to
// get around this is an unbuffered channel that blocks the producer until it gets a consumer. If the
// consumers are unreliable, the producer should have a timeout to not block forever.
func (b *ChannelBroker[TID, TPayload]) Unpublish(id TID) {
	select {
	case b.unpublishChannel <- id:
	case <-b.done:
	}
}
