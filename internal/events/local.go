package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// subscriberBuffer matches the buffer the redis subscriber uses.
const subscriberBuffer = 64

// Local is an in-process Broker for single-node deployments without redis.
// A subscriber that falls behind by more than subscriberBuffer payloads
// misses the overflow instead of stalling publishers.
type Local struct {
	mu     sync.RWMutex
	subs   map[string]map[*localSub]struct{}
	closed bool
}

type localSub struct {
	ch   chan []byte
	once sync.Once
}

// NewLocal creates an in-process broker.
func NewLocal() *Local {
	return &Local{subs: make(map[string]map[*localSub]struct{})}
}

// Publish delivers payload to every current subscriber of channel.
func (l *Local) Publish(_ context.Context, channel string, payload []byte) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for s := range l.subs[channel] {
		select {
		case s.ch <- payload:
		default:
			log.Warn().Str("channel", channel).Msg("events: subscriber buffer full, dropping payload")
		}
	}
	return nil
}

// Subscribe registers a subscriber. The returned channel is closed when ctx
// ends, when cleanup is called, or when the broker is closed.
func (l *Local) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	s := &localSub{ch: make(chan []byte, subscriberBuffer)}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		close(s.ch)
		return s.ch, func() {}, nil
	}
	if l.subs[channel] == nil {
		l.subs[channel] = make(map[*localSub]struct{})
	}
	l.subs[channel][s] = struct{}{}
	l.mu.Unlock()

	stop := make(chan struct{})
	cleanup := func() {
		s.once.Do(func() {
			close(stop)
			l.remove(channel, s)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cleanup()
		case <-stop:
		}
	}()

	return s.ch, cleanup, nil
}

// Close ends every subscription.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	for channel, set := range l.subs {
		for s := range set {
			close(s.ch)
		}
		delete(l.subs, channel)
	}
	return nil
}

func (l *Local) remove(channel string, s *localSub) {
	l.mu.Lock()
	defer l.mu.Unlock()

	set, ok := l.subs[channel]
	if !ok {
		return
	}
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(l.subs, channel)
	}
	close(s.ch)
}
