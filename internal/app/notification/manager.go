// Package notification fans session notifications out to streaming subscribers.
package notification

import (
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	moodboxv1 "github.com/osa030/moodbox/internal/api/moodboxv1"
)

const (
	// maxPending is the backlog a subscriber may hold before it is checked for a stall.
	maxPending = 64
	// hardLimit is the backlog at which a subscriber is dropped regardless of progress.
	hardLimit = 8 * maxPending
	// defaultStallGrace is how long a subscriber over maxPending may go without
	// completing a send before it is dropped.
	defaultStallGrace = 2 * time.Second
)

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(*moodboxv1.Notification) error
}

// Subscription is one subscriber's delivery queue. Notifications are sent
// from a single goroutine per subscription, so Stream.Send is never called
// concurrently and order is preserved.
type Subscription struct {
	id     string
	stream Stream
	wake   chan struct{}
	done   chan struct{}

	mu           sync.Mutex
	pending      []*moodboxv1.Notification
	lastProgress time.Time
	ended        bool
	discard      bool
}

// ID returns the subscription ID.
func (s *Subscription) ID() string {
	return s.id
}

// Done is closed when the subscription ends: on Unsubscribe, on a failed or
// stalled delivery, or on Close.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// enqueue appends n unless the subscriber is over its backlog and stalled.
func (s *Subscription) enqueue(n *moodboxv1.Notification, grace time.Duration) bool {
	s.mu.Lock()
	backlog := len(s.pending)
	if backlog == 0 {
		// The stall clock runs from the start of a backlog.
		s.lastProgress = time.Now()
	}
	if backlog >= hardLimit || (backlog >= maxPending && time.Since(s.lastProgress) > grace) {
		s.mu.Unlock()
		return false
	}
	s.pending = append(s.pending, n)
	s.mu.Unlock()
	s.signal()
	return true
}

// end stops the subscription. With flush, pending notifications are still sent.
func (s *Subscription) end(flush bool) {
	s.mu.Lock()
	s.ended = true
	s.discard = !flush
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) run(onFail func(*Subscription)) {
	defer close(s.done)
	for {
		s.mu.Lock()
		batch := s.pending
		s.pending = nil
		ended, discard := s.ended, s.discard
		s.mu.Unlock()

		if discard || (ended && len(batch) == 0) {
			return
		}
		if len(batch) == 0 {
			<-s.wake
			continue
		}

		for _, n := range batch {
			if err := s.stream.Send(n); err != nil {
				zlog.Debug().Msgf("notification: send failed: id=%s error=%v", s.id, err)
				onFail(s)
				return
			}
			s.mu.Lock()
			s.lastProgress = time.Now()
			s.mu.Unlock()
		}
	}
}

// Manager manages notification subscriptions and broadcasting.
type Manager struct {
	mu            sync.Mutex
	subscriptions map[string]*Subscription
	sequenceNo    uint64
	closed        bool
	stallGrace    time.Duration
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*Subscription),
		stallGrace:    defaultStallGrace,
	}
}

// Subscribe registers stream and starts its delivery goroutine. Subscribing
// to a closed manager returns an already finished subscription.
func (m *Manager) Subscribe(stream Stream) *Subscription {
	return m.SubscribeWithInitial(stream, nil)
}

// SubscribeWithInitial is Subscribe with a first notification built by
// initial. initial runs while broadcasts are held off, so the notification it
// returns takes the next sequence number and every later broadcast follows it
// with no gap.
func (m *Manager) SubscribeWithInitial(stream Stream, initial func() *moodboxv1.Notification) *Subscription {
	sub := &Subscription{
		id:     uuid.New().String(),
		stream: stream,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		close(sub.done)
		return sub
	}

	if initial != nil {
		n := initial()
		n.SequenceNo = m.nextSequenceNoLocked()
		sub.enqueue(n, m.stallGrace)
	}
	m.subscriptions[sub.id] = sub
	go sub.run(func(s *Subscription) { m.Unsubscribe(s.id) })
	zlog.Debug().Msgf("notification: subscribed: id=%s count=%d", sub.id, len(m.subscriptions))
	return sub
}

func (m *Manager) nextSequenceNoLocked() uint64 {
	m.sequenceNo++
	return m.sequenceNo
}

// Unsubscribe ends a subscription, discarding what it has not sent yet.
// Unknown IDs are ignored.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(subscriptionID, false)
}

func (m *Manager) removeLocked(id string, flush bool) {
	sub, ok := m.subscriptions[id]
	if !ok {
		return
	}
	delete(m.subscriptions, id)
	sub.end(flush)
	zlog.Debug().Msgf("notification: unsubscribed: id=%s count=%d", id, len(m.subscriptions))
}

// Broadcast stamps the notification with the next sequence number and queues
// it for every subscriber. It never blocks on a subscriber.
func (m *Manager) Broadcast(notification *moodboxv1.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	notification.SequenceNo = m.nextSequenceNoLocked()
	for id, sub := range m.subscriptions {
		if !sub.enqueue(notification, m.stallGrace) {
			zlog.Warn().Msgf("notification: subscriber stalled, dropping: id=%s seq=%d", id, notification.SequenceNo)
			m.removeLocked(id, false)
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscriptions)
}

// Close ends every subscription. Pending notifications are still delivered;
// each subscription's Done closes once its backlog is flushed.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for id := range m.subscriptions {
		m.removeLocked(id, true)
	}
}
