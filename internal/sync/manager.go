// Package sync keeps live subscriptions on document store queries and
// delivers full snapshots to the Bubble Tea runtime.
package sync

import (
	"context"
	"errors"
	"log"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/worktrack/internal/docstore"
)

// ErrClosed is returned by Subscribe after Close.
var ErrClosed = errors.New("subscription manager closed")

// SnapshotMsg is a tea.Msg carrying the complete current member set of a
// subscription's query.
type SnapshotMsg struct {
	SubscriptionID int
	Collection     string
	Documents      []docstore.Document

	// Fallback is set when ordering was applied client-side.
	Fallback bool
}

// SubscriptionErrorMsg is a tea.Msg sent once when a subscription fails for
// a reason other than a missing index. The subscription stops afterwards.
type SubscriptionErrorMsg struct {
	SubscriptionID int
	Collection     string
	Err            error
}

// queryTimeout is the maximum time allowed for a single fetch operation.
const queryTimeout = 30 * time.Second

const defaultInterval = time.Second

// Manager owns every live subscription and the channel their snapshots are
// delivered on.
type Manager struct {
	reader   docstore.Reader
	interval time.Duration
	resultCh chan tea.Msg

	mu     gosync.Mutex
	subs   map[int]*Subscription
	nextID int
	closed bool
}

// New creates a Manager polling reader for changes every interval.
func New(reader docstore.Reader, interval time.Duration) *Manager {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Manager{
		reader:   reader,
		interval: interval,
		resultCh: make(chan tea.Msg, 16),
		subs:     make(map[int]*Subscription),
	}
}

// Subscribe starts a live subscription. The first snapshot is delivered as
// soon as the initial fetch completes.
func (m *Manager) Subscribe(q docstore.Query) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	m.nextID++
	ctx, cancel := context.WithCancel(context.Background())
	s := &Subscription{
		id:        m.nextID,
		query:     q,
		m:         m,
		ctx:       ctx,
		cancel:    cancel,
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	m.subs[s.id] = s

	go s.run()

	return s, nil
}

// Active reports whether a subscription is still attached. Messages from
// detached subscriptions may still be buffered and must be discarded.
func (m *Manager) Active(id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.subs[id]
	return ok
}

// Refresh triggers an immediate poll of every subscription on collection.
func (m *Manager) Refresh(collection string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.subs {
		if s.query.Collection != collection {
			continue
		}
		select {
		case s.triggerCh <- struct{}{}:
		default:
			// A poll is already pending.
		}
	}
}

// UnsubscribeAll detaches every subscription and returns once all of their
// goroutines have exited. The manager remains usable.
func (m *Manager) UnsubscribeAll() {
	m.mu.Lock()
	subs := make([]*Subscription, 0, len(m.subs))
	for _, s := range m.subs {
		subs = append(subs, s)
	}
	m.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
}

// Close detaches every subscription and rejects new ones.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.UnsubscribeAll()
}

// WaitForNext returns a tea.Cmd that waits for the next snapshot or error.
// It should be re-issued after each message to keep listening.
func (m *Manager) WaitForNext() tea.Cmd {
	return func() tea.Msg {
		return <-m.resultCh
	}
}

func (m *Manager) remove(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, id)
}

// Subscription is one live query.
type Subscription struct {
	id    int
	query docstore.Query
	m     *Manager

	ctx       context.Context
	cancel    context.CancelFunc
	triggerCh chan struct{}
	stopCh    chan struct{}
	done      chan struct{}
	stopOnce  gosync.Once

	// Owned by the run goroutine.
	lastRev   int64
	delivered bool
	fallback  bool
}

// ID identifies the subscription in delivered messages.
func (s *Subscription) ID() int { return s.id }

// Query returns the subscribed query.
func (s *Subscription) Query() docstore.Query { return s.query }

// Unsubscribe detaches the subscription and waits for its goroutine to
// exit. Calling it more than once is harmless.
func (s *Subscription) Unsubscribe() {
	s.stopOnce.Do(func() {
		s.m.remove(s.id)
		close(s.stopCh)
		s.cancel()
	})
	<-s.done
}

// run is the polling loop of a single subscription.
func (s *Subscription) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.m.interval)
	defer ticker.Stop()

	if !s.poll() {
		return
	}

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if !s.poll() {
				return
			}
		case <-s.triggerCh:
			if !s.poll() {
				return
			}
		}
	}
}

// poll delivers a snapshot if the collection changed since the last one.
// It returns false once the subscription must stop.
func (s *Subscription) poll() bool {
	ctx, cancel := context.WithTimeout(s.ctx, queryTimeout)
	defer cancel()

	rev, err := s.m.reader.Revision(ctx, s.query.Collection)
	if err != nil {
		s.fail(err)
		return false
	}
	if s.delivered && rev == s.lastRev {
		return true
	}

	docs, err := s.fetch(ctx)
	if err != nil {
		s.fail(err)
		return false
	}

	s.lastRev = rev
	s.delivered = true

	return s.send(SnapshotMsg{
		SubscriptionID: s.id,
		Collection:     s.query.Collection,
		Documents:      docs,
		Fallback:       s.fallback,
	})
}

// fetch runs the query, switching permanently to an unordered query sorted
// locally when the store lacks the index for the ordered one.
func (s *Subscription) fetch(ctx context.Context) ([]docstore.Document, error) {
	if !s.fallback {
		docs, err := s.m.reader.Query(ctx, s.query)
		if err == nil || !docstore.IsIndexError(err) || s.query.OrderBy == nil {
			return docs, err
		}
		log.Printf("sync: %v; ordering %s client-side", err, s.query.Collection)
		s.fallback = true
	}

	docs, err := s.m.reader.Query(ctx, s.query.Unordered())
	if err != nil {
		return nil, err
	}
	docstore.SortDocuments(docs, *s.query.OrderBy)
	return docs, nil
}

func (s *Subscription) fail(err error) {
	select {
	case <-s.stopCh:
		return
	default:
	}

	log.Printf("sync: subscription %d on %s failed: %v", s.id, s.query, err)
	s.send(SubscriptionErrorMsg{
		SubscriptionID: s.id,
		Collection:     s.query.Collection,
		Err:            err,
	})
}

// send blocks until the message is accepted or the subscription stops.
func (s *Subscription) send(msg tea.Msg) bool {
	select {
	case s.m.resultCh <- msg:
		return true
	case <-s.stopCh:
		return false
	}
}
