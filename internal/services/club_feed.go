// internal/services/club_feed.go
package services

import (
	"sync"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/clubhub/internal/metrics"
)

// NotificationSource is the subset of *pq.Listener the feed reads from.
type NotificationSource interface {
	NotificationChannel() <-chan *pq.Notification
	Close() error
}

// ClubChange describes one change pushed by the database. Reconnect is set
// after the listener re-establishes its connection; changes may have been missed.
type ClubChange struct {
	ClubID    string
	Reconnect bool
}

type feedSubscriber struct {
	clubID string
	fn     func(ClubChange)
}

// ClubFeed fans LISTEN/NOTIFY events out to subscribers. Subscribers with an
// empty club id receive every change; others only changes to their club.
type ClubFeed struct {
	source NotificationSource
	log    *logrus.Entry

	mu     sync.RWMutex
	subs   map[int]feedSubscriber
	nextID int

	done      chan struct{}
	closeOnce sync.Once
}

func NewClubFeed(source NotificationSource) *ClubFeed {
	return &ClubFeed{
		source: source,
		log:    logrus.WithField("component", "club_feed"),
		subs:   make(map[int]feedSubscriber),
		done:   make(chan struct{}),
	}
}

// Start dispatches notifications until the source closes or Close is called.
func (f *ClubFeed) Start() {
	go f.run()
}

func (f *ClubFeed) run() {
	ch := f.source.NotificationChannel()
	for {
		select {
		case <-f.done:
			return
		case n, ok := <-ch:
			if !ok {
				f.log.Warn("Notification channel closed")
				return
			}
			if n == nil {
				// pq delivers nil after a reconnect.
				f.dispatch(ClubChange{Reconnect: true})
				continue
			}
			f.dispatch(ClubChange{ClubID: n.Extra})
		}
	}
}

func (f *ClubFeed) dispatch(change ClubChange) {
	f.mu.RLock()
	targets := make([]func(ClubChange), 0, len(f.subs))
	for _, sub := range f.subs {
		if change.Reconnect || sub.clubID == "" || sub.clubID == change.ClubID {
			targets = append(targets, sub.fn)
		}
	}
	f.mu.RUnlock()

	for _, fn := range targets {
		fn(change)
	}
}

// Subscribe registers fn and returns its cancel func. Use an empty clubID to
// follow the whole collection.
func (f *ClubFeed) Subscribe(clubID string, fn func(ClubChange)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = feedSubscriber{clubID: clubID, fn: fn}
	f.mu.Unlock()
	metrics.AddSubscribers(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
			metrics.AddSubscribers(-1)
		})
	}
}

func (f *ClubFeed) Close() error {
	var err error
	f.closeOnce.Do(func() {
		close(f.done)
		err = f.source.Close()
	})
	return err
}
