package events

import (
	"context"
	"sync"

	"github.com/orgplan/orgplan/internal/domain"
	"github.com/orgplan/orgplan/internal/ports"
)

const defaultJournalSize = 1024

// Journal is a subscriber that keeps the most recent events in memory.
type Journal struct {
	mu     sync.Mutex
	buf    []domain.Event
	next   int
	filled bool
}

var _ ports.EventSubscriber = (*Journal)(nil)

// NewJournal returns a journal holding up to size events. A non-positive size
// uses a default of 1024.
func NewJournal(size int) *Journal {
	if size <= 0 {
		size = defaultJournalSize
	}
	return &Journal{buf: make([]domain.Event, size)}
}

// Name implements ports.EventSubscriber.
func (j *Journal) Name() string {
	return "journal"
}

// Handle implements ports.EventSubscriber.
func (j *Journal) Handle(_ context.Context, e domain.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.buf[j.next] = e
	j.next++
	if j.next == len(j.buf) {
		j.next = 0
		j.filled = true
	}
	return nil
}

// Recent returns up to n events, oldest first. A non-positive n returns
// everything held.
func (j *Journal) Recent(n int) []domain.Event {
	j.mu.Lock()
	defer j.mu.Unlock()

	var all []domain.Event
	if j.filled {
		all = append(all, j.buf[j.next:]...)
	}
	all = append(all, j.buf[:j.next]...)

	if n > 0 && n < len(all) {
		all = all[len(all)-n:]
	}
	return all
}
