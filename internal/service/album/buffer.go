// Package album buffers photos that arrive as part of a media group before
// the /winter command that turns them into a submission. The buffer is
// in-process state: it holds nothing durable, and an album nobody submits is
// eventually dropped.
package album

import (
	"sync"
	"time"
)

// Entry is one buffered photo of an album.
type Entry struct {
	FileID  string
	Caption string
}

type albumState struct {
	entries []Entry
	// first non-empty caption seen for the album; backfills every entry
	// that has no caption of its own
	caption  string
	lastSeen time.Time
}

// Buffer maps media group ids to their buffered photos. All appends for the
// same key run under the buffer lock, so concurrent photo updates of one
// album never interleave. Keys older than ttl are evicted lazily on the next
// Observe or Drain; ttl 0 keeps abandoned albums forever.
type Buffer struct {
	mu     sync.Mutex
	ttl    time.Duration
	albums map[string]*albumState
}

func NewBuffer(ttl time.Duration) *Buffer {
	return &Buffer{
		ttl:    ttl,
		albums: make(map[string]*albumState),
	}
}

// Observe appends one photo to the album's buffer. If this is the first
// non-empty caption for the album, every earlier caption-less entry is
// backfilled with it; later caption-less entries inherit it on append.
func (b *Buffer) Observe(key, fileID, caption string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.evictStale(now)

	state := b.albums[key]
	if state == nil {
		state = &albumState{}
		b.albums[key] = state
	}
	state.lastSeen = now

	if caption != "" && state.caption == "" {
		state.caption = caption
		for i := range state.entries {
			if state.entries[i].Caption == "" {
				state.entries[i].Caption = caption
			}
		}
	}

	effective := caption
	if effective == "" {
		effective = state.caption
	}
	state.entries = append(state.entries, Entry{FileID: fileID, Caption: effective})
}

// Drain removes and returns the buffered entries for key in arrival order,
// or nil when nothing is buffered.
func (b *Buffer) Drain(key string) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.evictStale(time.Now())

	state := b.albums[key]
	if state == nil {
		return nil
	}
	delete(b.albums, key)
	return state.entries
}

// Len reports how many albums are currently buffered.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.albums)
}

func (b *Buffer) evictStale(now time.Time) {
	if b.ttl <= 0 {
		return
	}
	for key, state := range b.albums {
		if now.Sub(state.lastSeen) > b.ttl {
			delete(b.albums, key)
		}
	}
}
