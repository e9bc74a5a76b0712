package album_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dresesc/winter-references-bot/internal/service/album"
)

func TestBuffer_ObserveAndDrain(t *testing.T) {
	buf := album.NewBuffer(0)

	buf.Observe("album-1", "file-a", "")
	buf.Observe("album-1", "file-b", "")
	buf.Observe("album-2", "file-x", "other")

	entries := buf.Drain("album-1")
	assert.Len(t, entries, 2)
	assert.Equal(t, "file-a", entries[0].FileID)
	assert.Equal(t, "file-b", entries[1].FileID)

	t.Run("drain removes the key", func(t *testing.T) {
		assert.Empty(t, buf.Drain("album-1"))
	})

	t.Run("other albums are untouched", func(t *testing.T) {
		entries := buf.Drain("album-2")
		assert.Len(t, entries, 1)
		assert.Equal(t, "file-x", entries[0].FileID)
	})

	t.Run("unknown key drains empty", func(t *testing.T) {
		assert.Empty(t, buf.Drain("never-seen"))
	})
}

func TestBuffer_CaptionBackfill(t *testing.T) {
	t.Run("earlier empty captions are backfilled", func(t *testing.T) {
		buf := album.NewBuffer(0)
		buf.Observe("album", "p1", "")
		buf.Observe("album", "p2", "hello")

		entries := buf.Drain("album")
		assert.Equal(t, "hello", entries[0].Caption)
		assert.Equal(t, "hello", entries[1].Caption)
	})

	t.Run("later empty captions inherit the backfill", func(t *testing.T) {
		buf := album.NewBuffer(0)
		buf.Observe("album", "p1", "")
		buf.Observe("album", "p2", "hello")
		buf.Observe("album", "p3", "")

		entries := buf.Drain("album")
		assert.Equal(t, "hello", entries[2].Caption)
	})

	t.Run("first non-empty caption wins", func(t *testing.T) {
		buf := album.NewBuffer(0)
		buf.Observe("album", "p1", "")
		buf.Observe("album", "p2", "first")
		buf.Observe("album", "p3", "second")
		buf.Observe("album", "p4", "")

		entries := buf.Drain("album")
		assert.Equal(t, "first", entries[0].Caption)
		assert.Equal(t, "first", entries[1].Caption)
		assert.Equal(t, "second", entries[2].Caption, "a photo's own caption is never overwritten")
		assert.Equal(t, "first", entries[3].Caption)
	})
}

func TestBuffer_TTLEviction(t *testing.T) {
	buf := album.NewBuffer(10 * time.Millisecond)

	buf.Observe("stale", "file-a", "")
	time.Sleep(25 * time.Millisecond)

	// touching the buffer sweeps expired keys
	buf.Observe("fresh", "file-b", "")

	assert.Empty(t, buf.Drain("stale"))
	assert.Len(t, buf.Drain("fresh"), 1)
	assert.Equal(t, 0, buf.Len())
}

func TestBuffer_ConcurrentObserve(t *testing.T) {
	buf := album.NewBuffer(0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("album-%d", i%2)
			for j := 0; j < 50; j++ {
				buf.Observe(key, fmt.Sprintf("file-%d-%d", i, j), "")
			}
		}(i)
	}
	wg.Wait()

	total := len(buf.Drain("album-0")) + len(buf.Drain("album-1"))
	assert.Equal(t, 500, total)
}
