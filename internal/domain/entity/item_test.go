package entity

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestWatchURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", WatchURL("dQw4w9WgXcQ"))
}

func TestFilterNewerThan(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	items := []Item{
		{VideoID: "i1", PublishedAt: t0.Add(10 * time.Minute)},
		{VideoID: "i2", PublishedAt: t0.Add(-5 * time.Minute)},
		{VideoID: "i3", PublishedAt: t0},
		{VideoID: "i4", PublishedAt: t0.Add(time.Second)},
	}

	got := FilterNewerThan(items, t0)
	want := []Item{items[0], items[3]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FilterNewerThan mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, FilterNewerThan(nil, t0))
}
