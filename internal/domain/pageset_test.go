package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageSetPreservesInsertionOrder(t *testing.T) {
	s := NewPageSet()
	var want []string
	for i := 0; i < 20; i++ {
		u := fmt.Sprintf("https://example.com/p%02d", i)
		s.Put(&PageRecord{URL: u})
		want = append(want, u)
	}

	assert.Equal(t, want, s.URLs())

	var got []string
	s.Range(func(url string, page *PageRecord) bool {
		got = append(got, url)
		return true
	})
	assert.Equal(t, want, got)
}

func TestPageSetPutReplaceKeepsPosition(t *testing.T) {
	s := NewPageSet()
	s.Put(&PageRecord{URL: "https://example.com/a", Title: "A"})
	s.Put(&PageRecord{URL: "https://example.com/b", Title: "B"})
	s.Put(&PageRecord{URL: "https://example.com/a", Title: "A2"})

	require.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, s.URLs())

	p, ok := s.Get("https://example.com/a")
	require.True(t, ok)
	assert.Equal(t, "A2", p.Title)
}

func TestPageSetFirst(t *testing.T) {
	s := NewPageSet()
	_, ok := s.First()
	assert.False(t, ok)

	s.Put(&PageRecord{URL: "https://example.com/start"})
	s.Put(&PageRecord{URL: "https://example.com/next"})

	first, ok := s.First()
	require.True(t, ok)
	assert.Equal(t, "https://example.com/start", first.URL)
}

func TestPageSetRangeStops(t *testing.T) {
	s := NewPageSet()
	s.Put(&PageRecord{URL: "https://example.com/a"})
	s.Put(&PageRecord{URL: "https://example.com/b"})

	n := 0
	s.Range(func(url string, page *PageRecord) bool {
		n++
		return false
	})
	assert.Equal(t, 1, n)
}
