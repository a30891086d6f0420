package generic

import (
	"sort"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	assert := assert_.New(t)

	s := NewSet[string]()
	assert.Equal(0, s.Count())
	assert.False(s.Contains("mp4"))
	assert.True(s.Add("mp4"))
	assert.Equal(1, s.Count())
	assert.True(s.Contains("mp4"))
	assert.False(s.Add("mp4"))
	assert.Equal(1, s.Count())
	assert.True(s.Remove("mp4"))
	assert.False(s.Contains("mp4"))
	assert.False(s.Remove("mp4"))

	s2 := NewSet("a", "b", "c")
	assert.True(s2.Contains("a", "c"))
	assert.False(s2.Contains("a", "d"))
	items := s2.ToSlice()
	sort.Strings(items)
	assert.Equal([]string{"a", "b", "c"}, items)
}
