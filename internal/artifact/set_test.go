package artifact

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetOrdersByLegIndex(t *testing.T) {
	var s Set

	var wg sync.WaitGroup
	for i := 5; i >= 0; i-- {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Add(Artifact{Index: i, Label: string(rune('a' + i)), Size: 10})
		}(i)
	}
	wg.Wait()

	items := s.Items()
	assert.Len(t, items, 6)
	for i, a := range items {
		assert.Equal(t, i, a.Index)
	}
	assert.Equal(t, 6, s.Len())
	assert.EqualValues(t, 60, s.TotalSize())
}

func TestSetPaths(t *testing.T) {
	var s Set
	s.Add(Artifact{Index: 2, Path: "c.zip"})
	s.Add(Artifact{Index: 0, Path: "a.zip"})
	s.Add(Artifact{Index: 1, Path: "b.zip"})

	assert.Equal(t, []string{"a.zip", "b.zip", "c.zip"}, s.Paths())
}

func TestEmptySet(t *testing.T) {
	var s Set
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Paths())
}
