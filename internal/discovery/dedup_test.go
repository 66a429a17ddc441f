package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupe_KeepsBestScore(t *testing.T) {
	set := Dedupe([]Candidate{
		{ProductID: 1, Score: 0.5},
		{ProductID: 1, Score: 0.9},
		{ProductID: 2, Score: 0.7},
	})

	assert.Equal(t, map[int64]float32{1: 0.9, 2: 0.7}, set.Scores())
	assert.Equal(t, []int64{1, 2}, set.IDs())
	assert.Equal(t, 2, set.Len())
}

func TestDedupe_TiesBreakByID(t *testing.T) {
	set := Dedupe([]Candidate{
		{ProductID: 9, Score: 0.4},
		{ProductID: 3, Score: 0.8},
		{ProductID: 7, Score: 0.8},
		{ProductID: 5, Score: 0.4},
	})

	assert.Equal(t, []int64{3, 7, 5, 9}, set.IDs())
	assert.Equal(t, []int64{3, 7}, set.Top(2))
	assert.Equal(t, []int64{3, 7, 5, 9}, set.Top(10))

	score, ok := set.Score(7)
	assert.True(t, ok)
	assert.Equal(t, float32(0.8), score)

	_, ok = set.Score(42)
	assert.False(t, ok)
}

func TestDedupe_Empty(t *testing.T) {
	set := Dedupe(nil)
	assert.Equal(t, 0, set.Len())
	assert.Empty(t, set.IDs())
	assert.Empty(t, set.Top(5))
}

func TestDedupe_ReturnsCopies(t *testing.T) {
	set := Dedupe([]Candidate{{ProductID: 1, Score: 1}, {ProductID: 2, Score: 0.5}})

	ids := set.IDs()
	ids[0] = 99
	scores := set.Scores()
	scores[1] = 0

	assert.Equal(t, []int64{1, 2}, set.IDs())
	s, _ := set.Score(1)
	assert.Equal(t, float32(1), s)
}
