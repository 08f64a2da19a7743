package registry

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestInsertGetRemove(t *testing.T) {
	r := New[string]()

	a := r.Insert("a")
	b := r.Insert("b")
	assert.Assert(t, a != b)

	v, ok := r.Get(a)
	assert.Assert(t, ok)
	assert.Equal(t, v, "a")

	assert.Assert(t, r.Remove(a))
	_, ok = r.Get(a)
	assert.Assert(t, !ok)

	v, ok = r.Get(b)
	assert.Assert(t, ok)
	assert.Equal(t, v, "b")
}

func TestIDsNeverReused(t *testing.T) {
	r := New[int]()
	a := r.Insert(1)
	r.Remove(a)
	r.Sweep()
	b := r.Insert(2)
	assert.Assert(t, a != b)
}

func TestSweepDropsTombstonesNotLive(t *testing.T) {
	r := New[int]()
	a := r.Insert(1)
	b := r.Insert(2)
	r.Remove(a)
	r.Sweep()

	_, ok := r.Get(a)
	assert.Assert(t, !ok)
	v, ok := r.Get(b)
	assert.Assert(t, ok)
	assert.Equal(t, v, 2)
	assert.Equal(t, r.Len(), 1)
}

func TestEachOrderAndTombstoneSkip(t *testing.T) {
	r := New[string]()
	a := r.Insert("a")
	_ = r.Insert("b")
	c := r.Insert("c")
	r.Remove(a)

	var seen []ID
	r.Each(func(id ID, v string) { seen = append(seen, id) })
	assert.Equal(t, len(seen), 2)
	assert.Equal(t, seen[len(seen)-1], c)
}
