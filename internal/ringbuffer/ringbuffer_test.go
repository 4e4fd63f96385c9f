package ringbuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopFIFOOrder(t *testing.T) {
	rb := New[int](3)
	rb.Push(1)
	rb.Push(2)
	rb.Push(3)
	require.True(t, rb.IsFull())

	assert.Equal(t, 1, rb.Pop())
	assert.Equal(t, 2, rb.Pop())

	rb.Push(4)
	assert.Equal(t, 3, rb.Pop())
	assert.Equal(t, 4, rb.Pop())
	assert.True(t, rb.IsEmpty())
}

func TestPushOnFullPanics(t *testing.T) {
	rb := New[int](1)
	rb.Push(1)
	assert.Panics(t, func() { rb.Push(2) })
}

func TestPopOnEmptyPanics(t *testing.T) {
	rb := New[int](1)
	assert.Panics(t, func() { rb.Pop() })
}

func TestAnyScansLiveRegionOnly(t *testing.T) {
	rb := New[int](4)
	rb.Push(10)
	rb.Push(20)
	rb.Pop()
	rb.Push(30)
	rb.Push(40)

	assert.True(t, rb.Any(func(v int) bool { return v == 30 }))
	assert.False(t, rb.Any(func(v int) bool { return v == 10 }))
}

func TestWrapAroundPreservesOrder(t *testing.T) {
	rb := New[int](3)
	rb.Push(1)
	rb.Push(2)
	rb.Pop()
	rb.Push(3)
	rb.Push(4)

	var got []int
	for !rb.IsEmpty() {
		got = append(got, rb.Pop())
	}
	assert.Equal(t, []int{2, 3, 4}, got)
}
