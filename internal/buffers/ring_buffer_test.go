package buffers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingBuffer_WriteAndReadAll(t *testing.T) {
	rb := NewRingBuffer[int](3)
	rb.WriteOne(1)
	rb.WriteOne(2)
	rb.WriteOne(3)
	assert.Equal(t, []int{1, 2, 3}, rb.ReadAll())
}

func TestRingBuffer_EvictsOldestOnOverflow(t *testing.T) {
	rb := NewRingBuffer[int](3)
	rb.Write([]int{1, 2, 3, 4})
	assert.Equal(t, []int{2, 3, 4}, rb.ReadAll())
}

func TestRingBuffer_ReadFromCursor(t *testing.T) {
	rb := NewRingBuffer[int](5)
	rb.Write([]int{1, 2, 3})
	cursor := BufferCursor{}
	entries, cursor := rb.ReadFrom(cursor)
	assert.Equal(t, []int{1, 2, 3}, entries)

	rb.WriteOne(4)
	more, _ := rb.ReadFrom(cursor)
	assert.Equal(t, []int{4}, more)
}

func TestRingBuffer_ReadLast(t *testing.T) {
	rb := NewRingBuffer[int](5)
	rb.Write([]int{1, 2, 3, 4, 5})
	assert.Equal(t, []int{4, 5}, rb.ReadLast(2))
}

func TestRingBuffer_Clear(t *testing.T) {
	rb := NewRingBuffer[int](3)
	rb.WriteOne(1)
	rb.Clear()
	assert.Equal(t, 0, rb.Len())
	assert.Nil(t, rb.ReadAll())
}
