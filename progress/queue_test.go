package progress

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileQueue_PushShift(t *testing.T) {
	q := NewFileQueue()
	q.Push(file("a", 0, 1))
	q.Push(file("b", 0, 1))
	assert.Equal(t, 2, q.Len())

	e, ok := q.Shift()
	require.True(t, ok)
	assert.Equal(t, "a", e.Name)

	head, ok := q.Head()
	require.True(t, ok)
	assert.Equal(t, "b", head.Name)
	assert.Equal(t, 1, q.Len())
}

func TestFileQueue_Empty(t *testing.T) {
	q := NewFileQueue()
	_, ok := q.Head()
	assert.False(t, ok)
	_, ok = q.Shift()
	assert.False(t, ok)
}

func TestFileQueue_NilSafe(t *testing.T) {
	var q *FileQueue
	assert.Equal(t, 0, q.Len())
	assert.Nil(t, q.Entries())
	assert.Nil(t, q.Clone())
	_, ok := q.Head()
	assert.False(t, ok)
}

func TestFileQueue_CloneIsIndependent(t *testing.T) {
	q := NewFileQueue(file("a", 1, 1), file("b", 0, 1))
	c := q.Clone()
	c.Shift()

	assert.Equal(t, 2, q.Len())
	assert.Equal(t, 1, c.Len())
}

func TestFileQueue_JSONIsPlainArray(t *testing.T) {
	out, err := json.Marshal(NewFileQueue(file("a", 1, 2)))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"a","stats":{"bytesTotal":2,"bytesRead":1}}]`, string(out))

	out, err = json.Marshal(NewFileQueue())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestFileEntry_Complete(t *testing.T) {
	assert.True(t, file("a", 5, 5).Complete())
	assert.True(t, file("empty", 0, 0).Complete())
	assert.False(t, file("a", 4, 5).Complete())
}
