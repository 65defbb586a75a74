package progress

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// FileQueue is the ordered list of files an engine is currently reading or
// writing for one resource. Insertion order is processing order; entries
// are only ever removed from the front.
//
// A FileQueue is owned by a single Session and is not safe for concurrent
// use on its own.
type FileQueue struct {
	order []FileEntry
}

// NewFileQueue creates a queue holding entries in the given order.
func NewFileQueue(entries ...FileEntry) *FileQueue {
	q := &FileQueue{}
	q.order = append(q.order, entries...)
	return q
}

// Push appends an entry to the tail.
func (q *FileQueue) Push(e FileEntry) {
	q.order = append(q.order, e)
}

// Head returns the first entry, or (FileEntry{}, false) when empty.
func (q *FileQueue) Head() (FileEntry, bool) {
	if q == nil || len(q.order) == 0 {
		return FileEntry{}, false
	}
	return q.order[0], true
}

// Shift removes and returns the first entry.
func (q *FileQueue) Shift() (FileEntry, bool) {
	head, ok := q.Head()
	if !ok {
		return FileEntry{}, false
	}
	q.order = q.order[1:]
	return head, true
}

// Len returns the number of queued entries.
func (q *FileQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.order)
}

// Entries returns a copy of the queued entries in order.
func (q *FileQueue) Entries() []FileEntry {
	if q == nil {
		return nil
	}
	out := make([]FileEntry, len(q.order))
	copy(out, q.order)
	return out
}

// Clone returns an independent copy of the queue.
func (q *FileQueue) Clone() *FileQueue {
	if q == nil {
		return nil
	}
	return NewFileQueue(q.order...)
}

// MarshalJSON encodes the queue as a plain array.
func (q *FileQueue) MarshalJSON() ([]byte, error) {
	if q == nil || q.order == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(q.order)
}

// UnmarshalJSON decodes a plain array.
func (q *FileQueue) UnmarshalJSON(data []byte) error {
	var entries []FileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	q.order = entries
	return nil
}

// MarshalYAML encodes the queue as a plain sequence.
func (q *FileQueue) MarshalYAML() (interface{}, error) {
	return q.Entries(), nil
}

// UnmarshalYAML decodes a plain sequence.
func (q *FileQueue) UnmarshalYAML(node *yaml.Node) error {
	var entries []FileEntry
	if err := node.Decode(&entries); err != nil {
		return err
	}
	q.order = entries
	return nil
}
