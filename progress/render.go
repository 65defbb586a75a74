package progress

// QueueResult is the outcome of draining a file queue: the files that were
// removed from the head, the file left at the head, if any, and the last
// file removed.
type QueueResult struct {
	Done    []FileEntry
	Current *FileEntry
	Last    *FileEntry
}

// Drain removes entries from the head of q until only one incomplete entry
// is left or the queue empties. Removal is permanent. A head is removed
// when it is complete or when other entries wait behind it; an incomplete
// sole entry stays and becomes Current.
func Drain(q *FileQueue) QueueResult {
	return drainSkipping(q, nil)
}

// drainSkipping is Drain for a session that has seen the queue before.
// Removed entries already in seen are dropped without being reported;
// every reported entry is added to seen. A nil seen reports everything.
func drainSkipping(q *FileQueue, seen map[string]struct{}) QueueResult {
	var res QueueResult
	for {
		head, ok := q.Head()
		if !ok {
			return res
		}
		if !head.Complete() && q.Len() == 1 {
			res.Current = &head
			return res
		}
		q.Shift()
		res.Last = &head
		if _, dup := seen[head.Name]; dup {
			continue
		}
		if seen != nil {
			seen[head.Name] = struct{}{}
		}
		res.Done = append(res.Done, head)
	}
}

// renderFileProgress drains the snapshot's queue. Drained files come back as
// committed lines; the current file and the aggregate line form the live
// block. With filesOnly the aggregate line is left out. seen carries the
// files already reported by earlier calls and may be nil.
func renderFileProgress(d *Decorator, snap Snapshot, status string, filesOnly bool, seen map[string]struct{}) (committed, live []string) {
	res := drainSkipping(snap.FileQueue, seen)
	for _, e := range res.Done {
		committed = append(committed, d.doneLine(e))
	}

	// Once every byte is in, the head is only waiting for its own poll to
	// drain and showing it would be noise. A drained queue keeps showing
	// its last file until then.
	current := res.Current
	if current == nil {
		current = res.Last
	}
	if current != nil && snap.Counters().BytesRead < snap.Totals().BytesTotal {
		live = append(live, d.fileLine(*current))
	}
	if filesOnly {
		return committed, live
	}
	live = append(live, d.aggregateLine(snap, status))
	return committed, live
}
