package epoch

import "errors"

// RecycleBin holds the deferred callbacks detached by a successful epoch
// advance, ready for invocation.
//
// A bin is produced by EnterCollect (or UnsafeClean internally) and each
// callback in it is consumed at most once: Clean removes a callback before
// invoking it, so a later Clean runs only what an aborted Clean left
// behind and is a no-op after a full one. The bin itself is not safe for concurrent use — hand it to
// exactly one drainer, or let Queue/CleanAsync do so.
type RecycleBin struct {
	head *node
	n    int
}

// newBin wraps a detached stack. A nil head yields an empty bin.
func newBin(head *node) *RecycleBin {
	n := 0
	for cur := head; cur != nil; cur = cur.next {
		n++
	}
	return &RecycleBin{head: head, n: n}
}

// IsEmpty reports whether the bin holds no callbacks.
func (b *RecycleBin) IsEmpty() bool {
	return b == nil || b.head == nil
}

// Len returns the number of callbacks remaining in the bin.
func (b *RecycleBin) Len() int {
	if b == nil {
		return 0
	}
	return b.n
}

// Clean invokes every callback in the bin and empties it.
//
// With stopOnFirstError false (the default policy) all callbacks are
// attempted and their failures — Close errors and recovered panics — are
// joined into one aggregate error. With stopOnFirstError true the first
// failure aborts the traversal and is returned alone; the remaining
// callbacks stay in the bin.
//
// Invocation order carries no guarantee. Callbacks run outside any lock
// and must be self-contained.
func (b *RecycleBin) Clean(stopOnFirstError bool) error {
	if b == nil {
		return nil
	}
	var errs []error
	for b.head != nil {
		cur := b.head
		b.head = cur.next
		b.n--
		cur.next = nil
		if err := cur.invoke(); err != nil {
			if stopOnFirstError {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Queue drains the bin on a new goroutine, discarding any aggregated
// error. Use CleanAsync when the caller wants the outcome.
func (b *RecycleBin) Queue() {
	if b.IsEmpty() {
		return
	}
	go func() {
		_ = b.Clean(false)
	}()
}

// CleanAsync drains the bin on a new goroutine and delivers the
// aggregated error (possibly nil) on the returned channel. The channel is
// buffered; the result can be collected at leisure or dropped.
func (b *RecycleBin) CleanAsync() <-chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- b.Clean(false)
	}()
	return ch
}
