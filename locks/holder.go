package locks

import (
	"sync"

	"github.com/kolkov/synckit/spinlock"
)

// Holder is the scoped release token produced by a successful
// acquisition.
//
// Release dispatches the variant-correct release of the underlying
// primitive and empties the Holder, so a second Release is a no-op. The
// zero Holder is empty: releasing it has no effect, which is what makes
// the failure paths of TryAcquire and friends safe to defer
// unconditionally:
//
//	h, ok := l.TryAcquire()
//	defer h.Release()
//	if !ok {
//		return
//	}
//
// A Holder belongs to the goroutine that acquired it and must not be
// copied; releasing a copy releases the primitive once per copy.
type Holder struct {
	target  any
	variant Variant
}

// IsEmpty reports whether the Holder holds nothing — either it was never
// produced by a successful acquisition or it has been released.
func (h *Holder) IsEmpty() bool {
	return h.variant == None
}

// Variant returns the variant this Holder will release, or None when
// empty.
func (h *Holder) Variant() Variant {
	return h.variant
}

// Release releases the underlying primitive according to the Holder's
// variant and empties the Holder. Safe to call repeatedly; only the
// first call has an effect. Release never panics.
func (h *Holder) Release() {
	target, variant := h.target, h.variant
	h.target, h.variant = nil, None
	switch variant {
	case Monitor:
		target.(*sync.Mutex).Unlock()
	case Reader, UpgradeableReader:
		target.(*spinlock.RWSpinLock).RUnlock()
	case Writer:
		target.(*spinlock.RWSpinLock).Unlock()
	case CountingSemaphore:
		target.(*Semaphore).Release()
	}
}
