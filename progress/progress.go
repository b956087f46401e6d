package progress

// Tracker receives progress events from long-running operations
// (downloads, build stages). Implementations must be safe for concurrent use.
type Tracker interface {
	OnEvent(any)
}

// NewTracker creates a Tracker from a typed callback. Events of any other
// type are ignored, so one tracker can be handed to several producers.
func NewTracker[E any](fn func(E)) Tracker {
	return funcTracker(func(v any) {
		if e, ok := v.(E); ok {
			fn(e)
		}
	})
}

type funcTracker func(any)

func (f funcTracker) OnEvent(e any) { f(e) }

// Nop is a no-op tracker for callers that don't need progress.
var Nop Tracker = funcTracker(func(any) {})

// Multi fans events out to every tracker.
func Multi(trackers ...Tracker) Tracker {
	return funcTracker(func(e any) {
		for _, t := range trackers {
			if t != nil {
				t.OnEvent(e)
			}
		}
	})
}

// OrNop returns t, or Nop when t is nil.
func OrNop(t Tracker) Tracker {
	if t == nil {
		return Nop
	}
	return t
}
