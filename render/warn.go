package render

import "sync"

const maxWarnings = 1024

// warnSet remembers which warnings were already logged. When full it starts
// over, so a long-running process may repeat a warning but never grows past
// maxWarnings keys.
type warnSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
	max  int
}

func newWarnSet(max int) *warnSet {
	return &warnSet{seen: make(map[string]struct{}), max: max}
}

// first reports whether key is seen for the first time and records it.
func (w *warnSet) first(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.seen[key]; ok {
		return false
	}
	if len(w.seen) >= w.max {
		w.seen = make(map[string]struct{})
	}
	w.seen[key] = struct{}{}
	return true
}
