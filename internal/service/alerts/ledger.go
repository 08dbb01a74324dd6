package alerts

import "sync"

// Ledger remembers which alerts were already sent on a given day.
type Ledger struct {
	mu   sync.Mutex
	day  string
	sent map[string]struct{}
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{sent: make(map[string]struct{})}
}

// Claim marks key as sent on day and reports whether it was new. Entries of
// previous days are dropped when the day changes.
func (l *Ledger) Claim(day, key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if day != l.day {
		l.day = day
		l.sent = make(map[string]struct{})
	}
	if _, ok := l.sent[key]; ok {
		return false
	}
	l.sent[key] = struct{}{}
	return true
}

// Release forgets key so it can be claimed again on the same day.
func (l *Ledger) Release(day, key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if day == l.day {
		delete(l.sent, key)
	}
}

// Len returns how many alerts were claimed for the current day.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sent)
}
