package metrics

import (
	"sync"
	"time"
)

// TokenEvent records usage for a single completion call.
type TokenEvent struct {
	Timestamp    time.Time
	SessionKey   string
	Model        string
	InputTokens  int
	OutputTokens int
	ToolCalls    int
}

// Usage is an aggregated view of recorded events.
type Usage struct {
	Requests     int
	InputTokens  int
	OutputTokens int
	ToolCalls    int
}

// Tracker aggregates token usage in memory, per model and per session.
// Conversations are ephemeral, so the counters are too; the totals are
// logged at shutdown.
type Tracker struct {
	mu        sync.Mutex
	total     Usage
	byModel   map[string]*Usage
	bySession map[string]*Usage
}

func NewTracker() *Tracker {
	return &Tracker{
		byModel:   make(map[string]*Usage),
		bySession: make(map[string]*Usage),
	}
}

// Record folds one event into the aggregates.
func (t *Tracker) Record(event TokenEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	add := func(u *Usage) {
		u.Requests++
		u.InputTokens += event.InputTokens
		u.OutputTokens += event.OutputTokens
		u.ToolCalls += event.ToolCalls
	}

	add(&t.total)

	if event.Model != "" {
		u, ok := t.byModel[event.Model]
		if !ok {
			u = &Usage{}
			t.byModel[event.Model] = u
		}
		add(u)
	}
	if event.SessionKey != "" {
		u, ok := t.bySession[event.SessionKey]
		if !ok {
			u = &Usage{}
			t.bySession[event.SessionKey] = u
		}
		add(u)
	}
}

// Total returns the process-wide aggregate.
func (t *Tracker) Total() Usage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// SessionUsage returns the aggregate for one session key.
func (t *Tracker) SessionUsage(key string) Usage {
	t.mu.Lock()
	defer t.mu.Unlock()
	if u, ok := t.bySession[key]; ok {
		return *u
	}
	return Usage{}
}

// ByModel returns a copy of the per-model aggregates.
func (t *Tracker) ByModel() map[string]Usage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]Usage, len(t.byModel))
	for model, u := range t.byModel {
		out[model] = *u
	}
	return out
}
