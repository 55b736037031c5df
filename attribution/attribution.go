package attribution

import (
	"sync"

	"site-guardian/utils"
)

// MatchEvent is one network-rule match reported against the tracker
// rule set. ContextID and InitiatorURL are both optional.
type MatchEvent struct {
	At           int64  `json:"at"` // unix milliseconds
	ContextID    string `json:"contextId,omitempty"`
	InitiatorURL string `json:"initiatorUrl,omitempty"`
}

// ContextLookup resolves a live browsing-context identifier to its
// current top-level origin. Maintained by navigation reports; a stale or
// unknown context simply fails to resolve.
type ContextLookup interface {
	Lookup(contextID string) (origin string, ok bool)
}

// Attribute rolls match events up into per-origin counts. Resolution per
// event: a resolvable context identifier wins; otherwise the initiator
// URL's origin is used as a weaker proxy; events with neither are
// dropped as uncountable. The initiator fallback can misattribute
// cross-origin redirect chains; that is a known heuristic limit.
func Attribute(events []MatchEvent, contexts ContextLookup) map[string]int64 {
	counts := make(map[string]int64)
	for _, ev := range events {
		origin := resolve(ev, contexts)
		if origin == "" {
			continue
		}
		counts[origin]++
	}
	return counts
}

func resolve(ev MatchEvent, contexts ContextLookup) string {
	if ev.ContextID != "" && contexts != nil {
		if origin, ok := contexts.Lookup(ev.ContextID); ok {
			return origin
		}
	}
	if ev.InitiatorURL != "" {
		return utils.OriginOf(ev.InitiatorURL)
	}
	return ""
}

// ContextTable is the live ContextLookup implementation: a mutex-guarded
// side table of browsing-context id -> top-level origin, updated as the
// collector reports navigations.
type ContextTable struct {
	mu        sync.RWMutex
	byContext map[string]string
}

// NewContextTable creates an empty table.
func NewContextTable() *ContextTable {
	return &ContextTable{byContext: make(map[string]string)}
}

// Set records the current top-level origin for a context.
func (t *ContextTable) Set(contextID, origin string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byContext[contextID] = origin
}

// Remove forgets a context, e.g. when its tab closes.
func (t *ContextTable) Remove(contextID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byContext, contextID)
}

// Lookup implements ContextLookup.
func (t *ContextTable) Lookup(contextID string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	origin, ok := t.byContext[contextID]
	return origin, ok
}

// ContextsFor returns the ids of every context currently on origin.
// Used to fan out per-page directives such as storage clears.
func (t *ContextTable) ContextsFor(origin string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var ids []string
	for id, o := range t.byContext {
		if o == origin {
			ids = append(ids, id)
		}
	}
	return ids
}
