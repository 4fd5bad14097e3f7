package status

import "strings"

// Status is the canonical lifecycle state derived from the free-text status
// fields the ops API and the legacy schema carry.
type Status string

const (
	Pending       Status = "pending"
	Started       Status = "started"
	Paused        Status = "paused"
	PausedProblem Status = "paused-problem"
	Finished      Status = "finished"
)

// FinishKind distinguishes finished items that carry an actual completion
// timestamp from ones that are only finished on paper. Used for color
// selection downstream, never for the canonical status itself.
type FinishKind string

const (
	FinishNone    FinishKind = ""
	FinishActual  FinishKind = "actual"
	FinishPlanned FinishKind = "planned"
)

// synonymSets are evaluated in order; the first set containing the folded
// input wins. Order encodes precedence: finished > paused-problem > paused >
// started. Anything unmatched is pending.
var synonymSets = []struct {
	status Status
	keys   map[string]bool
}{
	{Finished, foldSet(
		"finished", "finish", "done", "complete", "completed", "closed",
		"resolved", "abgeschlossen", "erledigt",
	)},
	{PausedProblem, foldSet(
		"paused-problem", "paused problem", "paused (problem)", "pausedproblem",
		"problem", "blocked", "roadblock", "stuck", "on hold - problem",
		"pausiert problem",
	)},
	{Paused, foldSet(
		"paused", "pause", "on hold", "on-hold", "onhold", "waiting", "halted",
		"suspended", "pausiert",
	)},
	{Started, foldSet(
		"started", "start", "active", "in progress", "in-progress",
		"in_progress", "ongoing", "running", "working", "wip", "begonnen",
		"laufend",
	)},
}

func foldSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[fold(w)] = true
	}
	return m
}

// fold normalizes case, spacing and punctuation so "In Progress",
// "in_progress" and "in-progress" all land on the same key.
func fold(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Canonicalize maps a raw status string (any case, spacing or punctuation)
// plus an optional completed flag onto the 5-value enum. Total: unknown input
// defaults to Pending, never an error.
func Canonicalize(raw string, completed bool) Status {
	key := fold(raw)
	if key == "" {
		// Boolean-only records: a bare completed flag counts as finished.
		if completed {
			return Finished
		}
		return Pending
	}
	for _, set := range synonymSets {
		if set.keys[key] {
			return set.status
		}
	}
	return Pending
}

// ClassifyFinish derives the finished-actual / finished-planned distinction
// from the presence of an actual completion instant. Non-finished items get
// FinishNone.
func ClassifyFinish(st Status, hasActualEnd bool) FinishKind {
	if st != Finished {
		return FinishNone
	}
	if hasActualEnd {
		return FinishActual
	}
	return FinishPlanned
}
