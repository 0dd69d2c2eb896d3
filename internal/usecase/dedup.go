package usecase

// Verdict is the outcome of a duplicate check.
type Verdict int

const (
	VerdictAccept Verdict = iota
	VerdictDuplicate
)

// Deduplicator decides which fingerprints are new to one account's ledger.
// It is seeded with the stored fingerprints and remembers every accepted one,
// so the first occurrence inside a batch wins.
type Deduplicator struct {
	seen map[string]struct{}
}

// NewDeduplicator copies existing so the caller's set is left untouched.
func NewDeduplicator(existing map[string]struct{}) *Deduplicator {
	seen := make(map[string]struct{}, len(existing))
	for fp := range existing {
		seen[fp] = struct{}{}
	}
	return &Deduplicator{seen: seen}
}

// Check accepts fp once. Every later call with the same value is a duplicate.
func (d *Deduplicator) Check(fp string) Verdict {
	if _, ok := d.seen[fp]; ok {
		return VerdictDuplicate
	}
	d.seen[fp] = struct{}{}
	return VerdictAccept
}
