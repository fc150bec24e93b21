package duplicate

import "strings"

// GeneralLabel is the placeholder label that never merges with anything.
const GeneralLabel = "General"

// Thresholds for label merging.
const (
	DefaultMergeThreshold = 0.92 // above = duplicate
	DefaultConflictFloor  = 0.80 // (floor, merge] = related unless conflicting
)

// DefaultConflictKeywords are mutually exclusive subjects: two labels naming
// different ones are never merged on the related band alone.
var DefaultConflictKeywords = []string{"racing", "boxing", "coding", "cooking", "gaming"}

// Verdict is the outcome of comparing a raw label against a canonical one.
type Verdict int

const (
	Distinct Verdict = iota
	Duplicate
	Related
	Conflict
)

func (v Verdict) String() string {
	switch v {
	case Duplicate:
		return "duplicate"
	case Related:
		return "related"
	case Conflict:
		return "conflict"
	default:
		return "distinct"
	}
}

// Merge reports whether the verdict folds the raw label into the canonical one.
func (v Verdict) Merge() bool {
	return v == Duplicate || v == Related
}

// Detector applies the merge heuristic to a pair of labels and their score.
type Detector struct {
	MergeThreshold float64
	ConflictFloor  float64
	Keywords       []string
}

// NewDetector creates a detector with default thresholds and keywords.
func NewDetector() *Detector {
	return &Detector{
		MergeThreshold: DefaultMergeThreshold,
		ConflictFloor:  DefaultConflictFloor,
		Keywords:       DefaultConflictKeywords,
	}
}

// Evaluate classifies the relation between raw and canonical given their
// cosine similarity.
//
// A conflict requires both labels to mention at least one keyword while
// sharing none of them, e.g. "Boxing" and "Sim Racing".
func (d *Detector) Evaluate(raw, canonical string, score float64) Verdict {
	if isGeneral(raw) || isGeneral(canonical) {
		return Distinct
	}

	if score > d.MergeThreshold {
		return Duplicate
	}
	if score <= d.ConflictFloor {
		return Distinct
	}

	rawKw := MentionedKeywords(raw, d.Keywords)
	canonKw := MentionedKeywords(canonical, d.Keywords)
	if len(rawKw) > 0 && len(canonKw) > 0 && !sharesAny(rawKw, canonKw) {
		return Conflict
	}
	return Related
}

func isGeneral(label string) bool {
	return strings.TrimSpace(label) == GeneralLabel
}
