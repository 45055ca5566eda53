package reindex

// FieldState is the validation outcome of one (document, field) pair.
type FieldState int

const (
	Unchecked FieldState = iota
	Consistent
	Mismatched
	Missing
	Regenerated
)

func (s FieldState) String() string {
	switch s {
	case Unchecked:
		return "unchecked"
	case Consistent:
		return "consistent"
	case Mismatched:
		return "mismatched"
	case Missing:
		return "missing"
	case Regenerated:
		return "regenerated"
	default:
		return "unknown"
	}
}

// MarshalText lets states appear by name in JSON reports.
func (s FieldState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// needsRegeneration reports whether a field in state s forces a rebuild of its
// whole document type.
func (s FieldState) needsRegeneration() bool {
	return s == Mismatched || s == Missing
}
