package gen

// Field is one candidate location for a value in an upstream payload.
// Adapters build an ordered slice of candidates so the fallback order is
// auditable and testable in isolation.
type Field struct {
	// Location names where the value was looked up, e.g. "data.id".
	Location string
	// Value is the value found at that location, possibly empty.
	Value string
}

// FirstField returns the first candidate with a non-empty value, preserving
// the caller's priority order. The second return is false when every
// candidate is empty.
func FirstField(candidates ...Field) (Field, bool) {
	for _, c := range candidates {
		if c.Value != "" {
			return c, true
		}
	}
	return Field{}, false
}
