package condition

// AnyOf matches a file when at least one of its matchers does. An empty
// AnyOf matches nothing.
type AnyOf []Matcher

// Match implements Matcher.
func (a AnyOf) Match(path string, inTerminal bool) bool {
	for _, m := range a {
		if m != nil && m.Match(path, inTerminal) {
			return true
		}
	}
	return false
}

// Combine returns nil for no conditions, the condition itself for one, and
// AnyOf for several.
func Combine(conditions ...*Condition) Matcher {
	switch len(conditions) {
	case 0:
		return nil
	case 1:
		return conditions[0]
	}

	anyOf := make(AnyOf, 0, len(conditions))
	for _, c := range conditions {
		anyOf = append(anyOf, c)
	}
	return anyOf
}

