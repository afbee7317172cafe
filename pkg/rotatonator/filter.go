package rotatonator

// compiledFilter holds the include/exclude sets applied to a session's
// outgoing events.
type compiledFilter struct {
	include map[EventType]struct{}
	exclude map[EventType]struct{}
}

// newCompiledFilter creates a new compiledFilter from include and exclude slices.
// Returns nil if both slices are empty (no filtering needed).
func newCompiledFilter(include, exclude []EventType) *compiledFilter {
	if len(include) == 0 && len(exclude) == 0 {
		return nil
	}

	f := &compiledFilter{}
	if len(include) > 0 {
		f.include = typeSet(include)
	}
	if len(exclude) > 0 {
		f.exclude = typeSet(exclude)
	}
	return f
}

func typeSet(types []EventType) map[EventType]struct{} {
	m := make(map[EventType]struct{}, len(types))
	for _, t := range types {
		m[t] = struct{}{}
	}
	return m
}

// Allows returns true if the given event type passes the filter.
// If include is non-empty, only types in include are allowed.
// Types in exclude are always rejected (exclude takes precedence).
func (f *compiledFilter) Allows(t EventType) bool {
	if f == nil {
		return true
	}

	if len(f.include) > 0 {
		if _, ok := f.include[t]; !ok {
			return false
		}
	}

	if _, ok := f.exclude[t]; ok {
		return false
	}

	return true
}
