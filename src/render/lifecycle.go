package render

// release is one recorded teardown action for a created resource.
type release struct {
	name string
	fn   func()
}

// teardownStack sequences resource teardown. Every successful creation
// pushes its release; draining runs the releases in reverse push order,
// which is exactly the reverse of creation order. A drained entry is
// removed, so draining twice never releases a resource twice.
type teardownStack struct {
	releases []release
}

func (s *teardownStack) push(name string, fn func()) {
	s.releases = append(s.releases, release{name: name, fn: fn})
}

// mark returns the current stack depth, for use with drainTo.
func (s *teardownStack) mark() int {
	return len(s.releases)
}

// drainTo releases every entry above depth mark, most recent first,
// leaving the first mark entries in place.
func (s *teardownStack) drainTo(mark int) {
	for i := len(s.releases) - 1; i >= mark; i-- {
		r := s.releases[i]
		Logger().Debug("releasing resource", "resource", r.name)
		r.fn()
	}
	s.releases = s.releases[:mark]
}

// drain releases every entry, most recent first.
func (s *teardownStack) drain() {
	s.drainTo(0)
	s.releases = nil
}
