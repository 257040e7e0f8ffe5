package viewtree

// viewSet is an insertion-ordered set of views. Tag queries return members
// in the order they joined the set.
type viewSet struct {
	items []*View
	index map[*View]struct{}
}

func newViewSet() *viewSet {
	return &viewSet{index: make(map[*View]struct{})}
}

func (s *viewSet) add(v *View) bool {
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

func (s *viewSet) remove(v *View) bool {
	if _, ok := s.index[v]; !ok {
		return false
	}
	delete(s.index, v)
	for i, c := range s.items {
		if c == v {
			copy(s.items[i:], s.items[i+1:])
			s.items[len(s.items)-1] = nil
			s.items = s.items[:len(s.items)-1]
			break
		}
	}
	return true
}

func (s *viewSet) has(v *View) bool {
	_, ok := s.index[v]
	return ok
}

func (s *viewSet) len() int {
	return len(s.items)
}

// slice returns a copy of the members.
func (s *viewSet) slice() []*View {
	out := make([]*View, len(s.items))
	copy(out, s.items)
	return out
}
