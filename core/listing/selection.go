package listing

import "sort"

// Selection is the set of checked row IDs.
// The zero value is an empty selection.
type Selection struct {
	ids map[string]struct{}
}

func (s *Selection) Add(id string) {
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	s.ids[id] = struct{}{}
}

func (s *Selection) Remove(id string) { delete(s.ids, id) }

func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Len() int { return len(s.ids) }

func (s *Selection) Clear() { s.ids = nil }

// IDs returns the selected IDs, sorted.
func (s *Selection) IDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
