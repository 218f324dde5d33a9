package model

import "sort"

// Selection is the caller-owned subject of evaluation.
type Selection struct {
	Direction   Direction      `yaml:"direction,omitempty" json:"direction,omitempty"`
	Combination string         `yaml:"combination,omitempty" json:"combination,omitempty"`
	Flows       FlowSelections `yaml:"flows,omitempty" json:"flows,omitempty"`
	Courses     []string       `yaml:"courses,omitempty" json:"courses,omitempty"`
}

// Clone returns a deep copy with the course list normalised.
func (s Selection) Clone() Selection {
	out := s
	out.Flows = s.Flows.Clone()
	out.Courses = NormalizeCourseIDs(s.Courses)
	return out
}

// CourseSet returns the selected course ids as a set.
func (s Selection) CourseSet() CourseSet {
	return NewCourseSet(s.Courses...)
}

// CourseSet is a set of course ids. Order carries no meaning.
type CourseSet map[string]bool

func NewCourseSet(ids ...string) CourseSet {
	set := make(CourseSet, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = true
		}
	}
	return set
}

func (s CourseSet) Has(id string) bool { return s[id] }

// Count returns how many of ids are in the set. Duplicates in ids count once.
func (s CourseSet) Count(ids []string) int {
	seen := make(map[string]bool, len(ids))
	n := 0
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if s[id] {
			n++
		}
	}
	return n
}

// Sorted returns the ids in ascending order.
func (s CourseSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NormalizeCourseIDs sorts ids and drops blanks and duplicates.
func NormalizeCourseIDs(ids []string) []string {
	set := NewCourseSet(ids...)
	if len(set) == 0 {
		return nil
	}
	return set.Sorted()
}
