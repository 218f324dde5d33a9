// Package selection owns the mutable side of flowguide: a student's
// direction, flow intensities and course picks, the transitions that change
// them, and their persistence.
package selection

import (
	"time"

	"github.com/google/uuid"

	"github.com/msageha/flowguide/internal/model"
)

// State is one persisted selection. Transitions never modify their input.
type State struct {
	ID uuid.UUID
	model.Selection
	UpdatedAt time.Time
}

// New returns an empty state with a fresh id.
func New() State {
	return State{
		ID:        uuid.New(),
		Selection: model.Selection{Flows: model.FlowSelections{}},
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.Selection = s.Selection.Clone()
	return out
}

// HasCourse reports whether id is selected.
func (s State) HasCourse(id string) bool {
	for _, c := range s.Courses {
		if c == id {
			return true
		}
	}
	return false
}

// ToggleCourse selects id, or deselects it when already selected.
func ToggleCourse(s State, id string) State {
	out := s.Clone()
	if id == "" {
		return out
	}
	if out.HasCourse(id) {
		kept := out.Courses[:0]
		for _, c := range out.Courses {
			if c != id {
				kept = append(kept, c)
			}
		}
		out.Courses = model.NormalizeCourseIDs(kept)
		return out
	}
	out.Courses = model.NormalizeCourseIDs(append(out.Courses, id))
	return out
}

// SetIntensity sets one flow. Setting none removes the flow from the map.
func SetIntensity(s State, flow string, intensity model.Intensity) State {
	out := s.Clone()
	if !intensity.Active() {
		delete(out.Flows, flow)
		return out
	}
	out.Flows[flow] = intensity
	return out
}

// SetDirection changes the direction. The applied combination belongs to the
// old direction and is forgotten when the direction actually changes.
func SetDirection(s State, direction model.Direction) State {
	out := s.Clone()
	if out.Direction != direction {
		out.Combination = ""
	}
	out.Direction = direction
	return out
}
