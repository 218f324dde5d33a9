// Package model defines the domain types shared by flowguide's catalog, rule engine and selection store.
package model

type CourseType string

const (
	CourseTypeCompulsory CourseType = "compulsory"
	CourseTypeElective   CourseType = "elective"
	CourseTypeHumanities CourseType = "humanities"
	CourseTypeFree       CourseType = "free"
	CourseTypeProject    CourseType = "project"
	CourseTypeThesis     CourseType = "thesis"
)

var validCourseTypes = map[CourseType]bool{
	CourseTypeCompulsory: true,
	CourseTypeElective:   true,
	CourseTypeHumanities: true,
	CourseTypeFree:       true,
	CourseTypeProject:    true,
	CourseTypeThesis:     true,
}

// Flow code sentinels for courses that do not belong to a topical flow.
const (
	FlowGeneral    = "G"
	FlowHumanities = "A"
	FlowFree       = "F"
)

// Course is an immutable catalog entry. Identity is the ID.
type Course struct {
	ID             string     `yaml:"id" json:"id"`
	Name           string     `yaml:"name" json:"name"`
	Semester       int        `yaml:"semester" json:"semester"`
	ECTS           float64    `yaml:"ects" json:"ects"`
	Type           CourseType `yaml:"type" json:"type"`
	Flow           string     `yaml:"flow,omitempty" json:"flow,omitempty"`
	FlowCompulsory bool       `yaml:"flow_compulsory,omitempty" json:"flow_compulsory,omitempty"`
}

func IsValidCourseType(t CourseType) bool {
	return validCourseTypes[t]
}

// IsSentinelFlow reports whether code marks a course outside every topical flow.
func IsSentinelFlow(code string) bool {
	switch code {
	case "", FlowGeneral, FlowHumanities, FlowFree:
		return true
	}
	return false
}
