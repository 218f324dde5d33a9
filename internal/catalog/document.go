package catalog

import (
	"github.com/msageha/flowguide/internal/model"
)

const SchemaVersion = "1.0.0"

// Document is the on-disk shape of a reference dataset.
type Document struct {
	SchemaVersion string                                 `yaml:"schema_version" json:"schema_version"`
	Metadata      *Metadata                              `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	Policy        PolicyDoc                              `yaml:"policy" json:"policy"`
	Flows         []model.Flow                           `yaml:"flows" json:"flows"`
	Directions    []DirectionDoc                         `yaml:"directions" json:"directions"`
	Combinations  []model.Combination                    `yaml:"combinations,omitempty" json:"combinations,omitempty"`
	Courses       []model.Course                         `yaml:"courses" json:"courses"`
	Rules         map[string]map[model.Intensity]RuleDoc `yaml:"rules" json:"rules"`
}

type Metadata struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Institution string `yaml:"institution,omitempty" json:"institution,omitempty"`
	Updated     string `yaml:"updated,omitempty" json:"updated,omitempty"`
}

// Policy holds the caps enforced by the global constraint checker.
type Policy struct {
	MaxFree           int      `yaml:"max_free" json:"max_free"`
	MaxHumanities     int      `yaml:"max_humanities" json:"max_humanities"`
	MaxGeneral        int      `yaml:"max_general" json:"max_general"`
	MaxPerSemester    int      `yaml:"max_per_semester" json:"max_per_semester"`
	TrackedSemesters  []int    `yaml:"tracked_semesters" json:"tracked_semesters"`
	StrictlyFreeFlows []string `yaml:"strictly_free_flows" json:"strictly_free_flows"`
	CoreFlows         []string `yaml:"core_flows" json:"core_flows"`
	DiversitySemester int      `yaml:"diversity_semester" json:"diversity_semester"`
	MinCoreFlows      int      `yaml:"min_core_flows" json:"min_core_flows"`
}

// DefaultPolicy returns the caps used when a dataset leaves them unset.
func DefaultPolicy() Policy {
	return Policy{
		MaxFree:           5,
		MaxHumanities:     1,
		MaxGeneral:        1,
		MaxPerSemester:    7,
		TrackedSemesters:  []int{6, 7, 8, 9},
		StrictlyFreeFlows: []string{model.FlowFree},
		DiversitySemester: 6,
		MinCoreFlows:      3,
	}
}

// PolicyDoc is the on-disk form of Policy. Absent scalars are nil so that an
// explicit 0 (forbid a category, disable the diversity rule) survives
// defaulting; absent lists are nil for the same reason.
type PolicyDoc struct {
	MaxFree           *int     `yaml:"max_free,omitempty" json:"max_free,omitempty"`
	MaxHumanities     *int     `yaml:"max_humanities,omitempty" json:"max_humanities,omitempty"`
	MaxGeneral        *int     `yaml:"max_general,omitempty" json:"max_general,omitempty"`
	MaxPerSemester    *int     `yaml:"max_per_semester,omitempty" json:"max_per_semester,omitempty"`
	TrackedSemesters  []int    `yaml:"tracked_semesters" json:"tracked_semesters"`
	StrictlyFreeFlows []string `yaml:"strictly_free_flows" json:"strictly_free_flows"`
	CoreFlows         []string `yaml:"core_flows" json:"core_flows"`
	DiversitySemester *int     `yaml:"diversity_semester,omitempty" json:"diversity_semester,omitempty"`
	MinCoreFlows      *int     `yaml:"min_core_flows,omitempty" json:"min_core_flows,omitempty"`
}

// policy dereferences a defaulted PolicyDoc.
func (p PolicyDoc) policy() Policy {
	return Policy{
		MaxFree:           *p.MaxFree,
		MaxHumanities:     *p.MaxHumanities,
		MaxGeneral:        *p.MaxGeneral,
		MaxPerSemester:    *p.MaxPerSemester,
		TrackedSemesters:  p.TrackedSemesters,
		StrictlyFreeFlows: p.StrictlyFreeFlows,
		CoreFlows:         p.CoreFlows,
		DiversitySemester: *p.DiversitySemester,
		MinCoreFlows:      *p.MinCoreFlows,
	}
}

type DirectionDoc struct {
	ID              model.Direction `yaml:"id" json:"id"`
	Name            string          `yaml:"name" json:"name"`
	Anchors         []string        `yaml:"anchors" json:"anchors"`
	AnchorIntensity model.Intensity `yaml:"anchor_intensity,omitempty" json:"anchor_intensity,omitempty"`
	MinOtherFlows   *int            `yaml:"min_other_flows,omitempty" json:"min_other_flows,omitempty"`
}

// RuleDoc is either an inline FlowRule or a by_direction table, never both.
type RuleDoc struct {
	FlowRule    `yaml:",inline" json:",inline"`
	ByDirection map[string]*FlowRule `yaml:"by_direction,omitempty" json:"by_direction,omitempty"`
}
