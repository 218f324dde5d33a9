package model

type Direction string

// DirectionRule is the flow policy a direction imposes.
type DirectionRule struct {
	ID              Direction `yaml:"id" json:"id"`
	Name            string    `yaml:"name" json:"name"`
	Anchors         []string  `yaml:"anchors" json:"anchors"`
	AnchorIntensity Intensity `yaml:"anchor_intensity" json:"anchor_intensity"`
	MinOtherFlows   int       `yaml:"min_other_flows" json:"min_other_flows"`
}

// IsAnchor reports whether code is one of the direction's anchor flows.
func (d DirectionRule) IsAnchor(code string) bool {
	for _, a := range d.Anchors {
		if a == code {
			return true
		}
	}
	return false
}

type OptionType string

const (
	OptionSelectOneFull OptionType = "select_one_full"
	OptionAnyGEHalf     OptionType = "any_ge_half"
)

// OptionPolicy constrains the flows a combination leaves open.
type OptionPolicy struct {
	Type    OptionType `yaml:"type" json:"type"`
	Allowed []string   `yaml:"allowed,omitempty" json:"allowed,omitempty"`
	Exclude []string   `yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

// Combination is a curated flow template for a direction.
type Combination struct {
	ID        string               `yaml:"id" json:"id"`
	Label     string               `yaml:"label" json:"label"`
	Direction Direction            `yaml:"direction" json:"direction"`
	Required  map[string]Intensity `yaml:"required" json:"required"`
	Option    OptionPolicy         `yaml:"option" json:"option"`
}

// Flow describes a topical track.
type Flow struct {
	Code string `yaml:"code" json:"code"`
	Name string `yaml:"name" json:"name"`
}
