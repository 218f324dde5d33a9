package selection

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/msageha/flowguide/internal/model"
	"github.com/msageha/flowguide/internal/yaml"
)

// ErrCorrupt marks a selection blob that cannot be decoded.
var ErrCorrupt = errors.New("corrupt selection")

type document struct {
	yaml.SchemaHeader `yaml:",inline"`
	ID                string            `yaml:"id"`
	Direction         model.Direction   `yaml:"direction,omitempty"`
	Combination       string            `yaml:"combination,omitempty"`
	Flows             map[string]string `yaml:"flows"`
	Courses           []string          `yaml:"courses"`
	UpdatedAt         time.Time         `yaml:"updated_at,omitempty"`
}

// Marshal serialises s as a versioned YAML blob.
func Marshal(s State) ([]byte, error) {
	doc := document{
		SchemaHeader: yaml.NewSchemaHeader(yaml.FileTypeSelection),
		ID:           s.ID.String(),
		Direction:    s.Direction,
		Combination:  s.Combination,
		Flows:        make(map[string]string, len(s.Flows)),
		Courses:      model.NormalizeCourseIDs(s.Courses),
		UpdatedAt:    s.UpdatedAt.UTC(),
	}
	for code, intensity := range s.Flows {
		if intensity.Active() {
			doc.Flows[code] = string(intensity)
		}
	}
	if doc.Courses == nil {
		doc.Courses = []string{}
	}

	data, err := yamlv3.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("marshal selection: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a blob written by Marshal. Decoding failures wrap
// ErrCorrupt. Intensities are parsed leniently and none entries dropped.
// A blob without an id is assigned a fresh one.
func Unmarshal(data []byte) (State, error) {
	var doc document
	decoder := yamlv3.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := doc.SchemaHeader.Validate(yaml.FileTypeSelection); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	s := State{
		Selection: model.Selection{
			Direction:   doc.Direction,
			Combination: doc.Combination,
			Flows:       make(model.FlowSelections, len(doc.Flows)),
			Courses:     model.NormalizeCourseIDs(doc.Courses),
		},
		UpdatedAt: doc.UpdatedAt,
	}
	for code, raw := range doc.Flows {
		if intensity := model.ParseIntensity(raw); intensity.Active() {
			s.Flows[code] = intensity
		}
	}

	if doc.ID == "" {
		s.ID = uuid.New()
		return s, nil
	}
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return State{}, fmt.Errorf("%w: id: %v", ErrCorrupt, err)
	}
	s.ID = id
	return s, nil
}
