// Package catalog holds the immutable reference data the rule engine evaluates against:
// courses, flows, direction policies, combination templates and per-flow rules.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/msageha/flowguide/internal/model"
)

// Catalog is a compiled, read-only reference dataset. It is safe for
// concurrent use because nothing mutates it after Compile returns.
type Catalog struct {
	metadata     Metadata
	policy       Policy
	flows        []model.Flow
	flowIndex    map[string]int
	directions   []model.DirectionRule
	directionIdx map[model.Direction]int
	combinations []model.Combination
	combIdx      map[string]int
	courses      []model.Course
	courseIdx    map[string]int
	rules        map[string]map[model.Intensity]RuleSource
	strictlyFree map[string]bool
	coreFlows    map[string]bool
	checksum     string
}

// Compile validates doc, applies defaults and builds a Catalog.
// doc is modified in place by defaulting.
func Compile(doc *Document) (*Catalog, error) {
	if doc == nil {
		return nil, ErrNoCatalog
	}
	if errs := validateDocument(doc); errs.HasErrors() {
		return nil, errs
	}
	applyDefaults(doc)

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog: %w", err)
	}
	sum := sha256.Sum256(data)

	c := &Catalog{
		policy:       doc.Policy.policy(),
		flows:        append([]model.Flow(nil), doc.Flows...),
		flowIndex:    make(map[string]int, len(doc.Flows)),
		directionIdx: make(map[model.Direction]int, len(doc.Directions)),
		combinations: append([]model.Combination(nil), doc.Combinations...),
		combIdx:      make(map[string]int, len(doc.Combinations)),
		courses:      append([]model.Course(nil), doc.Courses...),
		courseIdx:    make(map[string]int, len(doc.Courses)),
		rules:        make(map[string]map[model.Intensity]RuleSource, len(doc.Rules)),
		strictlyFree: toSet(doc.Policy.StrictlyFreeFlows),
		coreFlows:    toSet(doc.Policy.CoreFlows),
		checksum:     hex.EncodeToString(sum[:]),
	}
	if doc.Metadata != nil {
		c.metadata = *doc.Metadata
	}

	for i, f := range c.flows {
		c.flowIndex[f.Code] = i
	}
	for i, d := range doc.Directions {
		c.directions = append(c.directions, model.DirectionRule{
			ID:              d.ID,
			Name:            d.Name,
			Anchors:         append([]string(nil), d.Anchors...),
			AnchorIntensity: d.AnchorIntensity,
			MinOtherFlows:   *d.MinOtherFlows,
		})
		c.directionIdx[d.ID] = i
	}
	for i, comb := range c.combinations {
		c.combIdx[comb.ID] = i
	}
	for i, course := range c.courses {
		c.courseIdx[course.ID] = i
	}
	for flow, byIntensity := range doc.Rules {
		compiled := make(map[model.Intensity]RuleSource, len(byIntensity))
		for intensity, rd := range byIntensity {
			if len(rd.ByDirection) > 0 {
				compiled[intensity] = ByDirection(directionTable(rd.ByDirection))
				continue
			}
			rule := rd.FlowRule
			compiled[intensity] = Static(&rule)
		}
		c.rules[flow] = compiled
	}

	return c, nil
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}

// Checksum identifies the dataset content; it changes whenever any table does.
func (c *Catalog) Checksum() string { return c.checksum }

func (c *Catalog) Metadata() Metadata { return c.metadata }

func (c *Catalog) Policy() Policy {
	p := c.policy
	p.TrackedSemesters = append([]int(nil), c.policy.TrackedSemesters...)
	p.StrictlyFreeFlows = append([]string(nil), c.policy.StrictlyFreeFlows...)
	p.CoreFlows = append([]string(nil), c.policy.CoreFlows...)
	return p
}

func (c *Catalog) IsStrictlyFree(flow string) bool { return c.strictlyFree[flow] }

func (c *Catalog) IsCoreFlow(flow string) bool { return c.coreFlows[flow] }

func (c *Catalog) Flows() []model.Flow {
	return append([]model.Flow(nil), c.flows...)
}

// FlowCodes returns every declared flow code in declaration order.
func (c *Catalog) FlowCodes() []string {
	codes := make([]string, 0, len(c.flows))
	for _, f := range c.flows {
		codes = append(codes, f.Code)
	}
	return codes
}

func (c *Catalog) Flow(code string) (model.Flow, bool) {
	i, ok := c.flowIndex[code]
	if !ok {
		return model.Flow{}, false
	}
	return c.flows[i], true
}

// FlowName falls back to the code when the flow is unknown.
func (c *Catalog) FlowName(code string) string {
	if f, ok := c.Flow(code); ok && f.Name != "" {
		return f.Name
	}
	return code
}

func (c *Catalog) Direction(id model.Direction) (model.DirectionRule, bool) {
	i, ok := c.directionIdx[id]
	if !ok {
		return model.DirectionRule{}, false
	}
	d := c.directions[i]
	d.Anchors = append([]string(nil), d.Anchors...)
	return d, true
}

func (c *Catalog) Directions() []model.DirectionRule {
	out := make([]model.DirectionRule, 0, len(c.directions))
	for _, d := range c.directions {
		d.Anchors = append([]string(nil), d.Anchors...)
		out = append(out, d)
	}
	return out
}

func (c *Catalog) Course(id string) (model.Course, bool) {
	i, ok := c.courseIdx[id]
	if !ok {
		return model.Course{}, false
	}
	return c.courses[i], true
}

func (c *Catalog) Courses() []model.Course {
	return append([]model.Course(nil), c.courses...)
}

func (c *Catalog) CoursesForFlow(code string) []model.Course {
	var out []model.Course
	for _, course := range c.courses {
		if course.Flow == code {
			out = append(out, course)
		}
	}
	return out
}

func (c *Catalog) CoursesInSemester(semester int) []model.Course {
	var out []model.Course
	for _, course := range c.courses {
		if course.Semester == semester {
			out = append(out, course)
		}
	}
	return out
}

func (c *Catalog) Combination(id string) (model.Combination, bool) {
	i, ok := c.combIdx[id]
	if !ok {
		return model.Combination{}, false
	}
	return c.combinations[i], true
}

// Combinations lists the templates for direction, or all of them when direction is empty.
func (c *Catalog) Combinations(direction model.Direction) []model.Combination {
	var out []model.Combination
	for _, comb := range c.combinations {
		if direction == "" || comb.Direction == direction {
			out = append(out, comb)
		}
	}
	return out
}

// Rule returns the rule source for (flow, intensity). The zero RuleSource
// means no extra constraint applies.
func (c *Catalog) Rule(flow string, intensity model.Intensity) RuleSource {
	byIntensity, ok := c.rules[flow]
	if !ok {
		return RuleSource{}
	}
	return byIntensity[intensity]
}

// RuleFlows returns the flow codes that carry at least one rule, sorted.
func (c *Catalog) RuleFlows() []string {
	codes := make([]string, 0, len(c.rules))
	for code := range c.rules {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
