package rules

import (
	"fmt"
	"strings"

	"github.com/msageha/flowguide/internal/catalog"
	"github.com/msageha/flowguide/internal/model"
)

// RuleKind names the requirement shape a status reports on.
type RuleKind string

const (
	KindCompulsory RuleKind = "compulsory"
	KindPool       RuleKind = "pool"
	KindOptions    RuleKind = "options"
)

// RuleStatus is the progress of one requirement of one (flow, intensity) rule.
type RuleStatus struct {
	ID          string          `json:"id" yaml:"id"`
	Flow        string          `json:"flow" yaml:"flow"`
	Intensity   model.Intensity `json:"intensity" yaml:"intensity"`
	Kind        RuleKind        `json:"kind" yaml:"kind"`
	Description string          `json:"description" yaml:"description"`
	Met         bool            `json:"met" yaml:"met"`
	Courses     []string        `json:"courses" yaml:"courses"`
	Current     int             `json:"current" yaml:"current"`
	Target      int             `json:"target" yaml:"target"`
	// Strict asks consumers to lock further picks from Courses once Met.
	Strict bool `json:"strict,omitempty" yaml:"strict,omitempty"`
}

// EvaluateFlowRule reports on every requirement of the rule attached to
// (flow, intensity), resolved for direction. A none intensity or a pair
// without a rule yields no statuses.
func EvaluateFlowRule(cat *catalog.Catalog, flow string, intensity model.Intensity, direction model.Direction, selected model.CourseSet) []RuleStatus {
	if !intensity.Active() {
		return nil
	}
	rule := cat.Rule(flow, intensity).Resolve(direction)
	if rule.IsEmpty() {
		return nil
	}
	return evaluateRule(cat.FlowName(flow), flow, intensity, rule, selected)
}

func evaluateRule(name, flow string, intensity model.Intensity, rule *catalog.FlowRule, selected model.CourseSet) []RuleStatus {
	var statuses []RuleStatus
	prefix := fmt.Sprintf("%s.%s.", flow, intensity)

	if len(rule.Compulsory) > 0 {
		n := selected.Count(rule.Compulsory)
		target := len(uniq(rule.Compulsory))
		statuses = append(statuses, RuleStatus{
			ID:          prefix + string(KindCompulsory),
			Flow:        flow,
			Intensity:   intensity,
			Kind:        KindCompulsory,
			Description: fmt.Sprintf("%s (%s): take all compulsory courses %s", name, intensity, strings.Join(rule.Compulsory, ", ")),
			Met:         n == target,
			Courses:     append([]string(nil), rule.Compulsory...),
			Current:     n,
			Target:      target,
		})
	}

	if rule.Pool != nil {
		n := selected.Count(rule.Pool.Courses)
		statuses = append(statuses, RuleStatus{
			ID:          prefix + string(KindPool),
			Flow:        flow,
			Intensity:   intensity,
			Kind:        KindPool,
			Description: fmt.Sprintf("%s (%s): take at least %d of %s", name, intensity, rule.Pool.Required, strings.Join(rule.Pool.Courses, ", ")),
			Met:         n >= rule.Pool.Required,
			Courses:     append([]string(nil), rule.Pool.Courses...),
			Current:     n,
			Target:      rule.Pool.Required,
			Strict:      rule.Strict,
		})
	}

	for i, group := range rule.Options {
		n := selected.Count(group)
		statuses = append(statuses, RuleStatus{
			ID:          fmt.Sprintf("%s%s.%d", prefix, KindOptions, i+1),
			Flow:        flow,
			Intensity:   intensity,
			Kind:        KindOptions,
			Description: fmt.Sprintf("%s (%s): take one of %s", name, intensity, strings.Join(group, ", ")),
			Met:         n >= 1,
			Courses:     append([]string(nil), group...),
			Current:     n,
			Target:      1,
			Strict:      rule.Strict,
		})
	}

	return statuses
}

func uniq(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
