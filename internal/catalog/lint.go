package catalog

import (
	"fmt"

	"github.com/msageha/flowguide/internal/model"
)

// Lint reports integrity problems that do not prevent evaluation: rules that
// reference courses missing from the catalog, and courses tagged with an
// undeclared flow. The engine never calls it during evaluation.
func (c *Catalog) Lint() []string {
	var warnings []string

	for _, flow := range c.RuleFlows() {
		for _, intensity := range []model.Intensity{model.IntensityHalf, model.IntensityFull} {
			src := c.Rule(flow, intensity)
			if src.IsZero() {
				continue
			}
			if src.DirectionDependent() {
				for _, d := range c.directionsWithDefault() {
					label := fmt.Sprintf("rules.%s.%s[%s]", flow, intensity, d)
					warnings = append(warnings, c.lintRule(label, src.Resolve(d))...)
				}
				continue
			}
			warnings = append(warnings, c.lintRule(fmt.Sprintf("rules.%s.%s", flow, intensity), src.Resolve(""))...)
		}
	}

	for _, course := range c.courses {
		if model.IsSentinelFlow(course.Flow) {
			continue
		}
		if _, ok := c.flowIndex[course.Flow]; !ok {
			warnings = append(warnings, fmt.Sprintf("course %s: unknown flow %s", course.ID, course.Flow))
		}
	}

	return warnings
}

func (c *Catalog) lintRule(label string, rule *FlowRule) []string {
	var warnings []string
	seen := make(map[string]bool)
	for _, id := range rule.CourseIDs() {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := c.courseIdx[id]; !ok {
			warnings = append(warnings, fmt.Sprintf("%s: unknown course %s", label, id))
		}
	}
	return warnings
}

// directionsWithDefault lists "" (no direction) followed by every declared direction.
func (c *Catalog) directionsWithDefault() []model.Direction {
	out := []model.Direction{""}
	for _, d := range c.directions {
		out = append(out, d.ID)
	}
	return out
}
