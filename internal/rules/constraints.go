package rules

import (
	"fmt"

	"github.com/msageha/flowguide/internal/catalog"
	"github.com/msageha/flowguide/internal/model"
)

// CheckGlobalConstraints returns one warning per violated cap or requirement.
// Every check runs regardless of the others; an empty result means the
// selection is compliant. Course ids missing from the catalog are ignored.
func CheckGlobalConstraints(cat *catalog.Catalog, selected model.CourseSet, direction model.Direction, flows model.FlowSelections) []string {
	policy := cat.Policy()

	var free, humanities, general int
	perSemester := make(map[int]int)
	coreCovered := make(map[string]bool)
	for id := range selected {
		course, ok := cat.Course(id)
		if !ok {
			continue
		}
		if course.Type == model.CourseTypeFree || cat.IsStrictlyFree(course.Flow) {
			free++
		}
		if course.Type == model.CourseTypeHumanities || course.Flow == model.FlowHumanities {
			humanities++
		}
		if course.Flow == model.FlowGeneral {
			general++
		}
		perSemester[course.Semester]++
		if course.Semester == policy.DiversitySemester && course.FlowCompulsory && cat.IsCoreFlow(course.Flow) {
			coreCovered[course.Flow] = true
		}
	}

	var warnings []string

	if free > policy.MaxFree {
		warnings = append(warnings, fmt.Sprintf("too many free electives: %d selected, at most %d allowed", free, policy.MaxFree))
	}
	if humanities > policy.MaxHumanities {
		warnings = append(warnings, fmt.Sprintf("too many humanities courses: %d selected, at most %d allowed", humanities, policy.MaxHumanities))
	}
	if general > policy.MaxGeneral {
		warnings = append(warnings, fmt.Sprintf("too many courses outside any flow: %d selected, at most %d allowed", general, policy.MaxGeneral))
	}
	for _, sem := range policy.TrackedSemesters {
		if n := perSemester[sem]; n > policy.MaxPerSemester {
			warnings = append(warnings, fmt.Sprintf("semester %d is overloaded: %d courses selected, at most %d allowed", sem, n, policy.MaxPerSemester))
		}
	}

	for _, code := range flows.Active() {
		intensity := flows.Get(code)
		rule := cat.Rule(code, intensity).Resolve(direction)
		if rule.IsEmpty() {
			continue
		}
		warnings = append(warnings, flowWarnings(code, intensity, rule, selected)...)
	}

	if len(coreCovered) < policy.MinCoreFlows {
		warnings = append(warnings, fmt.Sprintf("semester %d compulsory courses cover %d core flow(s); at least %d required",
			policy.DiversitySemester, len(coreCovered), policy.MinCoreFlows))
	}

	return warnings
}

func flowWarnings(flow string, intensity model.Intensity, rule *catalog.FlowRule, selected model.CourseSet) []string {
	var warnings []string

	if len(rule.Compulsory) > 0 {
		target := len(uniq(rule.Compulsory))
		if missing := target - selected.Count(rule.Compulsory); missing > 0 {
			warnings = append(warnings, fmt.Sprintf("flow %s (%s): %d compulsory course(s) missing", flow, intensity, missing))
		}
	}
	if rule.Pool != nil {
		if short := rule.Pool.Required - selected.Count(rule.Pool.Courses); short > 0 {
			warnings = append(warnings, fmt.Sprintf("flow %s (%s): %d more pool course(s) needed, %d required", flow, intensity, short, rule.Pool.Required))
		}
	}
	for i, group := range rule.Options {
		if selected.Count(group) == 0 {
			warnings = append(warnings, fmt.Sprintf("flow %s (%s): option group %d has no selected course", flow, intensity, i+1))
		}
	}

	return warnings
}
