package catalog

import (
	"fmt"
	"sort"

	"github.com/msageha/flowguide/internal/model"
)

// validateDocument checks structural integrity of a dataset before compilation.
// Course ids referenced by rules are not required to exist; see Lint.
func validateDocument(doc *Document) *ValidationErrors {
	errs := &ValidationErrors{}

	if doc.SchemaVersion == "" {
		errs.Add("schema_version", "schema_version is required")
	} else if doc.SchemaVersion != SchemaVersion {
		errs.Addf("schema_version", "unsupported schema version: %s", doc.SchemaVersion)
	}

	validatePolicy(&doc.Policy, errs)

	flows := make(map[string]bool, len(doc.Flows))
	for i, f := range doc.Flows {
		path := fmt.Sprintf("flows[%d]", i)
		switch {
		case f.Code == "":
			errs.Add(path+".code", "missing code")
		case model.IsSentinelFlow(f.Code):
			errs.Addf(path+".code", "%q is reserved for non-flow courses", f.Code)
		case flows[f.Code]:
			errs.Addf(path+".code", "duplicate flow code: %s", f.Code)
		}
		flows[f.Code] = true
	}

	directions := make(map[model.Direction]bool, len(doc.Directions))
	for i, d := range doc.Directions {
		path := fmt.Sprintf("directions[%d]", i)
		if d.ID == "" {
			errs.Add(path+".id", "missing id")
		} else if directions[d.ID] {
			errs.Addf(path+".id", "duplicate direction id: %s", d.ID)
		}
		directions[d.ID] = true

		if len(d.Anchors) != 2 {
			errs.Addf(path+".anchors", "must name exactly 2 anchor flows, got %d", len(d.Anchors))
		}
		for j, a := range d.Anchors {
			if !flows[a] {
				errs.Addf(fmt.Sprintf("%s.anchors[%d]", path, j), "unknown flow: %s", a)
			}
		}
		if d.AnchorIntensity != "" && !d.AnchorIntensity.Active() {
			errs.Addf(path+".anchor_intensity", "must be half or full, got %q", d.AnchorIntensity)
		}
		if d.MinOtherFlows != nil && *d.MinOtherFlows < 0 {
			errs.Addf(path+".min_other_flows", "must be >= 0, got %d", *d.MinOtherFlows)
		}
	}

	courses := make(map[string]bool, len(doc.Courses))
	for i, c := range doc.Courses {
		path := fmt.Sprintf("courses[%d]", i)
		if c.ID == "" {
			errs.Add(path+".id", "missing id")
		} else if courses[c.ID] {
			errs.Addf(path+".id", "duplicate course id: %s", c.ID)
		}
		courses[c.ID] = true

		if !model.IsValidCourseType(c.Type) {
			errs.Addf(path+".type", "invalid type: %q", c.Type)
		}
		if c.Semester < 1 {
			errs.Addf(path+".semester", "must be >= 1, got %d", c.Semester)
		}
		if c.ECTS < 0 {
			errs.Addf(path+".ects", "must be >= 0, got %v", c.ECTS)
		}
	}

	combinations := make(map[string]bool, len(doc.Combinations))
	for i, comb := range doc.Combinations {
		path := fmt.Sprintf("combinations[%d]", i)
		if comb.ID == "" {
			errs.Add(path+".id", "missing id")
		} else if combinations[comb.ID] {
			errs.Addf(path+".id", "duplicate combination id: %s", comb.ID)
		}
		combinations[comb.ID] = true

		if !directions[comb.Direction] {
			errs.Addf(path+".direction", "unknown direction: %s", comb.Direction)
		}
		if len(comb.Required) == 0 {
			errs.Add(path+".required", "must fix at least one flow")
		}
		for _, code := range sortedKeys(comb.Required) {
			if !flows[code] {
				errs.Addf(path+".required."+code, "unknown flow: %s", code)
			}
			if !comb.Required[code].Active() {
				errs.Addf(path+".required."+code, "must be half or full, got %q", comb.Required[code])
			}
		}
		switch comb.Option.Type {
		case model.OptionSelectOneFull:
			if len(comb.Option.Allowed) == 0 {
				errs.Add(path+".option.allowed", "select_one_full requires allowed flows")
			}
		case model.OptionAnyGEHalf:
		default:
			errs.Addf(path+".option.type", "invalid option type: %q", comb.Option.Type)
		}
		for j, code := range comb.Option.Allowed {
			if !flows[code] {
				errs.Addf(fmt.Sprintf("%s.option.allowed[%d]", path, j), "unknown flow: %s", code)
			}
		}
		for j, code := range comb.Option.Exclude {
			if !flows[code] {
				errs.Addf(fmt.Sprintf("%s.option.exclude[%d]", path, j), "unknown flow: %s", code)
			}
		}
	}

	for _, flow := range sortedRuleFlows(doc.Rules) {
		if !flows[flow] {
			errs.Addf("rules."+flow, "unknown flow: %s", flow)
		}
		byIntensity := doc.Rules[flow]
		for _, intensity := range []model.Intensity{model.IntensityHalf, model.IntensityFull} {
			rd, ok := byIntensity[intensity]
			if !ok {
				continue
			}
			validateRuleDoc(fmt.Sprintf("rules.%s.%s", flow, intensity), rd, directions, errs)
		}
		for intensity := range byIntensity {
			if !intensity.Active() {
				errs.Addf("rules."+flow, "rules may only be keyed by half or full, got %q", intensity)
			}
		}
	}

	return errs
}

func validatePolicy(p *PolicyDoc, errs *ValidationErrors) {
	caps := []struct {
		name  string
		value *int
	}{
		{"max_free", p.MaxFree},
		{"max_humanities", p.MaxHumanities},
		{"max_general", p.MaxGeneral},
		{"max_per_semester", p.MaxPerSemester},
		{"diversity_semester", p.DiversitySemester},
		{"min_core_flows", p.MinCoreFlows},
	}
	for _, c := range caps {
		if c.value != nil && *c.value < 0 {
			errs.Addf("policy."+c.name, "must be >= 0, got %d", *c.value)
		}
	}
	for i, s := range p.TrackedSemesters {
		if s < 1 {
			errs.Addf(fmt.Sprintf("policy.tracked_semesters[%d]", i), "must be >= 1, got %d", s)
		}
	}
}

func validateRuleDoc(path string, rd RuleDoc, directions map[model.Direction]bool, errs *ValidationErrors) {
	if len(rd.ByDirection) > 0 {
		if !rd.FlowRule.IsEmpty() {
			errs.Add(path, "by_direction cannot be combined with inline requirements")
		}
		keys := make([]string, 0, len(rd.ByDirection))
		for k := range rd.ByDirection {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if key != defaultDirectionKey && !directions[model.Direction(key)] {
				errs.Addf(path+".by_direction."+key, "unknown direction: %s", key)
			}
			validateFlowRule(path+".by_direction."+key, rd.ByDirection[key], errs)
		}
		return
	}
	rule := rd.FlowRule
	validateFlowRule(path, &rule, errs)
}

func validateFlowRule(path string, r *FlowRule, errs *ValidationErrors) {
	if r.IsEmpty() {
		errs.Add(path, "rule must declare compulsory, pool or options")
		return
	}
	if r.Pool != nil {
		if len(r.Pool.Courses) == 0 {
			errs.Add(path+".pool.courses", "pool must list at least one course")
		}
		if r.Pool.Required < 1 {
			errs.Addf(path+".pool.required", "must be >= 1, got %d", r.Pool.Required)
		} else if r.Pool.Required > len(r.Pool.Courses) {
			errs.Addf(path+".pool.required", "requires %d of only %d courses", r.Pool.Required, len(r.Pool.Courses))
		}
	}
	for i, group := range r.Options {
		if len(group) == 0 {
			errs.Add(fmt.Sprintf("%s.options[%d]", path, i), "option group must not be empty")
		}
	}
}

// applyDefaults fills unset policy caps and direction settings.
func applyDefaults(doc *Document) {
	def := DefaultPolicy()
	p := &doc.Policy
	setDefault(&p.MaxFree, def.MaxFree)
	setDefault(&p.MaxHumanities, def.MaxHumanities)
	setDefault(&p.MaxGeneral, def.MaxGeneral)
	setDefault(&p.MaxPerSemester, def.MaxPerSemester)
	setDefault(&p.DiversitySemester, def.DiversitySemester)
	setDefault(&p.MinCoreFlows, def.MinCoreFlows)
	if p.TrackedSemesters == nil {
		p.TrackedSemesters = def.TrackedSemesters
	}
	if p.StrictlyFreeFlows == nil {
		p.StrictlyFreeFlows = def.StrictlyFreeFlows
	}
	if len(p.CoreFlows) == 0 {
		// Every direction anchor is a core flow unless stated otherwise.
		seen := make(map[string]bool)
		for _, d := range doc.Directions {
			for _, a := range d.Anchors {
				if !seen[a] {
					seen[a] = true
					p.CoreFlows = append(p.CoreFlows, a)
				}
			}
		}
	}
	sort.Ints(p.TrackedSemesters)

	for i := range doc.Directions {
		d := &doc.Directions[i]
		if d.AnchorIntensity == "" {
			d.AnchorIntensity = model.IntensityFull
		}
		setDefault(&d.MinOtherFlows, 1)
		if d.Name == "" {
			d.Name = string(d.ID)
		}
	}
}

func setDefault(field **int, value int) {
	if *field == nil {
		*field = &value
	}
}

func sortedKeys(m map[string]model.Intensity) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedRuleFlows(rules map[string]map[model.Intensity]RuleDoc) []string {
	keys := make([]string, 0, len(rules))
	for k := range rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
