package catalog

import "github.com/msageha/flowguide/internal/model"

// Pool requires at least Required of Courses to be selected.
type Pool struct {
	Courses  []string `yaml:"courses" json:"courses"`
	Required int      `yaml:"required" json:"required"`
}

// FlowRule is the requirement attached to one (flow, intensity) pair.
// Compulsory, Pool and Options may be combined; each is evaluated on its own.
type FlowRule struct {
	Compulsory []string   `yaml:"compulsory,omitempty" json:"compulsory,omitempty"`
	Pool       *Pool      `yaml:"pool,omitempty" json:"pool,omitempty"`
	Options    [][]string `yaml:"options,omitempty" json:"options,omitempty"`
	// Strict marks pool and option statuses as locking once met.
	Strict bool `yaml:"strict,omitempty" json:"strict,omitempty"`
}

func (r *FlowRule) IsEmpty() bool {
	return r == nil || (len(r.Compulsory) == 0 && r.Pool == nil && len(r.Options) == 0)
}

// CourseIDs returns every course id the rule references, in declaration order.
func (r *FlowRule) CourseIDs() []string {
	if r == nil {
		return nil
	}
	ids := append([]string(nil), r.Compulsory...)
	if r.Pool != nil {
		ids = append(ids, r.Pool.Courses...)
	}
	for _, group := range r.Options {
		ids = append(ids, group...)
	}
	return ids
}

type ruleKind int

const (
	ruleNone ruleKind = iota
	ruleStatic
	ruleByDirection
)

// RuleSource is either a static FlowRule or a resolver parameterised by direction.
// Callers resolve it once per evaluation and only inspect the result.
type RuleSource struct {
	kind    ruleKind
	static  *FlowRule
	resolve func(model.Direction) *FlowRule
}

func Static(rule *FlowRule) RuleSource {
	return RuleSource{kind: ruleStatic, static: rule}
}

func ByDirection(resolve func(model.Direction) *FlowRule) RuleSource {
	return RuleSource{kind: ruleByDirection, resolve: resolve}
}

// Resolve returns the rule in force for direction, or nil when none applies.
func (s RuleSource) Resolve(direction model.Direction) *FlowRule {
	switch s.kind {
	case ruleStatic:
		return s.static
	case ruleByDirection:
		if s.resolve == nil {
			return nil
		}
		return s.resolve(direction)
	default:
		return nil
	}
}

func (s RuleSource) IsZero() bool {
	return s.kind == ruleNone
}

func (s RuleSource) DirectionDependent() bool {
	return s.kind == ruleByDirection
}

// directionTable compiles a by_direction map into a resolver. The "default"
// entry applies to any direction without its own entry, including none.
func directionTable(table map[string]*FlowRule) func(model.Direction) *FlowRule {
	rules := make(map[model.Direction]*FlowRule, len(table))
	var fallback *FlowRule
	for key, rule := range table {
		if key == defaultDirectionKey {
			fallback = rule
			continue
		}
		rules[model.Direction(key)] = rule
	}
	return func(d model.Direction) *FlowRule {
		if r, ok := rules[d]; ok {
			return r
		}
		return fallback
	}
}

const defaultDirectionKey = "default"
