package rules

import (
	"errors"
	"fmt"

	"github.com/msageha/flowguide/internal/catalog"
	"github.com/msageha/flowguide/internal/model"
)

var ErrUnknownCombination = errors.New("unknown combination")

// CombinationSatisfied reports whether flows is an instance of comb: every
// required flow at exactly its fixed intensity and the remaining flows
// matching the option policy.
func CombinationSatisfied(comb model.Combination, flows model.FlowSelections) bool {
	for code, want := range comb.Required {
		if flows.Get(code) != want {
			return false
		}
	}

	var open []string
	for _, code := range flows.Active() {
		if _, required := comb.Required[code]; !required {
			open = append(open, code)
		}
	}

	switch comb.Option.Type {
	case model.OptionSelectOneFull:
		if len(open) != 1 {
			return false
		}
		return flows.Get(open[0]) == model.IntensityFull && contains(comb.Option.Allowed, open[0])

	case model.OptionAnyGEHalf:
		full, half := 0, 0
		for _, code := range open {
			// An excluded flow is not merely left out of the count: picking
			// it at any intensity fails the template.
			if contains(comb.Option.Exclude, code) {
				return false
			}
			switch flows.Get(code) {
			case model.IntensityFull:
				full++
			case model.IntensityHalf:
				half++
			}
		}
		switch {
		case full == 1 && half == 0:
			return true
		case full == 0 && (half == 1 || half == 2):
			return true
		default:
			return false
		}
	}
	return false
}

// MatchCombination returns the first combination of direction that flows satisfies.
func MatchCombination(cat *catalog.Catalog, direction model.Direction, flows model.FlowSelections) (model.Combination, bool) {
	if direction == "" {
		return model.Combination{}, false
	}
	for _, comb := range cat.Combinations(direction) {
		if CombinationSatisfied(comb, flows) {
			return comb, true
		}
	}
	return model.Combination{}, false
}

// ApplyCombination returns a copy of sel with the combination's template
// applied. Every open flow is cleared when there is no previous combination,
// or when it belongs to another direction or option type. Otherwise only the
// open choices survive: flows the previous template fixed but this one does
// not, and flows this template excludes, are cleared.
func ApplyCombination(cat *catalog.Catalog, sel model.Selection, combinationID string) (model.Selection, error) {
	comb, ok := cat.Combination(combinationID)
	if !ok {
		return sel, fmt.Errorf("%w: %s", ErrUnknownCombination, combinationID)
	}

	out := sel.Clone()
	prev, hadPrev := cat.Combination(sel.Combination)
	fullReset := !hadPrev || prev.Direction != comb.Direction || prev.Option.Type != comb.Option.Type

	for code := range out.Flows {
		if _, required := comb.Required[code]; required {
			continue
		}
		_, prevRequired := prev.Required[code]
		if fullReset || prevRequired || contains(comb.Option.Exclude, code) {
			delete(out.Flows, code)
		}
	}

	for code, intensity := range comb.Required {
		out.Flows[code] = intensity
	}
	out.Direction = comb.Direction
	out.Combination = comb.ID

	return out, nil
}

func contains(items []string, s string) bool {
	for _, it := range items {
		if it == s {
			return true
		}
	}
	return false
}
