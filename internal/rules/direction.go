package rules

import (
	"fmt"
	"strings"

	"github.com/msageha/flowguide/internal/catalog"
	"github.com/msageha/flowguide/internal/model"
)

const (
	msgNoDirection      = "select a direction."
	msgUnknownDirection = "unknown direction."
)

// DirectionResult is the gate outcome. Error is empty when Valid.
type DirectionResult struct {
	Valid bool   `json:"valid" yaml:"valid"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

func invalid(format string, args ...any) DirectionResult {
	return DirectionResult{Error: fmt.Sprintf(format, args...)}
}

// ValidateDirection checks flows against the direction's anchor and
// other-flow policy. Course selections are not inspected.
func ValidateDirection(cat *catalog.Catalog, direction model.Direction, flows model.FlowSelections) DirectionResult {
	if direction == "" {
		return DirectionResult{Error: msgNoDirection}
	}
	d, ok := cat.Direction(direction)
	if !ok {
		return DirectionResult{Error: msgUnknownDirection}
	}

	var missing []string
	for _, a := range d.Anchors {
		if !flows.Get(a).AtLeast(d.AnchorIntensity) {
			missing = append(missing, a)
		}
	}
	if len(missing) > 0 {
		return invalid("%s requires flows %s at %s intensity.", d.Name, strings.Join(missing, ", "), d.AnchorIntensity)
	}

	others := 0
	for _, code := range flows.Active() {
		if d.IsAnchor(code) {
			continue
		}
		// Codes the catalog does not know contribute nothing.
		if _, known := cat.Flow(code); !known {
			continue
		}
		others++
	}
	if others < d.MinOtherFlows {
		return invalid("%s requires at least %d flow(s) besides %s at half or full intensity; %d selected.",
			d.Name, d.MinOtherFlows, strings.Join(d.Anchors, ", "), others)
	}

	return DirectionResult{Valid: true}
}
