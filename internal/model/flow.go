package model

import (
	"sort"
	"strings"
)

type Intensity string

const (
	IntensityNone Intensity = "none"
	IntensityHalf Intensity = "half"
	IntensityFull Intensity = "full"
)

// ParseIntensity maps user input onto an Intensity. Anything unrecognised is none.
func ParseIntensity(s string) Intensity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "half", "1/2":
		return IntensityHalf
	case "full", "1":
		return IntensityFull
	default:
		return IntensityNone
	}
}

func IsValidIntensity(i Intensity) bool {
	switch i {
	case IntensityNone, IntensityHalf, IntensityFull:
		return true
	}
	return false
}

// Active reports whether the intensity commits any coursework (half or full).
func (i Intensity) Active() bool {
	return i == IntensityHalf || i == IntensityFull
}

// FlowSelections maps a flow code to its chosen intensity. A missing key is none.
type FlowSelections map[string]Intensity

// Get returns the intensity for code, normalising missing and unknown values to none.
func (f FlowSelections) Get(code string) Intensity {
	i, ok := f[code]
	if !ok || !IsValidIntensity(i) {
		return IntensityNone
	}
	return i
}

// Active returns the codes with a half or full intensity, sorted.
func (f FlowSelections) Active() []string {
	codes := make([]string, 0, len(f))
	for code := range f {
		if f.Get(code).Active() {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}

// Clone returns an independent copy. A nil receiver yields an empty map.
func (f FlowSelections) Clone() FlowSelections {
	out := make(FlowSelections, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Canonical renders the active selections as "A=full,B=half" for fingerprinting.
func (f FlowSelections) Canonical() string {
	active := f.Active()
	parts := make([]string, 0, len(active))
	for _, code := range active {
		parts = append(parts, code+"="+string(f[code]))
	}
	return strings.Join(parts, ",")
}

func (i Intensity) rank() int {
	switch i {
	case IntensityHalf:
		return 1
	case IntensityFull:
		return 2
	default:
		return 0
	}
}

// AtLeast reports whether i commits at least as much coursework as min.
func (i Intensity) AtLeast(min Intensity) bool {
	return i.rank() >= min.rank()
}
