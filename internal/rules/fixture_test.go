package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/msageha/flowguide/internal/catalog"
	"github.com/msageha/flowguide/internal/model"
)

const fixtureCatalog = `
schema_version: "1.0.0"
policy:
  core_flows: [Y, L, H, K, T, D]
flows:
  - {code: Y, name: Computer Systems}
  - {code: L, name: Software}
  - {code: H, name: Electronics}
  - {code: K, name: Circuits}
  - {code: T, name: Telecoms}
  - {code: D, name: Networks}
  - {code: S, name: Signals}
directions:
  - {id: informatics, name: Informatics, anchors: [Y, L]}
  - {id: electronics, name: Electronics, anchors: [H, K]}
  - {id: communications, name: Communications, anchors: [T, D], min_other_flows: 2}
combinations:
  - id: inf-any
    label: Informatics core
    direction: informatics
    required: {Y: full, L: full}
    option: {type: any_ge_half, exclude: [S]}
  - id: inf-alt
    label: Informatics with half software
    direction: informatics
    required: {Y: full, L: half}
    option: {type: any_ge_half}
  - id: inf-one
    label: Informatics hardware
    direction: informatics
    required: {Y: full, L: full}
    option: {type: select_one_full, allowed: [H, K]}
  - id: inf-sig
    label: Informatics with signals
    direction: informatics
    required: {Y: full, L: full, S: half}
    option: {type: any_ge_half}
  - id: com-any
    label: Communications core
    direction: communications
    required: {T: full, D: full}
    option: {type: any_ge_half}
courses:
  - {id: Y601, semester: 6, ects: 5, type: compulsory, flow: Y, flow_compulsory: true}
  - {id: Y602, semester: 6, ects: 5, type: compulsory, flow: Y, flow_compulsory: true}
  - {id: Y603, semester: 6, ects: 5, type: compulsory, flow: Y, flow_compulsory: true}
  - {id: Y901, semester: 9, ects: 5, type: elective, flow: Y}
  - {id: Y902, semester: 9, ects: 5, type: elective, flow: Y}
  - {id: L601, semester: 6, ects: 5, type: compulsory, flow: L, flow_compulsory: true}
  - {id: L701, semester: 7, ects: 5, type: elective, flow: L}
  - {id: L702, semester: 7, ects: 5, type: elective, flow: L}
  - {id: L703, semester: 7, ects: 5, type: elective, flow: L}
  - {id: L704, semester: 7, ects: 5, type: elective, flow: L}
  - {id: H601, semester: 6, ects: 5, type: compulsory, flow: H, flow_compulsory: true}
  - {id: H701, semester: 7, ects: 5, type: elective, flow: H}
  - {id: H702, semester: 7, ects: 5, type: elective, flow: H}
  - {id: H801, semester: 8, ects: 5, type: elective, flow: H}
  - {id: H802, semester: 8, ects: 5, type: elective, flow: H}
  - {id: K601, semester: 6, ects: 5, type: compulsory, flow: K, flow_compulsory: true}
  - {id: K602, semester: 6, ects: 5, type: elective, flow: K}
  - {id: T601, semester: 6, ects: 5, type: compulsory, flow: T, flow_compulsory: true}
  - {id: D601, semester: 6, ects: 5, type: compulsory, flow: D, flow_compulsory: true}
  - {id: D602, semester: 6, ects: 5, type: compulsory, flow: D, flow_compulsory: true}
  - {id: S601, semester: 6, ects: 5, type: compulsory, flow: S, flow_compulsory: true}
  - {id: F701, semester: 7, ects: 4, type: free, flow: F}
  - {id: F702, semester: 7, ects: 4, type: free, flow: F}
  - {id: F703, semester: 7, ects: 4, type: free, flow: F}
  - {id: F801, semester: 8, ects: 4, type: free, flow: F}
  - {id: F802, semester: 8, ects: 4, type: free, flow: F}
  - {id: F901, semester: 9, ects: 4, type: free, flow: F}
  - {id: Q901, semester: 9, ects: 4, type: elective, flow: F}
  - {id: A701, semester: 7, ects: 3, type: humanities, flow: A}
  - {id: A801, semester: 8, ects: 3, type: humanities, flow: A}
  - {id: B901, semester: 9, ects: 3, type: elective, flow: A}
  - {id: G701, semester: 7, ects: 4, type: elective, flow: G}
  - {id: G801, semester: 8, ects: 4, type: elective, flow: G}
  - {id: E801, semester: 8, ects: 5, type: elective}
  - {id: E802, semester: 8, ects: 5, type: elective}
  - {id: E803, semester: 8, ects: 5, type: elective}
  - {id: E804, semester: 8, ects: 5, type: elective}
  - {id: E805, semester: 8, ects: 5, type: elective}
  - {id: E806, semester: 8, ects: 5, type: elective}
  - {id: E807, semester: 8, ects: 5, type: elective}
  - {id: E808, semester: 8, ects: 5, type: elective}
rules:
  Y:
    full:
      compulsory: [Y601, Y602, Y603]
      options: [[Y901, Y902]]
      strict: true
    half:
      compulsory: [Y601]
  L:
    full:
      pool: {courses: [L701, L702, L703, L704], required: 2}
  H:
    half:
      options: [[H701, H702], [H801, H802]]
  D:
    half:
      by_direction:
        default: {compulsory: [D601]}
        informatics: {compulsory: [D602]}
`

// diversityCourses covers three core flows in semester 6 so the diversity
// warning stays out of tests aimed at other checks.
var diversityCourses = []string{"Y601", "L601", "H601"}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.NewLoader(nil).LoadFromBytes([]byte(fixtureCatalog))
	require.NoError(t, err)
	return cat
}

func courses(ids ...string) model.CourseSet {
	return model.NewCourseSet(ids...)
}

func withDiversity(ids ...string) model.CourseSet {
	return model.NewCourseSet(append(append([]string(nil), diversityCourses...), ids...)...)
}

// completeSelection satisfies every rule and cap of the fixture.
func completeSelection() model.Selection {
	return model.Selection{
		Direction: "informatics",
		Flows: model.FlowSelections{
			"Y": model.IntensityFull,
			"L": model.IntensityFull,
			"H": model.IntensityHalf,
		},
		Courses: []string{
			"Y601", "Y602", "Y603", "Y901",
			"L601", "L701", "L702",
			"H601", "H701", "H801",
		},
	}
}
