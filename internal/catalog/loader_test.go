package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msageha/flowguide/internal/model"
)

const minimalCatalog = `
schema_version: "1.0.0"
flows:
  - {code: Y, name: Computer Systems}
  - {code: L, name: Software}
  - {code: H, name: Electronics}
directions:
  - id: informatics
    name: Informatics
    anchors: [Y, L]
courses:
  - {id: Y601, semester: 6, ects: 5, type: compulsory, flow: Y, flow_compulsory: true}
  - {id: Y701, semester: 7, ects: 5, type: elective, flow: Y}
rules:
  Y:
    full:
      compulsory: [Y601]
`

func TestLoader_LoadFromBytes(t *testing.T) {
	loader := NewLoader(nil)

	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid configuration",
			yaml:    minimalCatalog,
			wantErr: false,
		},
		{
			name: "missing schema version",
			yaml: `
flows: [{code: Y}]
directions: []
courses: []
rules: {}
`,
			wantErr: true,
			errMsg:  "schema_version is required",
		},
		{
			name: "unknown field rejected",
			yaml: `
schema_version: "1.0.0"
flows: [{code: Y, colour: red}]
`,
			wantErr: true,
			errMsg:  "YAML decode error",
		},
		{
			name: "sentinel flow code",
			yaml: `
schema_version: "1.0.0"
flows: [{code: G}]
`,
			wantErr: true,
			errMsg:  "reserved for non-flow courses",
		},
		{
			name: "direction with one anchor",
			yaml: `
schema_version: "1.0.0"
flows: [{code: Y}]
directions:
  - {id: informatics, anchors: [Y]}
`,
			wantErr: true,
			errMsg:  "exactly 2 anchor flows",
		},
		{
			name: "duplicate course",
			yaml: `
schema_version: "1.0.0"
courses:
  - {id: X1, semester: 6, type: free}
  - {id: X1, semester: 7, type: free}
`,
			wantErr: true,
			errMsg:  "duplicate course id: X1",
		},
		{
			name: "pool requires more than it lists",
			yaml: `
schema_version: "1.0.0"
flows: [{code: Y}]
rules:
  Y:
    full:
      pool: {courses: [a, b], required: 3}
`,
			wantErr: true,
			errMsg:  "requires 3 of only 2 courses",
		},
		{
			name: "by_direction mixed with inline rule",
			yaml: `
schema_version: "1.0.0"
flows: [{code: D}]
rules:
  D:
    half:
      compulsory: [D601]
      by_direction:
        default: {compulsory: [D602]}
`,
			wantErr: true,
			errMsg:  "cannot be combined",
		},
		{
			name: "by_direction with unknown direction",
			yaml: `
schema_version: "1.0.0"
flows: [{code: D}]
rules:
  D:
    half:
      by_direction:
        astronomy: {compulsory: [D602]}
`,
			wantErr: true,
			errMsg:  "unknown direction: astronomy",
		},
		{
			name: "rule keyed by none",
			yaml: `
schema_version: "1.0.0"
flows: [{code: Y}]
rules:
  Y:
    none: {compulsory: [Y601]}
`,
			wantErr: true,
			errMsg:  "keyed by half or full",
		},
		{
			name: "select_one_full without allowed flows",
			yaml: `
schema_version: "1.0.0"
flows: [{code: Y}, {code: L}]
directions:
  - {id: informatics, anchors: [Y, L]}
combinations:
  - id: c1
    direction: informatics
    required: {Y: full, L: full}
    option: {type: select_one_full}
`,
			wantErr: true,
			errMsg:  "requires allowed flows",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := loader.LoadFromBytes([]byte(tt.yaml))
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, cat)
			}
		})
	}
}

func TestLoader_AppliesDefaults(t *testing.T) {
	cat, err := NewLoader(nil).LoadFromBytes([]byte(minimalCatalog))
	require.NoError(t, err)

	p := cat.Policy()
	assert.Equal(t, 5, p.MaxFree)
	assert.Equal(t, 1, p.MaxHumanities)
	assert.Equal(t, 1, p.MaxGeneral)
	assert.Equal(t, 7, p.MaxPerSemester)
	assert.Equal(t, []int{6, 7, 8, 9}, p.TrackedSemesters)
	assert.Equal(t, []string{model.FlowFree}, p.StrictlyFreeFlows)
	assert.Equal(t, 3, p.MinCoreFlows)
	// Core flows default to every direction anchor.
	assert.ElementsMatch(t, []string{"Y", "L"}, p.CoreFlows)

	d, ok := cat.Direction("informatics")
	require.True(t, ok)
	assert.Equal(t, model.IntensityFull, d.AnchorIntensity)
	assert.Equal(t, 1, d.MinOtherFlows)
}

func TestLoader_LoadFromFile_Caching(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalCatalog), 0644))

	loader := NewLoader(nil)

	first, err := loader.LoadFromFile(path)
	require.NoError(t, err)

	second, err := loader.LoadFromFile(path)
	require.NoError(t, err)
	assert.Same(t, first, second, "unmodified file should come from cache")

	// Touch the file into the future so the modification is observed.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	reloaded, changed, err := loader.ReloadFile(path)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotSame(t, first, reloaded)
	assert.Equal(t, first.Checksum(), reloaded.Checksum())
}

func TestLoader_ReloadFile_Unchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalCatalog), 0644))

	loader := NewLoader(nil)
	_, changed, err := loader.ReloadFile(path)
	require.NoError(t, err)
	assert.True(t, changed, "first reload loads the file")

	_, changed, err = loader.ReloadFile(path)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestLoader_ReloadFile_SameTickEdit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalCatalog), 0644))
	info, err := os.Stat(path)
	require.NoError(t, err)

	loader := NewLoader(nil)
	first, err := loader.LoadFromFile(path)
	require.NoError(t, err)

	// An edit within the filesystem's timestamp granularity keeps the mtime.
	edited := minimalCatalog + "metadata: {name: edited}\n"
	require.NoError(t, os.WriteFile(path, []byte(edited), 0644))
	require.NoError(t, os.Chtimes(path, info.ModTime(), info.ModTime()))

	reloaded, changed, err := loader.ReloadFile(path)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotEqual(t, first.Checksum(), reloaded.Checksum())
	assert.Equal(t, "edited", reloaded.Metadata().Name)
}

func TestLoader_ReloadFile_OlderMtime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalCatalog), 0644))

	loader := NewLoader(nil)
	_, err := loader.LoadFromFile(path)
	require.NoError(t, err)

	// A file restored from elsewhere may carry an older timestamp.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, past, past))

	_, changed, err := loader.ReloadFile(path)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestLoader_LoadFromFile_Missing(t *testing.T) {
	_, err := NewLoader(nil).LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stat file")
}

func TestLoader_LoadDefault(t *testing.T) {
	cat, err := NewLoader(nil).Load("")
	require.NoError(t, err)

	assert.Len(t, cat.Directions(), 4)
	assert.Len(t, cat.Flows(), 10)
	assert.Empty(t, cat.Lint(), "embedded dataset should be internally consistent")

	_, ok := cat.Combination("inf-core")
	assert.True(t, ok)
}
