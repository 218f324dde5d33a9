package selection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msageha/flowguide/internal/lock"
	"github.com/msageha/flowguide/internal/logging"
	"github.com/msageha/flowguide/internal/model"
	"github.com/msageha/flowguide/internal/yaml"
)

func newTestStore(t *testing.T) (*Store, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), ".flowguide", "selection.yaml")
	s := NewStore(path, logging.NewWriter(&buf, logging.LogLevelDebug))
	s.now = func() time.Time { return time.Date(2026, 5, 4, 10, 30, 15, 500, time.UTC) }
	return s, &buf
}

func TestStore_LoadMissing(t *testing.T) {
	s, _ := newTestStore(t)

	st, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, st.Direction)
	assert.Empty(t, st.Courses)

	_, err = os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err), "Load must not create the file")
}

func TestStore_SaveLoad(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	in := sampleState()
	require.NoError(t, s.Save(ctx, in))

	got, err := s.Load(ctx)
	require.NoError(t, err)

	want := sampleState()
	want.UpdatedAt = time.Date(2026, 5, 4, 10, 30, 15, 0, time.UTC)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("loaded state mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, in.UpdatedAt.IsZero(), "Save must not modify its argument")
}

func TestStore_SaveKeepsBackup(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first := sampleState()
	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, SetDirection(first, "energy")))

	bak, err := os.ReadFile(yaml.BackupPath(s.Path()))
	require.NoError(t, err)
	prev, err := Unmarshal(bak)
	require.NoError(t, err)
	assert.Equal(t, model.Direction("informatics"), prev.Direction)
}

func TestStore_Update(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	got, err := s.Update(ctx, func(st State) (State, error) {
		st = SetDirection(st, "informatics")
		st = SetIntensity(st, "Y", model.IntensityFull)
		return ToggleCourse(st, "Y601"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Y601"}, got.Courses)
	assert.False(t, got.UpdatedAt.IsZero())

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(got, loaded); diff != "" {
		t.Errorf("Update result differs from stored state (-returned +loaded):\n%s", diff)
	}
}

func TestStore_UpdateErrorWritesNothing(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sampleState()))

	boom := errors.New("boom")
	_, err := s.Update(ctx, func(st State) (State, error) {
		return ToggleCourse(st, "Z999"), boom
	})
	assert.ErrorIs(t, err, boom)

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.False(t, loaded.HasCourse("Z999"))
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			other := NewStore(s.Path(), nil)
			_, err := other.Update(ctx, func(st State) (State, error) {
				return ToggleCourse(st, fmt.Sprintf("C%02d", i)), nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	st, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, st.Courses, 10, "no update may be lost")
}

func TestStore_RecoversFromBackup(t *testing.T) {
	s, logs := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleState()))
	require.NoError(t, s.Save(ctx, SetDirection(sampleState(), "energy")))
	require.NoError(t, os.WriteFile(s.Path(), []byte("flows: [\n"), 0644))

	st, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Direction("informatics"), st.Direction, "backup holds the previous save")

	entries, err := os.ReadDir(filepath.Join(filepath.Dir(s.Path()), yaml.QuarantineDir))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Contains(t, logs.String(), "selection recovered via backup")
}

func TestStore_RecoversToEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0755))
	require.NoError(t, os.WriteFile(s.Path(), []byte("schema_version: 1\nfile_type: nonsense\n"), 0644))

	st, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, st.Direction)
	assert.Empty(t, st.Courses)

	require.NoError(t, yaml.ValidateSchemaHeader(s.Path(), yaml.FileTypeSelection), "skeleton written in place")
}

func TestStore_LockTimeout(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0755))

	// Another process holding the file lock.
	holder := lockHolder(t, s.Path()+".lock")
	defer holder()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func lockHolder(t *testing.T, path string) func() {
	t.Helper()
	fl := lock.NewFileLock(path)
	require.NoError(t, fl.TryLock())
	return func() { _ = fl.Unlock() }
}
