package selection

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/msageha/flowguide/internal/lock"
	"github.com/msageha/flowguide/internal/logging"
	"github.com/msageha/flowguide/internal/yaml"
)

const lockPollInterval = 20 * time.Millisecond

// pathLocks serialises stores within one process that share a file.
var pathLocks = lock.NewMutexMap()

// Store persists a State to a YAML file. Writes are atomic and keep the
// previous version as a .bak; a corrupted file is quarantined next to it.
type Store struct {
	path     string
	stateDir string
	logger   *logging.Logger
	now      func() time.Time
}

func NewStore(path string, logger *logging.Logger) *Store {
	return &Store{
		path:     path,
		stateDir: filepath.Dir(path),
		logger:   logger.With("selection"),
		now:      time.Now,
	}
}

func (s *Store) Path() string { return s.path }

// Load reads the stored state. A missing file yields a fresh empty state.
// A corrupted file is recovered from its backup or reset to empty.
func (s *Store) Load(ctx context.Context) (State, error) {
	unlock, err := s.acquire(ctx)
	if err != nil {
		return State{}, err
	}
	defer unlock()

	return s.load()
}

// Save writes st, stamping UpdatedAt.
func (s *Store) Save(ctx context.Context, st State) error {
	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	_, err = s.save(st)
	return err
}

// Update applies fn to the stored state and saves the result while holding
// the lock, so concurrent updates are never lost. Nothing is written when fn
// returns an error.
func (s *Store) Update(ctx context.Context, fn func(State) (State, error)) (State, error) {
	unlock, err := s.acquire(ctx)
	if err != nil {
		return State{}, err
	}
	defer unlock()

	current, err := s.load()
	if err != nil {
		return State{}, err
	}
	next, err := fn(current.Clone())
	if err != nil {
		return current, err
	}
	return s.save(next)
}

func (s *Store) acquire(ctx context.Context) (func(), error) {
	pathLocks.Lock(s.path)

	if err := os.MkdirAll(s.stateDir, 0755); err != nil {
		pathLocks.Unlock(s.path)
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	fl := lock.NewFileLock(s.path + ".lock")
	if err := fl.Lock(ctx, lockPollInterval); err != nil {
		pathLocks.Unlock(s.path)
		return nil, err
	}

	return func() {
		if err := fl.Unlock(); err != nil {
			s.logger.Warnf("release lock: %v", err)
		}
		pathLocks.Unlock(s.path)
	}, nil
}

func (s *Store) load() (State, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Debugf("no selection at %s, starting empty", s.path)
		return New(), nil
	}
	if err != nil {
		return State{}, fmt.Errorf("read selection: %w", err)
	}

	st, err := Unmarshal(data)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, ErrCorrupt) {
		return State{}, err
	}

	s.logger.Warnf("selection %s unreadable: %v", s.path, err)
	action, rerr := yaml.RecoverCorruptedFile(s.stateDir, s.path, yaml.FileTypeSelection, s.logger)
	if rerr != nil {
		return State{}, fmt.Errorf("recover selection: %w", rerr)
	}

	data, err = os.ReadFile(s.path)
	if err != nil {
		return State{}, fmt.Errorf("read recovered selection: %w", err)
	}
	st, err = Unmarshal(data)
	if err != nil {
		// The backup passed header checks but not full decoding.
		s.logger.Warnf("recovered selection (%s) still unreadable: %v; starting empty", action, err)
		return New(), nil
	}
	s.logger.Infof("selection recovered via %s", action)
	return st, nil
}

func (s *Store) save(st State) (State, error) {
	st = st.Clone()
	st.UpdatedAt = s.stamp()
	data, err := Marshal(st)
	if err != nil {
		return State{}, err
	}
	if err := yaml.WriteStateFile(s.path, yaml.FileTypeSelection, data); err != nil {
		return State{}, fmt.Errorf("write selection: %w", err)
	}
	s.logger.Debugf("saved selection id=%s courses=%d", st.ID, len(st.Courses))
	return st, nil
}

func (s *Store) stamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}
