package mind

import (
	"errors"
	"time"

	"github.com/keshon/wraith/internal/datastore"

	"github.com/rs/zerolog"
)

// Store owns the PersistedState for the life of the process and flushes it to the state file.
// Mutations happen on one goroutine; callers mutate State() in place and then call Save.
type Store struct {
	ds    *datastore.DataStore
	state *PersistedState
	log   zerolog.Logger
	now   func() time.Time
}

// NewStore creates a Store backed by the JSON file at path. Call Load before use.
func NewStore(path string, backups int, logger zerolog.Logger) (*Store, error) {
	cfg := datastore.DefaultConfig(path)
	cfg.BackupCount = backups
	cfg.Logger = logger
	ds, err := datastore.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Store{
		ds:  ds,
		log: logger.With().Str("component", "state").Logger(),
		now: time.Now,
	}, nil
}

// Load reads the state file. A missing or unreadable file is not fatal: the default state is used.
func (s *Store) Load() *PersistedState {
	def := DefaultState(s.now())
	st := def

	err := s.ds.Load()
	switch {
	case errors.Is(err, datastore.ErrNotExist):
		s.log.Info().Str("path", s.ds.Path()).Msg("no state file, starting fresh")
	case err != nil:
		s.log.Warn().Err(err).Str("path", s.ds.Path()).Msg("state file unreadable, starting fresh")
	default:
		if _, err := s.ds.Get(KeyMood, &st.Mood); err != nil {
			s.log.Warn().Err(err).Msg("mood unreadable, using default")
			st.Mood = def.Mood
		}
		if _, err := s.ds.Get(KeyMemory, &st.Memory); err != nil {
			s.log.Warn().Err(err).Msg("memory unreadable, using default")
			st.Memory = def.Memory
		}
	}

	st.Mood.normalize(def.Mood.LastChange)
	st.Memory.normalize()
	s.state = &st
	return s.state
}

// State returns the live state. It is nil before Load.
func (s *Store) State() *PersistedState {
	return s.state
}

// Save writes the live state to disk.
func (s *Store) Save() error {
	if s.state == nil {
		return errors.New("state not loaded")
	}
	if err := s.ds.Put(KeyMood, s.state.Mood); err != nil {
		return err
	}
	if err := s.ds.Put(KeyMemory, s.state.Memory); err != nil {
		return err
	}
	if err := s.ds.Save(); err != nil {
		s.log.Error().Err(err).Msg("failed to save state")
		return err
	}
	return nil
}
