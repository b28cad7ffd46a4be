package dataset

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Store owns the currently served Dataset and its refresh lifecycle. Readers
// always see either the previous or the new dataset in full.
type Store struct {
	src  Source
	opts Options

	mu      sync.Mutex // serializes reloads
	current atomic.Pointer[Dataset]
	next    uint64 // guarded by mu

	// OnReload, when set, is called after every reload attempt.
	OnReload func(ds *Dataset, dur time.Duration, err error)
}

// NewStore returns an empty store; call Reload before serving queries.
func NewStore(src Source, opts Options) *Store {
	return &Store{src: src, opts: opts}
}

// Current returns the served dataset, or nil before the first successful load.
func (s *Store) Current() *Dataset { return s.current.Load() }

// Generation returns the generation of the served dataset. It increments on
// every successful reload. Callers holding a Dataset should use its own
// Generation instead, so the two never disagree across a reload.
func (s *Store) Generation() uint64 {
	if ds := s.current.Load(); ds != nil {
		return ds.generation
	}
	return 0
}

// Reload loads the source again and swaps it in. On failure the previous dataset
// keeps being served.
func (s *Store) Reload(ctx context.Context) (*Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	ds, err := Load(ctx, s.src, s.opts)
	dur := time.Since(start)
	if err == nil && ds.Len() == 0 {
		err = errors.New("dataset: no usable rows")
	}
	if s.OnReload != nil {
		s.OnReload(ds, dur, err)
	}
	if err != nil {
		ev := log.Error().Err(err).Str("source", s.src.Name())
		if ds != nil {
			ev = ev.Interface("stats", ds.Stats())
		}
		ev.Msg("dataset reload failed")
		return nil, err
	}
	s.next++
	ds.generation = s.next
	s.current.Store(ds)
	log.Info().
		Str("source", s.src.Name()).
		Int("records", ds.Len()).
		Interface("stats", ds.Stats()).
		Dur("duration", dur.Truncate(time.Millisecond)).
		Msg("dataset loaded")
	return ds, nil
}
