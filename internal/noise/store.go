package noise

import (
	"context"
	"sort"
	"sync"

	"github.com/danmuck/planetctl/internal/config"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Store holds built fields by namespace. Fields are swapped in whole and
// never mutated after Put.
type Store struct {
	mu     sync.RWMutex
	fields map[string]*Field
}

func NewStore() *Store {
	return &Store{fields: make(map[string]*Field)}
}

func (s *Store) Get(namespace string) (*Field, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fields[namespace]
	return f, ok
}

func (s *Store) Put(fields ...*Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range fields {
		if f == nil {
			continue
		}
		s.fields[f.Namespace] = f
	}
}

// Invalidate clears one namespace so the next Ensure rebuilds it.
func (s *Store) Invalidate(namespace string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fields, namespace)
}

func (s *Store) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields = make(map[string]*Field)
}

func (s *Store) Namespaces() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.fields))
	for name := range s.fields {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Ensure builds every namespace in specs that is missing or sized for a
// different image. Builds run concurrently and are published together, so
// readers never observe a partial set. The newly built fields are returned.
func (s *Store) Ensure(ctx context.Context, specs map[string]config.NoiseSpec, width, height int) ([]*Field, error) {
	pending := make([]string, 0, len(specs))
	for name := range specs {
		if f, ok := s.Get(name); ok && f.Matches(width, height) {
			continue
		}
		pending = append(pending, name)
	}
	if len(pending) == 0 {
		return nil, nil
	}
	sort.Strings(pending)

	built := make([]*Field, len(pending))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range pending {
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := Build(name, ParamsFromSpec(specs[name]), width, height)
			if err != nil {
				return err
			}
			built[i] = f
			log.Debug().
				Str("namespace", name).
				Str("method", f.Method).
				Int64("seed", f.Seed).
				Int("width", width).
				Int("height", height).
				Msg("noise field built")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.Put(built...)
	return built, nil
}
