package planet

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/planetctl/internal/cache"
	"github.com/danmuck/planetctl/internal/config"
	"github.com/danmuck/planetctl/internal/gate"
	"github.com/danmuck/planetctl/internal/noise"
	"github.com/danmuck/planetctl/internal/observability"
	"github.com/danmuck/planetctl/internal/output"
	"github.com/danmuck/planetctl/internal/render"
	"github.com/rs/zerolog/log"
)

var ErrNoRender = errors.New("planet: nothing rendered yet")

const maxPatchLine = 1 << 20

// ServiceConfig configures the planetctl runtime around a scene config.
type ServiceConfig struct {
	OutputPath      string
	CachePath       string
	StatePath       string
	AdminListenAddr string
	AdminToken      string
	Workers         int
	RenderOnStart   bool
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		OutputPath:    "image.png",
		RenderOnStart: true,
	}
}

// RenderResult summarizes one completed render.
type RenderResult struct {
	Seq      uint64        `json:"seq"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	Layers   []string      `json:"layers"`
	Built    []string      `json:"built"`
	Path     string        `json:"path,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Service owns the live config snapshot, the noise store and the output.
// Mutation and rendering are serialized by mu.
type Service struct {
	cfg    ServiceConfig
	writer output.Writer

	mu    sync.Mutex
	snap  config.Config
	store *noise.Store
	cache *cache.Cache
	last  *image.NRGBA

	seq atomic.Uint64
}

func NewService(base config.Config) *Service {
	return NewServiceWithConfig(DefaultServiceConfig(), base)
}

func NewServiceWithConfig(cfg ServiceConfig, base config.Config) *Service {
	observability.RegisterMetrics()
	return &Service{
		cfg:    cfg,
		writer: output.Writer{Path: cfg.OutputPath},
		snap:   base.Clone(),
		store:  noise.NewStore(),
	}
}

// Run bootstraps, optionally renders, then consumes patch lines from in until
// ctx ends. After EOF it keeps serving the admin surface if one is running.
func (s *Service) Run(ctx context.Context, in io.Reader) error {
	if err := s.Bootstrap(ctx); err != nil {
		return err
	}
	defer s.Close()

	if s.cfg.RenderOnStart {
		if _, err := s.Render(ctx); err != nil {
			log.Error().Err(err).Msg("initial render failed")
		}
	}

	adminErr := make(chan error, 1)
	admin := strings.TrimSpace(s.cfg.AdminListenAddr) != ""
	if admin {
		go func() {
			adminErr <- s.serveAdmin(ctx, s.cfg.AdminListenAddr)
		}()
	}

	lines, scanErr := scanLines(ctx, in)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("planet.Service.Run shutdown")
			return nil
		case err := <-adminErr:
			if err != nil {
				return err
			}
			admin = false
		case line, ok := <-lines:
			if !ok {
				lines = nil
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("planet: read patches: %w", err)
					}
				default:
				}
				if !admin {
					return nil
				}
				continue
			}
			if err := s.HandleLine(ctx, line); err != nil {
				log.Warn().Err(err).Msg("patch line failed")
			}
		case err := <-scanErr:
			if err != nil {
				return fmt.Errorf("planet: read patches: %w", err)
			}
		}
	}
}

func scanLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 64*1024), maxPatchLine)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- sc.Err()
	}()
	return lines, errs
}

// Bootstrap opens the persistent cache and seeds the store from it. Cache
// problems are logged and the service continues without one.
func (s *Service) Bootstrap(ctx context.Context) error {
	if err := checkScene(s.snap); err != nil {
		return err
	}
	if strings.TrimSpace(s.cfg.CachePath) == "" {
		return nil
	}

	c, err := cache.Open(s.cfg.CachePath)
	if err != nil {
		log.Warn().Err(err).Msg("noise cache disabled")
		return nil
	}
	fields, err := c.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("noise cache unreadable, starting empty")
		fields = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = c
	for _, f := range fields {
		if _, ok := s.snap.Noise[f.Namespace]; !ok {
			continue
		}
		s.store.Put(f)
	}
	log.Info().
		Str("path", s.cfg.CachePath).
		Strs("namespaces", s.store.Namespaces()).
		Msg("noise cache loaded")
	return nil
}

func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache != nil {
		_ = s.cache.Close()
		s.cache = nil
	}
}

// HandleLine applies one patch protocol line. A blank line invalidates every
// noise field; any other line is merged as a JSON patch. Both re-render.
func (s *Service) HandleLine(ctx context.Context, line string) error {
	if strings.TrimSpace(line) == "" {
		s.Reset(ctx)
	} else if err := s.ApplyPatch([]byte(line)); err != nil {
		return err
	}
	_, err := s.Render(ctx)
	return err
}

// ApplyPatch merges a JSON patch into a new snapshot and persists the state.
func (s *Service) ApplyPatch(data []byte) error {
	p, err := config.ParsePatch(data)
	if err != nil {
		observability.RecordPatch("patch", false)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.snap.Apply(p)
	if err := checkScene(next); err != nil {
		observability.RecordPatch("patch", false)
		return fmt.Errorf("%w: %w", config.ErrInvalidPatch, err)
	}
	s.snap = next
	observability.RecordPatch("patch", true)

	if s.cfg.StatePath != "" {
		if err := config.SaveState(s.cfg.StatePath, next); err != nil {
			log.Warn().Err(err).Msg("state snapshot not saved")
		}
	}
	return nil
}

// checkScene rejects snapshots that could never render: bad sizes or noise
// specs, and gates naming an unknown preset.
func checkScene(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	for _, l := range cfg.Layers {
		if _, err := gate.Compile(l.Gates); err != nil {
			return fmt.Errorf("layer %q: %w", l.Namespace, err)
		}
	}
	return nil
}

// Reset drops every built noise field, in memory and on disk.
func (s *Service) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.InvalidateAll()
	if s.cache != nil {
		if err := s.cache.Clear(ctx); err != nil {
			log.Warn().Err(err).Msg("noise cache not cleared")
		}
	}
	observability.RecordPatch("reset", true)
	log.Info().Msg("noise fields invalidated")
}

// Invalidate drops one namespace so the next render rebuilds it.
func (s *Service) Invalidate(namespace string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Invalidate(namespace)
}

// Render builds any missing noise, renders the snapshot and hands the raster
// to the writer. The previous output survives a failed render.
func (s *Service) Render(ctx context.Context) (RenderResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	res, img, err := s.renderLocked(ctx)
	observability.RecordRender(time.Since(start), err)
	if err != nil {
		return RenderResult{}, err
	}
	res.Duration = time.Since(start)

	if s.writer.Path != "" {
		if err := s.writer.Write(img); err != nil {
			log.Error().Err(err).Str("path", s.writer.Path).Msg("render not written")
			return RenderResult{}, err
		}
		res.Path = s.writer.Path
	}
	s.last = img
	res.Seq = s.seq.Add(1)

	log.Info().
		Uint64("seq", res.Seq).
		Int("width", res.Width).
		Int("height", res.Height).
		Strs("layers", res.Layers).
		Strs("built", res.Built).
		Dur("duration", res.Duration).
		Msg("render complete")
	return res, nil
}

func (s *Service) renderLocked(ctx context.Context) (RenderResult, *image.NRGBA, error) {
	snap := s.snap
	w, h := snap.Image.Width, snap.Image.Height

	built, err := s.store.Ensure(ctx, snap.Noise, w, h)
	if err != nil {
		return RenderResult{}, nil, err
	}
	names := make([]string, 0, len(built))
	for _, f := range built {
		names = append(names, f.Namespace)
		observability.RecordNoiseBuild(f.Namespace, f.Method)
	}
	if len(built) > 0 && s.cache != nil {
		if err := s.cache.Save(ctx, built...); err != nil {
			log.Warn().Err(err).Msg("noise cache not saved")
		}
	}

	scene, err := render.Compile(snap, s.store)
	if err != nil {
		return RenderResult{}, nil, err
	}
	img, err := render.Render(ctx, scene, render.Options{Workers: s.cfg.Workers})
	if err != nil {
		return RenderResult{}, nil, err
	}

	layers := make([]string, 0, len(scene.Layers))
	for _, l := range scene.Layers {
		layers = append(layers, l.Namespace)
	}
	return RenderResult{Width: w, Height: h, Layers: layers, Built: names}, img, nil
}

// Snapshot returns a copy of the live config.
func (s *Service) Snapshot() config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// LastImage returns the most recent successful render.
func (s *Service) LastImage() (*image.NRGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil, ErrNoRender
	}
	return s.last, nil
}

// RenderCount reports how many renders have completed.
func (s *Service) RenderCount() uint64 {
	return s.seq.Load()
}
