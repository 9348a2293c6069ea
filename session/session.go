package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jsphweid/m300/compiler"
	"github.com/jsphweid/m300/export"
	"github.com/jsphweid/m300/midi"
	"github.com/jsphweid/m300/model"
	"github.com/jsphweid/m300/preview"
	"github.com/pkg/errors"
)

var (
	ErrNoPerformance = errors.New("no midi loaded")
	ErrEmptyOutput   = errors.New("nothing compiled yet")
)

// Session holds everything one user works on: the loaded performance, the
// track selection, the last output and the preview.
type Session struct {
	ID string

	mu          sync.Mutex
	performance *model.Performance
	selection   model.Selection
	result      *compiler.Result
	synth       preview.Synth
	status      preview.Status
	logger      *log.Logger

	autoCompile func(f func())
	autoOptions compiler.Options
	// called after every debounced compile, mostly for tests
	onAutoCompile func(*compiler.Result, error)
}

type Option func(*Session)

func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithAutoCompile recompiles with opts once selection edits settle for d.
func WithAutoCompile(d time.Duration, opts compiler.Options) Option {
	return func(s *Session) {
		if d > 0 {
			s.autoCompile = debounce.New(d)
			s.autoOptions = opts
		}
	}
}

func OnAutoCompile(f func(*compiler.Result, error)) Option {
	return func(s *Session) {
		s.onAutoCompile = f
	}
}

func New(synth preview.Synth, opts ...Option) *Session {
	s := &Session{
		ID:        uuid.New().String(),
		selection: model.NewSelection(),
		synth:     synth,
		logger:    log.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With("session", s.ID)
	return s
}

// Load decodes a new performance. On failure the previous one stays loaded.
// On success the selection and the previous output are reset.
func (s *Session) Load(name string, r io.Reader) (*model.Performance, error) {
	p, err := midi.Decode(name, r)
	if err != nil {
		return nil, err
	}
	s.Install(p)
	return p, nil
}

func (s *Session) Install(p *model.Performance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.synth.Clear()
	s.performance = p
	s.selection = model.NewSelection()
	s.result = nil
	s.status = preview.Idle
	s.logger.Info("loaded", "name", p.Name, "tracks", len(p.Tracks), "notes", p.NumNotes())
}

func (s *Session) Performance() *model.Performance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.performance
}

func (s *Session) Selection() model.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.NewSelection(s.selection.Indices()...)
}

func (s *Session) Tracks() []model.TrackInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.performance == nil {
		return nil
	}
	res := make([]model.TrackInfo, len(s.performance.Tracks))
	for i, t := range s.performance.Tracks {
		res[i] = model.TrackInfo{
			Index:      i,
			Name:       t.Name,
			Instrument: t.Instrument,
			Percussion: t.Percussion,
			NumNotes:   len(t.Notes),
			Selected:   s.selection.Includes(i),
		}
	}
	return res
}

func (s *Session) Select(index int, included bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Set(index, included)
	s.selectionChanged()
}

func (s *Session) SetSelection(indices []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = model.NewSelection(indices...)
	s.selectionChanged()
}

// ToggleAll selects every track, or none when all are already selected.
func (s *Session) ToggleAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.performance == nil {
		return
	}
	n := len(s.performance.Tracks)
	all := true
	for i := 0; i < n; i++ {
		all = all && s.selection.Includes(i)
	}
	if all {
		s.selection = model.NewSelection()
	} else {
		s.selection = model.SelectAll(n)
	}
	s.selectionChanged()
}

func (s *Session) selectionChanged() {
	if s.autoCompile == nil || s.performance == nil {
		return
	}
	s.autoCompile(func() {
		res, err := s.Compile(context.Background(), s.autoOptions)
		if err != nil {
			s.logger.Warn("auto compile failed", "err", err)
		}
		if s.onAutoCompile != nil {
			s.onAutoCompile(res, err)
		}
	})
}

// Compile stops and clears the preview, then compiles the selected tracks. A
// failed compile leaves the previous output in place.
func (s *Session) Compile(ctx context.Context, opts compiler.Options) (*compiler.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.synth.Clear()
	s.status = preview.Idle

	if s.performance == nil {
		return nil, ErrNoPerformance
	}
	start := time.Now()
	res, err := compiler.Compile(s.performance, s.selection, opts)
	if err != nil {
		return nil, err
	}
	s.result = res
	preview.Schedule(s.synth, res.Tones)

	log.FromContext(ctx).Debug("compiled",
		"session", s.ID,
		"segments", len(res.Segments),
		"tempo", res.Tempo,
		"took", time.Since(start))
	return res, nil
}

func (s *Session) Result() *compiler.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Output is the text of the last successful compile.
func (s *Session) Output() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil || len(s.result.Text) == 0 {
		return "", ErrEmptyOutput
	}
	return s.result.Text, nil
}

// DefaultName is the export name used when the user gives none.
func (s *Session) DefaultName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.performance == nil || s.performance.Name == "" {
		return "output"
	}
	return s.performance.Name
}

// Export saves the last output to target under name, or the performance
// name when empty.
func (s *Session) Export(ctx context.Context, target export.Target, name string) (string, error) {
	text, err := s.Output()
	if err != nil {
		return "", err
	}
	if name == "" {
		name = s.DefaultName()
	}
	loc, err := target.Save(ctx, name, []byte(text))
	if err != nil {
		return "", err
	}
	log.FromContext(ctx).Info("exported", "session", s.ID, "location", loc)
	return loc, nil
}

func (s *Session) Status() preview.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Play starts the preview from the beginning. Stop rewinds, there is no
// pause.
func (s *Session) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playLocked()
}

func (s *Session) playLocked() error {
	if s.result == nil {
		return ErrEmptyOutput
	}
	if err := s.synth.Start(); err != nil {
		return err
	}
	s.status = preview.Playing
	return nil
}

func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *Session) TogglePlay() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == preview.Playing {
		return s.stopLocked()
	}
	return s.playLocked()
}

func (s *Session) stopLocked() error {
	if s.status != preview.Playing {
		return nil
	}
	s.status = preview.Stopped
	return s.synth.Stop()
}
