package gcode

import (
	"bytes"
	"embed"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/jsphweid/m300/model"
	"github.com/pkg/errors"
)

const (
	DefaultDialect = "marlin"
	Generator      = "M300"

	templateExt = ".gcode"
)

var ErrUnknownDialect = errors.New("unknown dialect")

//go:embed templates/*.gcode
var templateFS embed.FS

type Renderer struct {
	Template *template.Template
}

// New returns a renderer with the built-in dialects.
func New() (*Renderer, error) {
	tmpl, err := template.New("base").Funcs(sprig.TxtFuncMap()).ParseFS(templateFS, "templates/*"+templateExt)
	if err != nil {
		return nil, errors.Wrap(err, "could not create templates")
	}
	return &Renderer{Template: tmpl}, nil
}

// NewFromTemplates loads every *.gcode file of a directory as a dialect.
func NewFromTemplates(templateDirectory string) (*Renderer, error) {
	globPtrn := filepath.Join(templateDirectory, "*"+templateExt)
	tmpl, err := template.New("base").Funcs(sprig.TxtFuncMap()).ParseGlob(globPtrn)
	if err != nil {
		return nil, errors.Wrapf(err, `could not create template based on directory "%v"`, templateDirectory)
	}
	return &Renderer{Template: tmpl}, nil
}

var defaultRenderer = func() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}()

func Default() *Renderer {
	return defaultRenderer
}

func (r *Renderer) Dialects() []string {
	var res []string
	for _, t := range r.Template.Templates() {
		if name := t.Name(); strings.HasSuffix(name, templateExt) {
			res = append(res, strings.TrimSuffix(name, templateExt))
		}
	}
	sort.Strings(res)
	return res
}

type Options struct {
	// multiplier applied to every duration
	Tempo     float64
	Secondary bool
	Dialect   string
}

type line struct {
	ToneMs  int
	Hz      int
	HasRest bool
	RestMs  int
}

func scaledMs(seconds, tempo float64) int {
	return int(math.Round(seconds * 1000 * tempo))
}

// Render writes one tone line per segment, an optional wait line after it and
// a rest line (plus wait) when the segment has a rest, followed by a trailer
// comment.
func (r *Renderer) Render(segments []model.Segment, opts Options) (string, error) {
	dialect := opts.Dialect
	if dialect == "" {
		dialect = DefaultDialect
	}
	name := dialect + templateExt
	if r.Template.Lookup(name) == nil {
		return "", errors.Wrapf(ErrUnknownDialect, "%q (known: %v)", dialect, strings.Join(r.Dialects(), ", "))
	}

	lines := make([]line, len(segments))
	for i, s := range segments {
		lines[i] = line{
			ToneMs:  scaledMs(s.Tone, opts.Tempo),
			Hz:      s.Hz(),
			HasRest: s.HasRest(),
		}
		if lines[i].HasRest {
			lines[i].RestMs = scaledMs(s.Rest, opts.Tempo)
		}
	}

	data := struct {
		Segments  []line
		Secondary bool
		Generator string
	}{lines, opts.Secondary, Generator}

	result := bytes.NewBufferString("")
	if err := r.Template.ExecuteTemplate(result, name, &data); err != nil {
		return "", errors.Wrapf(err, `could not execute template "%v"`, name)
	}
	return result.String(), nil
}
