// Package report formats human readable descriptions of instruments and
// renders with text templates.
package report

import (
	"embed"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"text/template"
	"time"

	"github.com/Masterminds/sprig"
	"github.com/vsariola/sampler"
	"github.com/vsariola/sampler/bank"
	"github.com/vsariola/sampler/engine"
	"github.com/vsariola/sampler/meter"
	"github.com/vsariola/sampler/player"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type (
	Reporter struct {
		Template *template.Template
	}

	// RenderSummary describes an offline render.
	RenderSummary struct {
		Name       string
		Frames     int
		SampleRate int
		Level      meter.Result
		Outputs    []string
	}

	bankView struct {
		Name    string
		Config  engine.Config
		Mode    player.Mode
		Detune  float64
		Samples []sampleView
		Zones   []zoneView
	}

	sampleView struct {
		Name     string
		Root     string
		Channels int
		Rate     int
		Frames   int
		Duration time.Duration
		Loop     string
		Release  string
		Trim     float32
	}

	zoneView struct {
		Sample                   string
		PitchMin, PitchMax       string
		VelocityMin, VelocityMax sampler.Velocity
	}
)

//go:embed templates/*.txt
var templateFS embed.FS

// New returns a reporter using the built-in templates.
func New() (*Reporter, error) {
	tmpl, err := template.New("base").Funcs(funcMap()).ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf(`could not create templates: %v`, err)
	}
	return &Reporter{Template: tmpl}, nil
}

// NewFromTemplates reads bank.txt and render.txt from templateDirectory.
func NewFromTemplates(templateDirectory string) (*Reporter, error) {
	globPtrn := filepath.Join(templateDirectory, "*.txt")
	tmpl, err := template.New("base").Funcs(funcMap()).ParseGlob(globPtrn)
	if err != nil {
		return nil, fmt.Errorf(`could not create template based on directory "%v": %v`, templateDirectory, err)
	}
	return &Reporter{Template: tmpl}, nil
}

func funcMap() template.FuncMap {
	caser := cases.Title(language.English)
	funcs := sprig.TxtFuncMap()
	funcs["title"] = caser.String
	return funcs
}

// Bank writes a description of the instrument: settings, samples and zones.
func (r *Reporter) Bank(w io.Writer, b *bank.Bank) error {
	view := bankView{Name: b.Name, Config: b.Config, Mode: b.Mode, Detune: b.Config.Detune}
	if view.Name == "" {
		view.Name = "untitled"
	}
	for _, s := range b.Samples {
		sv := sampleView{
			Name:     s.Name,
			Root:     s.Root.NoteName(),
			Channels: s.Channels,
			Rate:     s.SampleRate,
			Frames:   s.NumFrames(),
			Duration: s.Duration().Round(time.Millisecond),
			Trim:     s.Trim,
		}
		if s.Loop != nil {
			sv.Loop = fmt.Sprintf("[%d, %d)", s.Loop.Start, s.Loop.End)
		}
		if s.Release != nil {
			sv.Release = fmt.Sprintf("[%d, %d)", s.Release.Start, s.Release.End)
		}
		view.Samples = append(view.Samples, sv)
	}
	for _, z := range b.Map.Zones() {
		view.Zones = append(view.Zones, zoneView{
			Sample:      z.Sample.Name,
			PitchMin:    boundName(z.Pitch.Min, "lowest"),
			PitchMax:    boundName(z.Pitch.Max, "highest"),
			VelocityMin: z.Velocity.Min,
			VelocityMax: z.Velocity.Max,
		})
	}
	return r.execute(w, "bank.txt", view)
}

// Render writes a summary of an offline render.
func (r *Reporter) Render(w io.Writer, s RenderSummary) error {
	data := struct {
		RenderSummary
		Duration time.Duration
	}{RenderSummary: s}
	if s.SampleRate > 0 {
		data.Duration = (time.Duration(s.Frames) * time.Second / time.Duration(s.SampleRate)).Round(time.Millisecond)
	}
	return r.execute(w, "render.txt", data)
}

func (r *Reporter) execute(w io.Writer, name string, data any) error {
	if err := r.Template.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf(`could not execute template "%v": %v`, name, err)
	}
	return nil
}

func boundName(h sampler.Hz, open string) string {
	if h <= 0 || math.IsInf(float64(h), 1) {
		return open
	}
	return h.NoteName()
}
