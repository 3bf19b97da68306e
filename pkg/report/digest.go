package report

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var defaultPresets []byte

// Preset is one level of the summary digest: a canned report request.
type Preset struct {
	Label       string            `yaml:"label"`
	Description string            `yaml:"description,omitempty"`
	Params      map[string]string `yaml:"params"`
	// Level overrides parts of the default level configuration.
	Level *LevelConfig `yaml:"level,omitempty"`
}

// PresetFile is the digest definition.
type PresetFile struct {
	Title  string   `yaml:"title"`
	Levels []Preset `yaml:"levels"`
}

// LoadPresets reads a digest definition. An empty path selects the
// built-in one.
func LoadPresets(path string) (*PresetFile, error) {
	data := defaultPresets

	if path != "" {
		var err error

		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading presets file: %w", err)
		}
	}

	return ParsePresets(data)
}

// ParsePresets decodes and validates a digest definition.
func ParsePresets(data []byte) (*PresetFile, error) {
	var pf PresetFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing presets: %w", err)
	}

	if len(pf.Levels) == 0 {
		return nil, fmt.Errorf("presets define no levels")
	}

	for i, lvl := range pf.Levels {
		if lvl.Label == "" {
			return nil, fmt.Errorf("preset %d: label is required", i)
		}
	}

	return &pf, nil
}

// Window is the time frame a digest covers.
type Window string

const (
	WindowDay  Window = "day"
	WindowWeek Window = "week"
)

// DateKeyword returns the date filter of the window.
func (w Window) DateKeyword() string {
	if w == WindowWeek {
		return "Past Seven Days"
	}

	return "Since Yesterday"
}

// ParseWindow accepts "day" or "week"; anything else is a day.
func ParseWindow(s string) Window {
	if strings.EqualFold(strings.TrimSpace(s), string(WindowWeek)) {
		return WindowWeek
	}

	return WindowDay
}

// DigestSection is the outcome of one preset.
type DigestSection struct {
	Preset Preset
	Spec   *QuerySpec
	Result *Result
}

// Digest is a rendered-ready set of preset reports.
type Digest struct {
	Title    string
	Window   Window
	Sections []DigestSection
}

// Digester runs the digest presets against an engine.
type Digester struct {
	log         logrus.FieldLogger
	engine      Engine
	presets     *PresetFile
	client      string
	concurrency int
}

// NewDigester creates a Digester. concurrency bounds the number of
// presets executed at once.
func NewDigester(
	log logrus.FieldLogger,
	engine Engine,
	presets *PresetFile,
	client string,
	concurrency int,
) *Digester {
	if concurrency < 1 {
		concurrency = 1
	}

	return &Digester{
		log:         log.WithField("component", "digest"),
		engine:      engine,
		presets:     presets,
		client:      client,
		concurrency: concurrency,
	}
}

// Run executes every preset for the window. Sections keep preset order.
func (d *Digester) Run(ctx context.Context, window Window, now time.Time) (*Digest, error) {
	sections := make([]DigestSection, len(d.presets.Levels))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for i, preset := range d.presets.Levels {
		i, preset := i, preset

		g.Go(func() error {
			spec, err := d.buildSpec(preset, window, now)
			if err != nil {
				return fmt.Errorf("preset %q: %w", preset.Label, err)
			}

			res, err := d.engine.Execute(gctx, spec)
			if err != nil {
				return fmt.Errorf("preset %q: %w", preset.Label, err)
			}

			sections[i] = DigestSection{Preset: preset, Spec: spec, Result: res}

			d.log.WithField("level", preset.Label).
				WithField("rows", len(res.Rows)).
				Debug("Digest level executed")

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Digest{
		Title:    d.presets.Title,
		Window:   window,
		Sections: sections,
	}, nil
}

func (d *Digester) buildSpec(preset Preset, window Window, now time.Time) (*QuerySpec, error) {
	values := make(url.Values, len(preset.Params)+2)
	for k, v := range preset.Params {
		values.Set(k, v)
	}

	values.Set("maf_start_test_timestamp", window.DateKeyword())
	values.Set("just_results", "on")

	params, err := ParseValues(values)
	if err != nil {
		return nil, err
	}

	level := DefaultLevel(d.client)
	level.Label = strings.TrimSpace(d.client + " " + preset.Label)

	if o := preset.Level; o != nil {
		if o.ByRun {
			level.ByRun = true
		}

		if o.Suppress != nil {
			level.Suppress = o.Suppress
		}

		if o.Details != nil {
			level.Details = o.Details
		}

		if o.AddParams != nil {
			level.AddParams = o.AddParams
		}
	}

	return NewQuerySpec(params, level, d.engine.Dialect(), now), nil
}

type sectionView struct {
	Label       string
	CountLabel  string
	Description string
	Table       tableView
}

type digestView struct {
	Title        string
	TimeFrame    string
	ReporterLink string
	Sections     []sectionView
}

// RenderDigest writes the digest page. reporterLink, when set, points at
// the interactive reporter.
func (f *Formatter) RenderDigest(w io.Writer, digest *Digest, reporterLink string) error {
	view := digestView{
		Title:        digest.Title,
		TimeFrame:    digest.Window.DateKeyword(),
		ReporterLink: reporterLink,
		Sections:     make([]sectionView, len(digest.Sections)),
	}

	for i, s := range digest.Sections {
		view.Sections[i] = sectionView{
			Label:       s.Spec.Label(),
			CountLabel:  s.Spec.CountLabel(),
			Description: s.Preset.Description,
			Table:       buildTable(s.Spec, s.Result),
		}
	}

	if err := f.tmpl.ExecuteTemplate(w, "digest.html", view); err != nil {
		return fmt.Errorf("rendering digest: %w", err)
	}

	return nil
}
