package report

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Request parameter prefixes.
const (
	prefixMenu       = "mef_"
	prefixHiddenMenu = "hmef_"
	prefixText       = "tf_"
	prefixTextMode   = "ft_"
	prefixAggregate  = "agg_"
)

// Selectors are the single-valued request parameters.
type Selectors struct {
	Phase        string `mapstructure:"maf_phase"`
	Success      string `mapstructure:"maf_success"`
	Date         string `mapstructure:"maf_start_test_timestamp"`
	AggTimestamp string `mapstructure:"maf_agg_timestamp"`
	ByAtom       string `mapstructure:"by_atom"`
	NoDetails    bool   `mapstructure:"no_details"`
	JustResults  bool   `mapstructure:"just_results"`
	ShowSQL      bool   `mapstructure:"sql"`
	Debug        bool   `mapstructure:"debug"`
	Verbose      bool   `mapstructure:"verbose"`
}

// TextFilter is a free-text filter value and its comparison.
type TextFilter struct {
	Value string
	Mode  FilterMode
}

// Params is a normalized report request.
type Params struct {
	Selectors

	// Menus are displayed fields with an optional equality filter.
	Menus map[string]string
	// Hidden are displayed fields that have no menu of their own.
	Hidden map[string]string
	// Text holds free-text filters keyed by field.
	Text map[string]TextFilter
	// Aggregate holds explicit toggles: true rolls the field up.
	Aggregate map[string]bool
}

// ByRun reports whether outcomes are counted per run rather than per case.
func (p Params) ByRun() bool {
	return strings.EqualFold(strings.TrimSpace(p.ByAtom), "by_test_run")
}

// ParseValues decodes request parameters. Unknown keys are ignored.
func ParseValues(values url.Values) (Params, error) {
	p := Params{
		Menus:     make(map[string]string, 8),
		Hidden:    make(map[string]string, 2),
		Text:      make(map[string]TextFilter, 4),
		Aggregate: make(map[string]bool, 8),
	}

	flat := make(map[string]any, len(values))
	modes := make(map[string]string, 4)

	for key, vs := range values {
		if len(vs) == 0 {
			continue
		}

		value := vs[len(vs)-1]

		switch {
		case strings.HasPrefix(key, prefixHiddenMenu):
			p.Hidden[strings.TrimPrefix(key, prefixHiddenMenu)] = value
		case strings.HasPrefix(key, prefixMenu):
			p.Menus[strings.TrimPrefix(key, prefixMenu)] = value
		case strings.HasPrefix(key, prefixText):
			field := strings.TrimPrefix(key, prefixText)
			p.Text[field] = TextFilter{Value: value}
		case strings.HasPrefix(key, prefixTextMode):
			modes[strings.TrimPrefix(key, prefixTextMode)] = value
		case strings.HasPrefix(key, prefixAggregate):
			if rolled, ok := parseToggle(value); ok {
				p.Aggregate[strings.TrimPrefix(key, prefixAggregate)] = rolled
			}
		default:
			flat[key] = value
		}
	}

	for field, mode := range modes {
		if tf, ok := p.Text[field]; ok {
			tf.Mode = FilterMode(strings.ToLower(strings.TrimSpace(mode)))
			p.Text[field] = tf
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncType(flagHook),
		WeaklyTypedInput: true,
		Result:           &p.Selectors,
	})
	if err != nil {
		return Params{}, fmt.Errorf("creating params decoder: %w", err)
	}

	if err := decoder.Decode(flat); err != nil {
		return Params{}, fmt.Errorf("decoding params: %w", err)
	}

	return p, nil
}

// ParseArgs decodes key=value command-line arguments.
func ParseArgs(args []string) (Params, error) {
	values := make(url.Values, len(args))

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return Params{}, fmt.Errorf("argument %q is not key=value", arg)
		}

		values.Add(key, value)
	}

	return ParseValues(values)
}

// flagHook decodes CGI checkbox values. A key present with an empty value
// counts as set and unrecognized values count as unset.
func flagHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Bool {
		return data, nil
	}

	s, _ := data.(string)
	if s == "" {
		return true, nil
	}

	on, _ := parseToggle(s)

	return on, nil
}

func parseToggle(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1", "yes", "":
		return true, true
	case "off", "false", "0", "no":
		return false, true
	}

	return false, false
}

// Encode returns the trimmed query string reproducing p. Text filters
// without a value are dropped and keys are sorted.
func (p Params) Encode() string {
	values := url.Values{}

	set := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}

	set("maf_phase", p.Phase)
	set("maf_success", p.Success)
	set("maf_start_test_timestamp", p.Date)
	set("maf_agg_timestamp", p.AggTimestamp)
	set("by_atom", p.ByAtom)

	for key, on := range map[string]bool{
		"no_details":   p.NoDetails,
		"just_results": p.JustResults,
		"sql":          p.ShowSQL,
		"debug":        p.Debug,
		"verbose":      p.Verbose,
	} {
		if on {
			values.Set(key, "on")
		}
	}

	for field, value := range p.Menus {
		values.Set(prefixMenu+field, value)
	}

	for field, value := range p.Hidden {
		values.Set(prefixHiddenMenu+field, value)
	}

	for field, tf := range p.Text {
		if strings.TrimSpace(tf.Value) == "" {
			continue
		}

		values.Set(prefixText+field, tf.Value)
		set(prefixTextMode+field, string(tf.Mode))
	}

	for field, rolled := range p.Aggregate {
		if rolled {
			values.Set(prefixAggregate+field, "on")
		} else {
			values.Set(prefixAggregate+field, "off")
		}
	}

	return values.Encode()
}
