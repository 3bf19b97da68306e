package report

import (
	"strings"
	"time"
)

// QuerySpec is the fully resolved description of one report. It is built
// once per request and never modified afterwards; accessors return copies.
type QuerySpec struct {
	params     Params
	level      LevelConfig
	dialect    Dialect
	now        time.Time
	phases     []Phase
	predicates []Predicate
	result     *Predicate
	selects    SelectLists
	byRun      bool
}

// NewQuerySpec resolves request parameters for a level. now is the request
// clock: every date window of the report is computed from it.
func NewQuerySpec(
	p Params,
	level LevelConfig,
	d Dialect,
	now time.Time,
) *QuerySpec {
	res := Resolve(p, now)
	phases := level.applySuppression(res.Phases)
	byRun := p.ByRun() || level.ByRun

	return &QuerySpec{
		params:     p,
		level:      level,
		dialect:    d,
		now:        now,
		phases:     phases,
		predicates: res.Predicates,
		result:     res.Result,
		selects:    Compose(p, level, phases, byRun, d),
		byRun:      byRun,
	}
}

// WithDefaultDate returns p with date set when the request named none.
func (p Params) WithDefaultDate(date string) Params {
	if strings.TrimSpace(p.Date) == "" {
		p.Date = date
	}

	return p
}

func (s *QuerySpec) Params() Params       { return s.params }
func (s *QuerySpec) Label() string        { return s.level.Label }
func (s *QuerySpec) Dialect() Dialect     { return s.dialect }
func (s *QuerySpec) Now() time.Time       { return s.now }
func (s *QuerySpec) ByRun() bool          { return s.byRun }
func (s *QuerySpec) Phases() []Phase      { return clonePhases(s.phases) }
func (s *QuerySpec) Debug() bool          { return s.params.Debug || s.params.Verbose }
func (s *QuerySpec) JustResults() bool    { return s.params.JustResults }
func (s *QuerySpec) ShowSQL() bool        { return s.params.ShowSQL }
func (s *QuerySpec) Selects() SelectLists { return s.selects.clone() }

// Predicates returns the filters applied to every phase query.
func (s *QuerySpec) Predicates() []Predicate {
	out := make([]Predicate, len(s.predicates))
	copy(out, s.predicates)

	return out
}

// ResultFilter returns the pass/fail filter, or nil.
func (s *QuerySpec) ResultFilter() *Predicate {
	if s.result == nil {
		return nil
	}

	r := *s.result

	return &r
}

// CountLabel names the counting mode.
func (s *QuerySpec) CountLabel() string {
	if s.byRun {
		return "By test run"
	}

	return "By test case"
}

func (l SelectLists) clone() SelectLists {
	return SelectLists{
		Params:  cloneColumns(l.Params),
		RunKeys: cloneColumns(l.RunKeys),
		Details: cloneColumns(l.Details),
	}
}

func cloneColumns(cols []Column) []Column {
	if cols == nil {
		return nil
	}

	out := make([]Column, len(cols))

	for i, c := range cols {
		exprs := make(map[Phase]string, len(c.exprs))
		for k, v := range c.exprs {
			exprs[k] = v
		}

		c.exprs = exprs
		out[i] = c
	}

	return out
}
