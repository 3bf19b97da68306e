package report

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Op is the comparison of a Predicate.
type Op int

const (
	// OpEquals compares for equality (menu filters, numeric "equals").
	OpEquals Op = iota
	OpLess
	OpGreater
	// OpMatch is a pattern comparison selected by Predicate.Mode.
	OpMatch
	// OpSince keeps rows newer than a date window start.
	OpSince
	// OpResult keeps passing or failing rows.
	OpResult
)

// Predicate is one filter condition. It is rendered to SQL per phase and
// per dialect, with its value bound as a query argument.
type Predicate struct {
	Field Field
	Op    Op
	Mode  FilterMode
	Value any
	// Source is the user's wording, used in the query description.
	Source string
}

// Render returns the SQL condition and its arguments for one phase. A
// phase lacking the field can never match a positive condition and always
// satisfies a negated one.
func (p Predicate) Render(d Dialect, phase Phase) (string, []any) {
	if !p.Field.In(phase) {
		if p.Op == OpMatch && p.Mode == ModeNotContains {
			return "1 = 1", nil
		}

		return "1 = 0", nil
	}

	expr := p.Field.SQL()

	switch p.Op {
	case OpLess:
		return expr + " < ?", []any{p.Value}
	case OpGreater:
		return expr + " > ?", []any{p.Value}
	case OpSince:
		return expr + " > ?", []any{p.Value}
	case OpMatch:
		s, _ := p.Value.(string)

		return d.Match(expr, p.Mode, s)
	default:
		return expr + " = ?", []any{p.Value}
	}
}

// Resolution is the outcome of resolving request parameters into filters.
type Resolution struct {
	Phases     []Phase
	Predicates []Predicate
	// Result is the pass/fail filter, attached to every phase query.
	Result *Predicate
}

// Resolve turns request parameters into the active phase set and the
// filter predicates. Malformed input never fails; it yields no predicate.
func Resolve(p Params, now time.Time) Resolution {
	res := Resolution{
		Phases:     selectPhases(p),
		Predicates: make([]Predicate, 0, 8),
	}

	if start, ok := DateWindowStart(p.Date, now); ok {
		f, _ := LookupField(timestampField)
		res.Predicates = append(res.Predicates, Predicate{
			Field:  f,
			Op:     OpSince,
			Value:  start,
			Source: strings.TrimPrefix(strings.TrimSpace(p.Date), "*"),
		})
	}

	for _, name := range orderedKeys(p.Menus) {
		if pred, ok := menuPredicate(name, p.Menus[name]); ok {
			res.Predicates = append(res.Predicates, pred)
		}
	}

	for _, name := range orderedKeys(p.Hidden) {
		if _, dup := p.Menus[name]; dup {
			continue
		}

		if pred, ok := menuPredicate(name, p.Hidden[name]); ok {
			res.Predicates = append(res.Predicates, pred)
		}
	}

	for _, name := range orderedKeys(p.Text) {
		if pred, ok := textPredicate(name, p.Text[name]); ok {
			res.Predicates = append(res.Predicates, pred)
		}
	}

	res.Result = resultPredicate(p.Success)

	return res
}

func isAll(value string) bool {
	v := strings.TrimSpace(value)

	return v == "" || strings.EqualFold(strings.TrimPrefix(v, "*"), "all")
}

func menuPredicate(name, value string) (Predicate, bool) {
	f, ok := LookupField(name)
	if !ok || isAll(value) {
		return Predicate{}, false
	}

	value = strings.TrimSpace(value)

	return Predicate{Field: f, Op: OpEquals, Value: value, Source: value}, true
}

func textPredicate(name string, tf TextFilter) (Predicate, bool) {
	f, ok := LookupField(name)
	if !ok {
		return Predicate{}, false
	}

	value := strings.TrimSpace(tf.Value)
	if value == "" {
		return Predicate{}, false
	}

	mode := tf.Mode
	if mode == "" {
		mode = f.Modes()[0]
	}

	if !f.supports(mode) {
		return Predicate{}, false
	}

	if f.Kind != KindNumeric {
		return Predicate{Field: f, Op: OpMatch, Mode: mode, Value: value, Source: value}, true
	}

	num, ok := parseNumber(value)
	if !ok {
		return Predicate{}, false
	}

	op := OpEquals

	switch mode {
	case ModeLessThan:
		op = OpLess
	case ModeGreaterThan:
		op = OpGreater
	}

	return Predicate{Field: f, Op: op, Mode: mode, Value: num, Source: value}, true
}

func parseNumber(s string) (any, bool) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}

	return nil, false
}

func resultPredicate(success string) *Predicate {
	var pass bool

	switch strings.ToLower(strings.TrimSpace(success)) {
	case "pass", "t", "true":
		pass = true
	case "fail", "f", "false":
		pass = false
	default:
		return nil
	}

	f, _ := LookupField(resultField)
	source := "Fail"

	if pass {
		source = "Pass"
	}

	return &Predicate{Field: f, Op: OpResult, Value: pass, Source: source}
}

// selectPhases applies the which-phase rule: a text filter on a
// phase-specific field narrows the phases to that field's owners,
// otherwise the phase menu decides, otherwise all phases are reported.
func selectPhases(p Params) []Phase {
	narrowed := filterGroups[0].Phases

	for i := len(filterGroups) - 1; i >= 0; i-- {
		if groupFiltered(filterGroups[i], p.Text) {
			narrowed = filterGroups[i].Phases

			break
		}
	}

	if len(narrowed) < len(AllPhases) {
		return clonePhases(narrowed)
	}

	if phase, ok := ParsePhase(p.Phase); ok {
		return []Phase{phase}
	}

	return clonePhases(AllPhases)
}

func groupFiltered(g FilterGroup, text map[string]TextFilter) bool {
	for _, name := range g.Fields {
		if tf, ok := text[name]; ok && strings.TrimSpace(tf.Value) != "" {
			return true
		}
	}

	return false
}

// orderedKeys returns the keys of m in catalog order, unknown names last
// in lexical order.
func orderedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		ci, iok := catalogIndex[keys[i]]
		cj, jok := catalogIndex[keys[j]]

		switch {
		case iok && jok:
			return ci < cj
		case iok != jok:
			return iok
		default:
			return keys[i] < keys[j]
		}
	})

	return keys
}
