package report

import "fmt"

// Column is one output column of the phase queries. Each phase may select
// it with a different expression; phases without one select an empty
// string so that every UNION branch has the same shape.
type Column struct {
	Alias string
	Label string
	Kind  FieldKind
	exprs map[Phase]string
}

// Expr returns the expression phase p selects for the column.
func (c Column) Expr(p Phase) string {
	if e, ok := c.exprs[p]; ok {
		return e
	}

	return "''"
}

func (c Column) selectItem(p Phase) string {
	e := c.Expr(p)
	if e == c.Alias {
		return e
	}

	return e + " AS " + c.Alias
}

func fieldColumn(f Field, alias, label string, phases []Phase) Column {
	c := Column{
		Alias: alias,
		Label: label,
		Kind:  selectKind(f),
		exprs: make(map[Phase]string, len(phases)),
	}

	for _, p := range phases {
		if f.In(p) {
			c.exprs[p] = selectExpr(f)
		}
	}

	return c
}

// selectExpr is the expression a field is displayed with. Booleans are
// spelled 't' or 'f' on every backend, which TranslateCell shows as pass
// or fail.
func selectExpr(f Field) string {
	if f.Kind == KindBool {
		return fmt.Sprintf("CASE WHEN %[1]s THEN 't' WHEN NOT %[1]s THEN 'f' END", f.SQL())
	}

	return f.SQL()
}

func selectKind(f Field) FieldKind {
	if f.Kind == KindBool {
		return KindText
	}

	return f.Kind
}

// SelectLists are the three column groups of a report, in output order.
type SelectLists struct {
	// Params form the display key of a row.
	Params []Column
	// RunKeys identify a run; they are grouped on but never displayed.
	RunKeys []Column
	// Details are shown in the detail popup of a row.
	Details []Column
}

// Compose builds the select lists for a request. Display fields are the
// requested menu fields (the first three broken out unless toggled), the
// hidden fields, the optional timestamp column and, when fewer than all
// phases are reported, the level's extra params.
func Compose(
	p Params,
	level LevelConfig,
	phases []Phase,
	byRun bool,
	d Dialect,
) SelectLists {
	var lists SelectLists

	seen := make(map[string]bool, 16)
	add := func(c Column) {
		seen[c.Alias] = true
		lists.Params = append(lists.Params, c)
	}

	skip := func(name string) bool {
		return seen[name] || name == resultField || (byRun && isRunKey(name))
	}

	if g := ParseGranularity(p.AggTimestamp); g != GranularityNone {
		if rolled, explicit := p.Aggregate[timestampField]; !explicit || !rolled {
			f, _ := LookupField(timestampField)
			c := fieldColumn(f, f.Name, f.Label, phases)

			for ph, e := range c.exprs {
				c.exprs[ph] = d.Truncate(e, g)
			}

			c.Kind = KindText
			add(c)
		}
	}

	// Only menu fields that can be displayed take one of the default
	// broken-out slots.
	var slot int

	for _, name := range orderedKeys(p.Menus) {
		f, ok := LookupField(name)
		if !ok || skip(name) {
			continue
		}

		rolled, explicit := p.Aggregate[name]
		if !explicit {
			rolled = slot >= defaultBrokenOut
		}

		slot++

		if !rolled {
			add(fieldColumn(f, f.Name, f.Label, phases))
		}
	}

	for _, name := range orderedKeys(p.Hidden) {
		f, ok := LookupField(name)
		if !ok || skip(name) || p.Aggregate[name] {
			continue
		}

		add(fieldColumn(f, f.Name, f.Label, phases))
	}

	if len(phases) < len(AllPhases) {
		lists.Params = appendAddParams(lists.Params, seen, level, phases, byRun, p.Aggregate)
	}

	if byRun {
		for _, name := range runKeyFields {
			f, _ := LookupField(name)
			lists.RunKeys = append(lists.RunKeys, fieldColumn(f, f.Name, f.Label, phases))
		}
	}

	if len(phases) == 1 && !byRun && !p.NoDetails {
		for _, name := range level.Details[phases[0]] {
			f, ok := LookupField(name)
			if !ok || !f.In(phases[0]) {
				continue
			}

			lists.Details = append(lists.Details, fieldColumn(f, f.Name, f.Label, phases))
		}
	}

	alignTypes(lists.Params, phases)
	alignTypes(lists.Details, phases)

	return lists
}

// appendAddParams merges the level's per-phase extra params into the
// display key. Params sharing an alias across phases share one column and
// an aggregate toggle on the alias rolls it up.
func appendAddParams(
	params []Column,
	seen map[string]bool,
	level LevelConfig,
	phases []Phase,
	byRun bool,
	rolled map[string]bool,
) []Column {
	added := make(map[string]int, 4)

	for _, ph := range phases {
		for _, ref := range level.AddParams[ph] {
			f, ok := LookupField(ref.Field)
			if !ok {
				continue
			}

			alias := ref.alias()
			idx, mine := added[alias]

			if (seen[alias] && !mine) || rolled[alias] || alias == resultField || (byRun && isRunKey(alias)) {
				continue
			}

			if !mine {
				label := ref.Label
				if label == "" {
					label = f.Label
				}

				params = append(params, Column{
					Alias: alias,
					Label: label,
					Kind:  selectKind(f),
					exprs: make(map[Phase]string, len(phases)),
				})
				idx = len(params)
				added[alias] = idx
				seen[alias] = true
			}

			if f.In(ph) {
				params[idx-1].exprs[ph] = selectExpr(f)
			}
		}
	}

	return params
}

// alignTypes casts non-text columns to text when some phase fills the
// column with the empty string, so UNION branches agree on types.
func alignTypes(cols []Column, phases []Phase) {
	for i := range cols {
		if cols[i].Kind == KindText || len(cols[i].exprs) == len(phases) {
			continue
		}

		for ph, e := range cols[i].exprs {
			cols[i].exprs[ph] = "CAST(" + e + " AS TEXT)"
		}
	}
}

func isRunKey(name string) bool {
	for _, k := range runKeyFields {
		if k == name {
			return true
		}
	}

	return false
}
