package report

import (
	"fmt"
	"strings"
)

// Plan is the statement sequence that produces one report. All of it runs
// on a single connection: Drop, Create, Aggregate, Drop. Create
// materializes the phase union and takes Args.
type Plan struct {
	Columns   []string
	Create    string
	Args      []any
	Aggregate string
	Drop      string
}

func passCase(p Phase) string { return "pass_case_" + string(p) }
func failCase(p Phase) string { return "fail_case_" + string(p) }
func passRun(p Phase) string  { return "pass_run_" + string(p) }
func failRun(p Phase) string  { return "fail_run_" + string(p) }

// BuildPhaseQuery renders the row-level query of one phase: the display,
// run key, outcome and detail columns of every matching result joined to
// its run.
func BuildPhaseQuery(spec *QuerySpec, phase Phase) (string, []any) {
	lists := spec.selects
	items := make([]string, 0, len(lists.Params)+len(lists.RunKeys)+len(lists.Details)+2)

	for _, c := range lists.Params {
		items = append(items, c.selectItem(phase))
	}

	for _, c := range lists.RunKeys {
		items = append(items, c.selectItem(phase))
	}

	items = append(items,
		fmt.Sprintf("CASE WHEN %s THEN '%s' END AS pass", resultField, passCase(phase)),
		fmt.Sprintf("CASE WHEN NOT %s THEN '%s' END AS fail", resultField, failCase(phase)),
	)

	for _, c := range lists.Details {
		items = append(items, c.selectItem(phase))
	}

	var (
		conds []string
		args  []any
	)

	for _, pred := range spec.predicates {
		cond, a := pred.Render(spec.dialect, phase)
		conds = append(conds, cond)
		args = append(args, a...)
	}

	if spec.result != nil {
		cond, a := spec.result.Render(spec.dialect, phase)
		conds = append(conds, cond)
		args = append(args, a...)
	}

	var b strings.Builder

	b.WriteString("SELECT ")
	b.WriteString(strings.Join(items, ", "))
	b.WriteString(" FROM ")
	b.WriteString(phase.Table())
	b.WriteString(" JOIN once USING (run_index)")

	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}

	return b.String(), args
}

// BuildUnion concatenates the phase queries with UNION ALL. Arguments are
// returned in placeholder order.
func BuildUnion(spec *QuerySpec) (string, []any) {
	parts := make([]string, 0, len(spec.phases))

	var args []any

	for _, phase := range spec.phases {
		q, a := BuildPhaseQuery(spec, phase)
		parts = append(parts, q)
		args = append(args, a...)
	}

	return strings.Join(parts, " UNION ALL "), args
}

// unionColumns lists the temporary table columns in select order.
func unionColumns(spec *QuerySpec) []string {
	lists := spec.selects
	cols := make([]string, 0, len(lists.Params)+len(lists.RunKeys)+len(lists.Details)+2)

	for _, c := range lists.Params {
		cols = append(cols, c.Alias)
	}

	for _, c := range lists.RunKeys {
		cols = append(cols, c.Alias)
	}

	cols = append(cols, "pass", "fail")

	for _, c := range lists.Details {
		cols = append(cols, c.Alias)
	}

	return cols
}

// BuildAggregate renders the query counting outcomes per display key.
//
// By case, every result row counts once in its phase's pass or fail
// column. By run, rows are first grouped per run and a run passes a phase
// when it has at least one passing and no failing case there; it fails the
// phase when it has any failing case.
func BuildAggregate(spec *QuerySpec) string {
	lists := spec.selects

	params := aliases(lists.Params)
	details := aliases(lists.Details)

	counts := make([]string, 0, 2*len(spec.phases))
	for _, p := range spec.phases {
		counts = append(counts,
			fmt.Sprintf("COUNT(CASE WHEN pass = '%[1]s' THEN '%[1]s' END) AS %[1]s", passCase(p)),
			fmt.Sprintf("COUNT(CASE WHEN fail = '%[1]s' THEN '%[1]s' END) AS %[1]s", failCase(p)),
		)
	}

	if !spec.byRun {
		keys := concat(params, details)

		return "SELECT " + strings.Join(concat(params, counts, details), ", ") +
			" FROM " + temporaryUnionTable + groupAndOrder(keys, keys)
	}

	inner := "SELECT " + strings.Join(concat(params, counts), ", ") +
		" FROM " + temporaryUnionTable +
		" GROUP BY " + strings.Join(concat(params, aliases(lists.RunKeys)), ", ")

	runCounts := make([]string, 0, 2*len(spec.phases))
	for _, p := range spec.phases {
		runCounts = append(runCounts,
			fmt.Sprintf("COUNT(CASE WHEN %s > 0 AND %s < 1 THEN '%s' END) AS %[3]s",
				passCase(p), failCase(p), passRun(p)),
			fmt.Sprintf("COUNT(CASE WHEN %s > 0 THEN '%s' END) AS %[2]s",
				failCase(p), failRun(p)),
		)
	}

	qualified := make([]string, len(params))
	for i, a := range params {
		qualified[i] = "run_atomic." + a
	}

	return "SELECT " + strings.Join(concat(qualified, runCounts), ", ") +
		" FROM (" + inner + ") AS run_atomic" + groupAndOrder(qualified, qualified)
}

// groupAndOrder groups and orders by keys. Without keys an aggregate over
// an empty input still yields one row, which HAVING removes.
func groupAndOrder(group, order []string) string {
	if len(group) == 0 {
		return " HAVING COUNT(*) > 0"
	}

	return " GROUP BY " + strings.Join(group, ", ") + " ORDER BY " + strings.Join(order, ", ")
}

// BuildPlan renders every statement of a report.
func BuildPlan(spec *QuerySpec) Plan {
	cols := unionColumns(spec)
	union, args := BuildUnion(spec)

	// The table keeps the column types of the phase queries, so numeric
	// display fields still order numerically.
	return Plan{
		Columns: cols,
		Create: "CREATE TEMPORARY TABLE " + temporaryUnionTable +
			" AS SELECT * FROM (" + union + ") AS u",
		Args:      args,
		Aggregate: BuildAggregate(spec),
		Drop:      "DROP TABLE IF EXISTS " + temporaryUnionTable,
	}
}

func aliases(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Alias
	}

	return out
}

func concat(lists ...[]string) []string {
	var n int
	for _, l := range lists {
		n += len(l)
	}

	out := make([]string, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}

	return out
}
