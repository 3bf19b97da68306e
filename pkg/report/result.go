package report

import (
	"database/sql"
	"fmt"
	"regexp"
)

// PhaseCount holds the outcome counts of one phase in a row.
type PhaseCount struct {
	Phase Phase
	Pass  int64
	Fail  int64
}

// ResultRow is one aggregated report row: the display key, a count pair
// per reported phase (in phase-set order) and the detail values.
type ResultRow struct {
	Display []string
	Counts  []PhaseCount
	Details []string
}

// Result is the outcome of executing a QuerySpec.
type Result struct {
	Rows []ResultRow
	// SQL lists the executed statements, for the SQL listing.
	SQL []string
	// Errors holds query failures. They are only surfaced in debug mode.
	Errors []string
}

// Empty reports whether nothing matched.
func (r *Result) Empty() bool {
	return r == nil || len(r.Rows) == 0
}

// rowScanner is satisfied by *sql.Rows.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanRows reads the aggregate query output. Columns arrive as display
// params, then a pass and a fail count per phase, then details.
func scanRows(rows rowScanner, spec *QuerySpec) ([]ResultRow, error) {
	nParams := len(spec.selects.Params)
	nDetails := len(spec.selects.Details)
	phases := spec.phases

	var out []ResultRow

	for rows.Next() {
		display := make([]sql.NullString, nParams)
		counts := make([]sql.NullInt64, 2*len(phases))
		details := make([]sql.NullString, nDetails)

		dest := make([]any, 0, nParams+len(counts)+nDetails)
		for i := range display {
			dest = append(dest, &display[i])
		}

		for i := range counts {
			dest = append(dest, &counts[i])
		}

		for i := range details {
			dest = append(dest, &details[i])
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning report row: %w", err)
		}

		row := ResultRow{
			Display: make([]string, nParams),
			Counts:  make([]PhaseCount, len(phases)),
			Details: make([]string, nDetails),
		}

		for i, v := range display {
			row.Display[i] = TranslateCell(v.String)
		}

		for i, p := range phases {
			row.Counts[i] = PhaseCount{
				Phase: p,
				Pass:  counts[2*i].Int64,
				Fail:  counts[2*i+1].Int64,
			}
		}

		for i, v := range details {
			row.Details[i] = TranslateCell(v.String)
		}

		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading report rows: %w", err)
	}

	return out, nil
}

var nightlyBranch = regexp.MustCompile(`^ompi-nightly-(v\d+(?:\.\d+)*|trunk)$`)

// TranslateCell maps raw database values to their display form.
func TranslateCell(v string) string {
	switch v {
	case "t":
		return "pass"
	case "f":
		return "fail"
	}

	if m := nightlyBranch.FindStringSubmatch(v); m != nil {
		return "Open MPI " + m[1]
	}

	return v
}
