package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// Cell colours.
const (
	headerColor = "#DEDEDE"
	passColor   = "#C0FFC0"
	failColor   = "#FFC0C0"
	zeroColor   = "#C0C0C0"
)

// Formatter renders report results as HTML.
type Formatter struct {
	tmpl *template.Template
}

// NewFormatter parses the embedded templates.
func NewFormatter() (*Formatter, error) {
	tmpl, err := template.New("report").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing report templates: %w", err)
	}

	return &Formatter{tmpl: tmpl}, nil
}

// RenderOptions controls the page around the results table.
type RenderOptions struct {
	// Link is the URL reproducing the query. Empty omits the footer.
	Link string
}

type countCell struct {
	Value int64
	Color string
}

type detailView struct {
	Label string
	Lines []string
}

type rowView struct {
	Display []string
	Counts  []countCell
	Details []detailView
}

type tableView struct {
	NoData      string
	HeaderColor string
	Params      []string
	Phases      []string
	HasDetails  bool
	Rows        []rowView
}

type pageView struct {
	Title       string
	CountLabel  string
	Description []DescriptionLine
	SQL         []string
	Errors      []string
	Link        string
	Table       tableView
}

// Render writes the report. In just-results mode only the results table,
// or the no-data notice, is written.
func (f *Formatter) Render(
	w io.Writer,
	spec *QuerySpec,
	res *Result,
	opts RenderOptions,
) error {
	table := buildTable(spec, res)

	if spec.JustResults() {
		if err := f.tmpl.ExecuteTemplate(w, "results", table); err != nil {
			return fmt.Errorf("rendering results: %w", err)
		}

		return nil
	}

	page := pageView{
		Title:       spec.Label(),
		CountLabel:  spec.CountLabel(),
		Description: spec.Description(),
		Link:        opts.Link,
		Table:       table,
	}

	if spec.ShowSQL() && res != nil {
		page.SQL = res.SQL
	}

	if spec.Debug() && res != nil {
		page.Errors = res.Errors
	}

	if err := f.tmpl.ExecuteTemplate(w, "report.html", page); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}

	return nil
}

// buildTable lays out the result rows under the two-row header: display
// labels, then a Pass/Fail pair per phase, then the detail trigger.
func buildTable(spec *QuerySpec, res *Result) tableView {
	lists := spec.selects

	table := tableView{
		NoData:      NoDataMessage,
		HeaderColor: headerColor,
		Params:      make([]string, len(lists.Params)),
		Phases:      make([]string, len(spec.phases)),
		HasDetails:  len(lists.Details) > 0,
	}

	for i, c := range lists.Params {
		table.Params[i] = c.Label
	}

	for i, p := range spec.phases {
		table.Phases[i] = p.Label()
	}

	if res.Empty() {
		return table
	}

	table.Rows = make([]rowView, len(res.Rows))

	for i, row := range res.Rows {
		rv := rowView{
			Display: row.Display,
			Counts:  make([]countCell, 0, 2*len(row.Counts)),
		}

		for _, c := range row.Counts {
			rv.Counts = append(rv.Counts,
				countCell{Value: c.Pass, Color: cellColor(c.Pass, passColor)},
				countCell{Value: c.Fail, Color: cellColor(c.Fail, failColor)},
			)
		}

		if table.HasDetails {
			rv.Details = make([]detailView, 0, len(row.Details))

			for j, v := range row.Details {
				if j >= len(lists.Details) {
					break
				}

				rv.Details = append(rv.Details, detailView{
					Label: lists.Details[j].Label,
					Lines: strings.Split(strings.TrimRight(v, "\n"), "\n"),
				})
			}
		}

		table.Rows[i] = rv
	}

	return table
}

func cellColor(n int64, nonZero string) string {
	if n > 0 {
		return nonZero
	}

	return zeroColor
}
