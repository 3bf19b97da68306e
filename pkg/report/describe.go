package report

import (
	"fmt"
	"strings"
	"time"
)

const describeTimeFormat = "01-02-2006 15:04:05"

// DescriptionLine is one row of the plain-English query description.
type DescriptionLine struct {
	Label string
	Text  string
}

// Describe returns the predicate in plain English, relative to now.
func (p Predicate) Describe(now time.Time) DescriptionLine {
	switch p.Op {
	case OpSince:
		start, _ := p.Value.(time.Time)

		return DescriptionLine{
			Label: "Date Range",
			Text:  start.Format(describeTimeFormat) + " - " + now.Format(describeTimeFormat),
		}
	case OpResult:
		return DescriptionLine{Label: p.Field.Label, Text: p.Source}
	case OpMatch:
		return DescriptionLine{
			Label: p.Field.Label,
			Text:  fmt.Sprintf("%s %q", p.Mode, p.Source),
		}
	case OpLess, OpGreater:
		return DescriptionLine{
			Label: p.Field.Label,
			Text:  fmt.Sprintf("%s %s", p.Mode, p.Source),
		}
	default:
		if p.Field.Kind == KindNumeric {
			return DescriptionLine{Label: p.Field.Label, Text: "equals " + p.Source}
		}

		return DescriptionLine{Label: p.Field.Label, Text: TranslateCell(p.Source)}
	}
}

// Description summarizes the whole query.
func (s *QuerySpec) Description() []DescriptionLine {
	labels := make([]string, len(s.phases))
	for i, p := range s.phases {
		labels[i] = p.Label()
	}

	lines := []DescriptionLine{{Label: "Phase", Text: strings.Join(labels, ", ")}}

	for _, p := range s.predicates {
		lines = append(lines, p.Describe(s.now))
	}

	if s.result != nil {
		lines = append(lines, s.result.Describe(s.now))
	}

	if g := ParseGranularity(s.params.AggTimestamp); g != GranularityNone {
		lines = append(lines, DescriptionLine{Label: "Timestamp aggregation", Text: g.String()})
	}

	return append(lines, DescriptionLine{Label: "Count", Text: s.CountLabel()})
}
