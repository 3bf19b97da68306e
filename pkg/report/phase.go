package report

import "strings"

// Phase is one of the three MTT testing stages. Its value is the name of
// the table holding the stage's results.
type Phase string

const (
	PhaseInstalls Phase = "installs"
	PhaseBuilds   Phase = "builds"
	PhaseRuns     Phase = "runs"
)

// AllPhases lists the phases in their canonical report order.
var AllPhases = []Phase{PhaseInstalls, PhaseBuilds, PhaseRuns}

var phaseLabels = map[Phase]string{
	PhaseInstalls: "MPI Install",
	PhaseBuilds:   "Test Build",
	PhaseRuns:     "Test Run",
}

// Label returns the column-group header of the phase.
func (p Phase) Label() string {
	return phaseLabels[p]
}

// Table returns the results table of the phase.
func (p Phase) Table() string {
	return string(p)
}

// ParsePhase accepts a table name or a phase label, case-insensitively.
func ParsePhase(s string) (Phase, bool) {
	s = strings.TrimSpace(strings.ToLower(s))

	for _, p := range AllPhases {
		label := strings.ToLower(p.Label())
		if s == string(p) || s == label || s == label+"s" {
			return p, true
		}
	}

	return "", false
}

func containsPhase(phases []Phase, p Phase) bool {
	for _, q := range phases {
		if q == p {
			return true
		}
	}

	return false
}

func clonePhases(phases []Phase) []Phase {
	out := make([]Phase, len(phases))
	copy(out, phases)

	return out
}
