package report

// ParamRef names a field added to the display key of a level, optionally
// under another alias so that different phases can share one column.
type ParamRef struct {
	Field string `yaml:"field"`
	As    string `yaml:"as,omitempty"`
	Label string `yaml:"label,omitempty"`
}

func (r ParamRef) alias() string {
	if r.As != "" {
		return r.As
	}

	return r.Field
}

// LevelConfig describes one report level: how rows are labelled, counted
// and broken down.
type LevelConfig struct {
	Label string `yaml:"label"`
	// ByRun forces counting by run regardless of the request.
	ByRun bool `yaml:"by_run,omitempty"`
	// Suppress removes phases from the report unless that would leave none.
	Suppress []Phase `yaml:"suppress,omitempty"`
	// Details lists the per-phase fields shown in a row's detail popup.
	Details map[Phase][]string `yaml:"details,omitempty"`
	// AddParams extends the display key when fewer than all phases are
	// reported.
	AddParams map[Phase][]ParamRef `yaml:"add_params,omitempty"`
}

// DefaultLevel returns the level used by the interactive query tool.
func DefaultLevel(client string) LevelConfig {
	buildParams := []ParamRef{
		{Field: "compiler_name"},
		{Field: "compiler_version"},
	}
	setupDetails := []string{
		"configure_arguments", "stdout", "stderr", "environment", "test_duration_interval",
	}

	return LevelConfig{
		Label: client + " Test Results",
		Details: map[Phase][]string{
			PhaseInstalls: setupDetails,
			PhaseBuilds:   setupDetails,
			PhaseRuns: {
				"test_command", "result_message", "stdout", "stderr",
				"environment", "test_duration_interval",
			},
		},
		AddParams: map[Phase][]ParamRef{
			PhaseInstalls: buildParams,
			PhaseBuilds:   buildParams,
			PhaseRuns: {
				{Field: "test_name"},
				{Field: "test_np"},
				{Field: "test_run_section_name"},
			},
		},
	}
}

// applySuppression removes suppressed phases, keeping the set non-empty.
func (l LevelConfig) applySuppression(phases []Phase) []Phase {
	if len(l.Suppress) == 0 {
		return phases
	}

	kept := make([]Phase, 0, len(phases))

	for _, p := range phases {
		if !containsPhase(l.Suppress, p) {
			kept = append(kept, p)
		}
	}

	if len(kept) == 0 {
		return phases
	}

	return kept
}
