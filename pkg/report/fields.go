package report

// FieldKind selects the filter vocabulary and the type handling of a field.
type FieldKind int

const (
	KindText FieldKind = iota
	KindNumeric
	KindTimestamp
	KindBool
)

// FilterMode is a text filter comparison chosen by the user.
type FilterMode string

const (
	ModeContains    FilterMode = "contains"
	ModeNotContains FilterMode = "does not contain"
	ModeBeginsWith  FilterMode = "begins with"
	ModeEndsWith    FilterMode = "ends with"
	ModeEquals      FilterMode = "equals"
	ModeLessThan    FilterMode = "less than"
	ModeGreaterThan FilterMode = "greater than"
)

var (
	stringModes  = []FilterMode{ModeContains, ModeNotContains, ModeBeginsWith, ModeEndsWith}
	numericModes = []FilterMode{ModeEquals, ModeLessThan, ModeGreaterThan}
)

// Field describes one reportable column.
type Field struct {
	Name  string
	Label string
	// Expr is the SQL expression selecting the field. Empty means Name.
	Expr string
	Kind FieldKind
	// Phases lists the phase tables carrying the column. Nil means the
	// column lives in the once table and is available to every phase.
	Phases []Phase
}

// In reports whether the field can be selected from the given phase.
func (f Field) In(p Phase) bool {
	return f.Phases == nil || containsPhase(f.Phases, p)
}

// SQL returns the expression selecting the field.
func (f Field) SQL() string {
	if f.Expr != "" {
		return f.Expr
	}

	return f.Name
}

// Modes returns the text filter comparisons the field supports.
func (f Field) Modes() []FilterMode {
	if f.Kind == KindNumeric {
		return numericModes
	}

	return stringModes
}

func (f Field) supports(m FilterMode) bool {
	for _, mode := range f.Modes() {
		if mode == m {
			return true
		}
	}

	return false
}

const (
	timestampField      = "start_test_timestamp"
	resultField         = "success"
	clusterExpression   = "(platform_id || ' / ' || hostname)"
	temporaryUnionTable = "mtt_union"

	// NoDataMessage is rendered in place of the table when nothing matched.
	NoDataMessage = "No data available for the specified query."

	// defaultBrokenOut is how many requested fields stay in the display key
	// when no aggregate toggle names them.
	defaultBrokenOut = 3
)

var (
	allPhaseTables  = []Phase{PhaseInstalls, PhaseBuilds, PhaseRuns}
	installAndBuild = []Phase{PhaseInstalls, PhaseBuilds}
	buildAndRun     = []Phase{PhaseBuilds, PhaseRuns}
	runsOnly        = []Phase{PhaseRuns}

	// runKeyFields identify one MTT submission run.
	runKeyFields = []string{"hostname", "start_run_timestamp"}
)

// catalog lists every field in display order. The once-table menu fields
// come first.
var catalog = []Field{
	{Name: "cluster", Label: "Cluster", Expr: clusterExpression},
	{Name: "mpi_name", Label: "MPI"},
	{Name: "mpi_version", Label: "MPI rev"},
	{Name: "os_name", Label: "OS"},
	{Name: "os_version", Label: "OS ver"},
	{Name: "platform_hardware", Label: "Hardware"},
	{Name: "platform_type", Label: "Platform type"},
	{Name: "platform_id", Label: "Platform"},
	{Name: "hostname", Label: "Host"},
	{Name: "start_run_timestamp", Label: "Run timestamp (GMT)", Kind: KindTimestamp},
	{Name: "mtt_version_major", Label: "MTT ver maj"},
	{Name: "mtt_version_minor", Label: "MTT ver min"},

	{Name: "compiler_name", Label: "Compiler", Phases: installAndBuild},
	{Name: "compiler_version", Label: "Compiler ver", Phases: installAndBuild},
	{Name: "configure_arguments", Label: "Config args", Phases: installAndBuild},
	{Name: "vpath_mode", Label: "Vpath", Phases: installAndBuild},

	{Name: "test_name", Label: "Test name", Phases: runsOnly},
	{Name: "test_command", Label: "Mpirun cmd", Phases: runsOnly},
	{Name: "test_np", Label: "Np", Kind: KindNumeric, Phases: runsOnly},
	{Name: "test_message", Label: "Test msg", Phases: runsOnly},
	{Name: "test_build_section_name", Label: "Suite (Build)", Phases: buildAndRun},
	{Name: "test_run_section_name", Label: "Suite (Run)", Phases: runsOnly},

	{Name: "mpi_get_section_name", Label: "Section (MPI Get)", Phases: allPhaseTables},
	{Name: "mpi_install_section_name", Label: "Section (MPI Install)", Phases: allPhaseTables},
	{Name: "mpi_details", Label: "MPI Details", Phases: allPhaseTables},
	{Name: "merge_stdout_stderr", Label: "Merge outputs", Kind: KindBool, Phases: allPhaseTables},
	{Name: "result_message", Label: "Result msg", Phases: allPhaseTables},
	{Name: "stdout", Label: "Stdout", Phases: allPhaseTables},
	{Name: "stderr", Label: "Stderr", Phases: allPhaseTables},
	{Name: "environment", Label: "Env", Phases: allPhaseTables},
	{Name: "start_test_timestamp", Label: "Timestamp (GMT)", Kind: KindTimestamp, Phases: allPhaseTables},
	{Name: "submit_test_timestamp", Label: "Submit time", Kind: KindTimestamp, Phases: allPhaseTables},
	{Name: "test_duration_interval", Label: "Test duration", Phases: allPhaseTables},
	{Name: "success", Label: "Result", Kind: KindBool, Phases: allPhaseTables},
}

var catalogIndex = func() map[string]int {
	idx := make(map[string]int, len(catalog))
	for i, f := range catalog {
		idx[f.Name] = i
	}

	return idx
}()

// LookupField returns the catalog entry for name.
func LookupField(name string) (Field, bool) {
	i, ok := catalogIndex[name]
	if !ok {
		return Field{}, false
	}

	return catalog[i], true
}

// MenuFields are the once-table fields offered as drop-down menus.
var MenuFields = []string{
	"cluster", "mpi_name", "mpi_version", "os_name", "os_version", "platform_hardware",
}

// FilterGroup is a set of text-filterable fields owned by a set of phases.
type FilterGroup struct {
	Name   string
	Label  string
	Phases []Phase
	Fields []string
}

// filterGroups is in declaration order. The which-phase rule scans it
// backwards so phase-specific groups win over the shared one.
var filterGroups = []FilterGroup{
	{
		Name:   "general_a",
		Phases: []Phase{PhaseRuns, PhaseBuilds, PhaseInstalls},
		Fields: []string{
			"stderr", "stdout", "environment", "configure_arguments",
			"result_message", "mpi_get_section_name", "mpi_install_section_name",
		},
	},
	{
		Name:   "runs",
		Label:  "Test Run Filters",
		Phases: []Phase{PhaseRuns},
		Fields: []string{
			"test_name", "test_command", "test_np",
			"test_build_section_name", "test_run_section_name",
		},
	},
	{
		Name:   "general_b",
		Label:  "MPI Install/Test Build Filters",
		Phases: []Phase{PhaseBuilds, PhaseInstalls},
		Fields: []string{"compiler_name", "compiler_version"},
	},
}

// AdvancedFilterFields can be filtered on without narrowing the phase set.
var AdvancedFilterFields = []string{
	"mpi_details", "merge_stdout_stderr", "vpath_mode",
	"start_test_timestamp", "submit_test_timestamp", "test_duration_interval",
}
