package store

import "time"

// Once holds one row per MTT submission run: the platform, OS and MPI
// that the phase rows of that run share.
type Once struct {
	RunIndex          uint      `gorm:"column:run_index;primaryKey"`
	MTTVersionMajor   string    `gorm:"column:mtt_version_major"`
	MTTVersionMinor   string    `gorm:"column:mtt_version_minor"`
	PlatformHardware  string    `gorm:"column:platform_hardware;index"`
	PlatformType      string    `gorm:"column:platform_type"`
	PlatformID        string    `gorm:"column:platform_id"`
	OSName            string    `gorm:"column:os_name;index"`
	OSVersion         string    `gorm:"column:os_version"`
	Hostname          string    `gorm:"column:hostname"`
	MPIName           string    `gorm:"column:mpi_name;index"`
	MPIVersion        string    `gorm:"column:mpi_version"`
	StartRunTimestamp time.Time `gorm:"column:start_run_timestamp"`
}

// TableName overrides the pluralized default.
func (Once) TableName() string { return "once" }

// PhaseResult holds the columns every phase table shares.
type PhaseResult struct {
	ID                    uint      `gorm:"column:id;primaryKey;autoIncrement"`
	RunIndex              uint      `gorm:"column:run_index;index"`
	Success               bool      `gorm:"column:success"`
	Stdout                string    `gorm:"column:stdout"`
	Stderr                string    `gorm:"column:stderr"`
	Environment           string    `gorm:"column:environment"`
	ResultMessage         string    `gorm:"column:result_message"`
	MPIGetSectionName     string    `gorm:"column:mpi_get_section_name"`
	MPIInstallSectionName string    `gorm:"column:mpi_install_section_name"`
	MPIDetails            string    `gorm:"column:mpi_details"`
	MergeStdoutStderr     bool      `gorm:"column:merge_stdout_stderr"`
	StartTestTimestamp    time.Time `gorm:"column:start_test_timestamp;index"`
	SubmitTestTimestamp   time.Time `gorm:"column:submit_test_timestamp"`
	TestDurationInterval  string    `gorm:"column:test_duration_interval"`
}

// Install is one MPI install phase result.
type Install struct {
	PhaseResult        `gorm:"embedded"`
	CompilerName       string `gorm:"column:compiler_name"`
	CompilerVersion    string `gorm:"column:compiler_version"`
	ConfigureArguments string `gorm:"column:configure_arguments"`
	VpathMode          string `gorm:"column:vpath_mode"`
}

// TableName returns the phase table name.
func (Install) TableName() string { return "installs" }

// Build is one test build phase result.
type Build struct {
	PhaseResult          `gorm:"embedded"`
	CompilerName         string `gorm:"column:compiler_name"`
	CompilerVersion      string `gorm:"column:compiler_version"`
	ConfigureArguments   string `gorm:"column:configure_arguments"`
	VpathMode            string `gorm:"column:vpath_mode"`
	TestBuildSectionName string `gorm:"column:test_build_section_name"`
}

// TableName returns the phase table name.
func (Build) TableName() string { return "builds" }

// Run is one test run phase result.
type Run struct {
	PhaseResult          `gorm:"embedded"`
	TestName             string `gorm:"column:test_name;index"`
	TestCommand          string `gorm:"column:test_command"`
	TestNP               int    `gorm:"column:test_np"`
	TestMessage          string `gorm:"column:test_message"`
	TestBuildSectionName string `gorm:"column:test_build_section_name"`
	TestRunSectionName   string `gorm:"column:test_run_section_name"`
}

// TableName returns the phase table name.
func (Run) TableName() string { return "runs" }
