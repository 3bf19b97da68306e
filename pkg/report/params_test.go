package report

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValues(t *testing.T) {
	values, err := url.ParseQuery(
		"maf_phase=runs&maf_success=Fail&maf_start_test_timestamp=Past+Two+Days" +
			"&maf_agg_timestamp=Hour-by-Hour&by_atom=by_test_run" +
			"&no_details=&sql=on&debug=off&verbose=bogus" +
			"&mef_cluster=All&mef_mpi_name=ompi-nightly-trunk" +
			"&hmef_test_run_section_name=All" +
			"&tf_test_name=cxx&ft_test_name=Begins+With" +
			"&ft_orphan=contains" +
			"&agg_cluster=on&agg_os_name=off&agg_os_version=maybe" +
			"&unknown_key=1",
	)
	require.NoError(t, err)

	p, err := ParseValues(values)
	require.NoError(t, err)

	assert.Equal(t, "runs", p.Phase)
	assert.Equal(t, "Fail", p.Success)
	assert.Equal(t, "Past Two Days", p.Date)
	assert.Equal(t, "Hour-by-Hour", p.AggTimestamp)
	assert.True(t, p.ByRun())
	assert.True(t, p.NoDetails)
	assert.True(t, p.ShowSQL)
	assert.False(t, p.Debug)
	assert.False(t, p.Verbose)
	assert.False(t, p.JustResults)

	assert.Equal(t, map[string]string{"cluster": "All", "mpi_name": "ompi-nightly-trunk"}, p.Menus)
	assert.Equal(t, map[string]string{"test_run_section_name": "All"}, p.Hidden)
	assert.Equal(t, map[string]TextFilter{"test_name": {Value: "cxx", Mode: ModeBeginsWith}}, p.Text)
	assert.Equal(t, map[string]bool{"cluster": true, "os_name": false}, p.Aggregate)
}

func TestParseValues_LastValueWins(t *testing.T) {
	p, err := ParseValues(url.Values{"maf_phase": {"installs", "builds"}})
	require.NoError(t, err)

	assert.Equal(t, "builds", p.Phase)
}

func TestParamsByRun(t *testing.T) {
	tests := []struct {
		atom string
		want bool
	}{
		{atom: "by_test_run", want: true},
		{atom: " BY_TEST_RUN ", want: true},
		{atom: "by_test_case", want: false},
		{atom: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.atom, func(t *testing.T) {
			assert.Equal(t, tt.want, Params{Selectors: Selectors{ByAtom: tt.atom}}.ByRun())
		})
	}
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		check   func(t *testing.T, p Params)
	}{
		{
			name: "key value pairs",
			args: []string{"maf_phase=runs", "mef_cluster=All", "tf_test_name=a=b", "sql="},
			check: func(t *testing.T, p Params) {
				t.Helper()
				assert.Equal(t, "runs", p.Phase)
				assert.Equal(t, "All", p.Menus["cluster"])
				assert.Equal(t, "a=b", p.Text["test_name"].Value)
				assert.True(t, p.ShowSQL)
			},
		},
		{
			name:    "missing equals",
			args:    []string{"maf_phase"},
			wantErr: true,
		},
		{
			name:    "empty key",
			args:    []string{"=runs"},
			wantErr: true,
		},
		{
			name: "no args",
			check: func(t *testing.T, p Params) {
				t.Helper()
				assert.Empty(t, p.Menus)
				assert.Empty(t, p.Phase)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseArgs(tt.args)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}

func TestParamsEncode(t *testing.T) {
	values, err := url.ParseQuery(
		"maf_phase=runs&mef_cluster=All&tf_test_name=&tf_stdout=seg+fault" +
			"&ft_stdout=contains&agg_cluster=on&agg_os_name=off&sql=on&debug=off",
	)
	require.NoError(t, err)

	p, err := ParseValues(values)
	require.NoError(t, err)

	assert.Equal(t,
		"agg_cluster=on&agg_os_name=off&ft_stdout=contains&maf_phase=runs"+
			"&mef_cluster=All&sql=on&tf_stdout=seg+fault",
		p.Encode())

	again, err := url.ParseQuery(p.Encode())
	require.NoError(t, err)

	reparsed, err := ParseValues(again)
	require.NoError(t, err)
	assert.Equal(t, p.Encode(), reparsed.Encode())
}

func TestWithDefaultDate(t *testing.T) {
	p := Params{}
	assert.Equal(t, "Today", p.WithDefaultDate("Today").Date)

	p.Date = "All"
	assert.Equal(t, "All", p.WithDefaultDate("Today").Date)
}

func TestParsePhase(t *testing.T) {
	tests := []struct {
		in   string
		want Phase
		ok   bool
	}{
		{in: "installs", want: PhaseInstalls, ok: true},
		{in: "MPI Install", want: PhaseInstalls, ok: true},
		{in: "Test Builds", want: PhaseBuilds, ok: true},
		{in: " RUNS ", want: PhaseRuns, ok: true},
		{in: "All"},
		{in: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePhase(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
