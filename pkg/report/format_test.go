package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFormatter(t *testing.T) *Formatter {
	t.Helper()

	f, err := NewFormatter()
	require.NoError(t, err)

	return f
}

func render(t *testing.T, f *Formatter, spec *QuerySpec, res *Result, opts RenderOptions) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, f.Render(&buf, spec, res, opts))

	return buf.String()
}

func clusterSpec(t *testing.T, extra map[string]string) *QuerySpec {
	t.Helper()

	kv := map[string]string{"mef_cluster": "All", "mef_mpi_name": "All"}
	for k, v := range extra {
		kv[k] = v
	}

	return NewQuerySpec(mustParams(t, kv), LevelConfig{Label: "MTT Test Results"}, postgresDialect{}, testNow)
}

func TestRender_NoData(t *testing.T) {
	f := newTestFormatter(t)

	for _, res := range []*Result{nil, {}} {
		out := render(t, f, clusterSpec(t, nil), res, RenderOptions{})

		assert.Contains(t, out, "No data available for the specified query.")
		assert.NotContains(t, out, `class="mtt-results"`)
		assert.Contains(t, out, "<title>MTT Test Results</title>")
	}
}

func TestRender_Table(t *testing.T) {
	f := newTestFormatter(t)
	spec := clusterSpec(t, map[string]string{"maf_phase": "runs"})

	res := &Result{Rows: []ResultRow{
		{
			Display: []string{"ib / node1", "Open MPI trunk"},
			Counts:  []PhaseCount{{Phase: PhaseRuns, Pass: 3, Fail: 0}},
		},
		{
			Display: []string{"eth / <b>node2</b>", "Open MPI v1.2"},
			Counts:  []PhaseCount{{Phase: PhaseRuns, Pass: 0, Fail: 2}},
		},
	}}

	out := render(t, f, spec, res, RenderOptions{Link: "/reporter?maf_phase=runs"})

	assert.Contains(t, out, `<th bgcolor="#DEDEDE" rowspan="2">Cluster</th>`)
	assert.Contains(t, out, `<th bgcolor="#DEDEDE" rowspan="2">MPI</th>`)
	assert.Contains(t, out, `<th bgcolor="#DEDEDE" colspan="2">Test Run</th>`)
	assert.Contains(t, out, `<th bgcolor="#DEDEDE">Pass</th><th bgcolor="#DEDEDE">Fail</th>`)
	assert.NotContains(t, out, "MPI Install")

	assert.Contains(t, out, `<td align="right" bgcolor="#C0FFC0">3</td><td align="right" bgcolor="#C0C0C0">0</td>`)
	assert.Contains(t, out, `<td align="right" bgcolor="#C0C0C0">0</td><td align="right" bgcolor="#FFC0C0">2</td>`)

	assert.Contains(t, out, "eth / &lt;b&gt;node2&lt;/b&gt;")
	assert.NotContains(t, out, "<b>node2</b>")

	assert.Less(t, strings.Index(out, "ib / node1"), strings.Index(out, "eth / "))
	assert.Contains(t, out, `href="/reporter?maf_phase=runs">Link to this query</a>`)
	assert.Contains(t, out, "By test case")
	assert.NotContains(t, out, "[i]")
}

func TestRender_Details(t *testing.T) {
	f := newTestFormatter(t)

	p := mustParams(t, map[string]string{"maf_phase": "installs", "mef_cluster": "All"})
	spec := NewQuerySpec(p, DefaultLevel("MTT"), postgresDialect{}, testNow)

	require.Len(t, spec.Selects().Details, 5)

	res := &Result{Rows: []ResultRow{{
		Display: []string{"ib / node1", "gcc", "4.1"},
		Counts:  []PhaseCount{{Phase: PhaseInstalls, Pass: 1}},
		Details: []string{"--enable-debug", "line one\nline two\n", "", "PATH=/bin", "00:01:02"},
	}}}

	out := render(t, f, spec, res, RenderOptions{})

	assert.Contains(t, out, `<th bgcolor="#DEDEDE" rowspan="2">[i]</th>`)
	assert.Contains(t, out, `<details class="mtt-details"><summary>[i]</summary>`)
	assert.Contains(t, out, "<b>Config args</b></td><td><tt>--enable-debug</tt>")
	assert.Contains(t, out, "<tt>line one<br>line two</tt>")
	assert.Contains(t, out, `rowspan="2">Compiler ver</th>`)
}

func TestRender_JustResults(t *testing.T) {
	f := newTestFormatter(t)

	spec := clusterSpec(t, map[string]string{"just_results": "on"})
	res := &Result{Rows: []ResultRow{{
		Display: []string{"ib / node1", "Open MPI trunk"},
		Counts: []PhaseCount{
			{Phase: PhaseInstalls, Pass: 1},
			{Phase: PhaseBuilds, Pass: 1},
			{Phase: PhaseRuns, Fail: 1},
		},
	}}}

	out := render(t, f, spec, res, RenderOptions{Link: "/reporter"})

	assert.True(t, strings.HasPrefix(out, `<table class="mtt-results"`), out)
	assert.NotContains(t, out, "<html")
	assert.NotContains(t, out, "Query Description")
	assert.NotContains(t, out, "Link to this query")

	empty := render(t, f, spec, &Result{}, RenderOptions{})
	assert.Equal(t, "<p><b><i>No data available for the specified query.</i></b></p>\n", empty)
}

func TestRender_SQLAndDebug(t *testing.T) {
	f := newTestFormatter(t)

	res := &Result{
		SQL:    []string{"SELECT 1", "DROP TABLE IF EXISTS mtt_union"},
		Errors: []string{"creating union table: no such table: runs"},
	}

	plain := render(t, f, clusterSpec(t, nil), res, RenderOptions{})
	assert.NotContains(t, plain, "SELECT 1")
	assert.NotContains(t, plain, "no such table")
	assert.Contains(t, plain, NoDataMessage)

	verbose := render(t, f, clusterSpec(t, map[string]string{"sql": "on", "debug": "on"}), res, RenderOptions{})
	assert.Contains(t, verbose, "SELECT 1;\nDROP TABLE IF EXISTS mtt_union;")
	assert.Contains(t, verbose, "creating union table: no such table: runs")
	assert.Contains(t, verbose, NoDataMessage)
}

func TestRender_Idempotent(t *testing.T) {
	f := newTestFormatter(t)
	spec := clusterSpec(t, map[string]string{"maf_start_test_timestamp": "Past Two Days"})

	res := &Result{Rows: []ResultRow{{
		Display: []string{"ib / node1", "Open MPI trunk"},
		Counts: []PhaseCount{
			{Phase: PhaseInstalls, Pass: 1},
			{Phase: PhaseBuilds, Pass: 4, Fail: 1},
			{Phase: PhaseRuns, Pass: 120, Fail: 7},
		},
	}}}

	first := render(t, f, spec, res, RenderOptions{})
	second := render(t, f, spec, res, RenderOptions{})

	assert.Equal(t, first, second)
	assert.Contains(t, first, "03-12-2007 15:30:00 - 03-14-2007 15:30:00")
}

func TestTranslateCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "t", want: "pass"},
		{in: "f", want: "fail"},
		{in: "ompi-nightly-trunk", want: "Open MPI trunk"},
		{in: "ompi-nightly-v1.2", want: "Open MPI v1.2"},
		{in: "ompi-nightly-v1.3.1", want: "Open MPI v1.3.1"},
		{in: "ompi-release-v1.2", want: "ompi-release-v1.2"},
		{in: "true", want: "true"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, TranslateCell(tt.in))
		})
	}
}
