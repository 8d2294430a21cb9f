package plan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfnkit/wfnkit/internal/multiwfn"
	"github.com/wfnkit/wfnkit/internal/npz"
	"github.com/wfnkit/wfnkit/internal/testutil"
)

// cpReport is a minimal two-record critical point report.
const cpReport = ` ----------------   CP     1,     Type (3,-3)   ----------------
 Density of all electrons:  0.2976180000E+03
 ----------------   CP     2,     Type (3,-1)   ----------------
 Density of all electrons:  0.4462870000E+00
`

// planIn returns a plan rooted in dir, so relative step paths resolve
// against it.
func planIn(t *testing.T, dir string, steps ...Step) *Plan {
	t.Helper()
	return &Plan{File: filepath.Join(dir, "plan.cue"), Steps: steps}
}

func TestRunnerExtractStep(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CPprop.txt"), []byte(cpReport), 0o644))

	r := &Runner{}
	p := planIn(t, dir, Step{Kind: KindExtract, Input: "CPprop.txt", Format: "json"})
	require.NoError(t, r.Run(context.Background(), p))

	data, err := os.ReadFile(filepath.Join(dir, "CPprop.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"records": 2`)
	assert.Contains(t, string(data), `"cp_index"`)
}

func TestRunnerExtractStepNPZ(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CPprop.txt"), []byte(cpReport), 0o644))

	r := &Runner{}
	p := planIn(t, dir, Step{Kind: KindExtract, Input: "CPprop.txt", Output: "cp.npz"})
	require.NoError(t, r.Run(context.Background(), p))

	archive, err := npz.ReadFile(filepath.Join(dir, "cp.npz"))
	require.NoError(t, err)
	assert.Contains(t, archive.Names(), "cp_index")
	assert.Contains(t, archive.Names(), "density_of_all_electrons")
}

func TestRunnerExtractStepNoRecords(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.txt"), []byte("nothing here\n"), 0o644))

	r := &Runner{}
	p := planIn(t, dir, Step{Kind: KindExtract, Name: "topology", Input: "empty.txt"})
	err := r.Run(context.Background(), p)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `step "topology"`)
	assert.Contains(t, err.Error(), "no critical point records found")
}

func TestRunnerConvertStep(t *testing.T) {
	fake := testutil.FakeMultiwfn(t, `cat > answers.txt
dest=$(sed -n '5p' answers.txt)
printf '# Generated by Multiwfn\n' > "$dest"
exit 0`)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "water.fchk"), []byte("fchk\n"), 0o644))

	r := &Runner{Driver: &multiwfn.Driver{Path: fake}}
	p := planIn(t, dir, Step{Kind: KindConvert, Input: "water.fchk"})
	require.NoError(t, r.Run(context.Background(), p))

	assert.FileExists(t, filepath.Join(dir, "water.mwfn"))
}

func TestRunnerRunStep(t *testing.T) {
	fake := testutil.FakeMultiwfn(t, `cat > consumed.txt
printf '%s' "$1" > arg.txt
exit 0`)

	scriptDir := t.TempDir()
	scriptText := "5\n12\n2\n3\n0\nq\n"
	require.NoError(t, os.WriteFile(filepath.Join(scriptDir, "spectrum.txt"), []byte(scriptText), 0o644))

	planDir := t.TempDir()
	r := &Runner{Driver: &multiwfn.Driver{Path: fake}, ScriptDirs: []string{scriptDir}}
	p := planIn(t, planDir, Step{Kind: KindRun, Script: "spectrum", Wavefunction: "water.fchk"})
	require.NoError(t, r.Run(context.Background(), p))

	consumed, err := os.ReadFile(filepath.Join(scriptDir, "consumed.txt"))
	require.NoError(t, err)
	assert.Equal(t, scriptText, string(consumed))

	arg, err := os.ReadFile(filepath.Join(scriptDir, "arg.txt"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(planDir, "water.fchk"), string(arg))
}

func TestRunnerRunStepNotFound(t *testing.T) {
	r := &Runner{Driver: &multiwfn.Driver{Path: "/bin/false"}, ScriptDirs: []string{t.TempDir()}}
	p := planIn(t, t.TempDir(), Step{Kind: KindRun, Script: "spectrum", Wavefunction: "w.fchk"})
	err := r.Run(context.Background(), p)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `script "spectrum" not found`)
}

func TestRunnerRunStepWrongExecutor(t *testing.T) {
	scriptDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(scriptDir, "plot.gnu"), []byte("plot sin(x)\n"), 0o644))

	r := &Runner{Driver: &multiwfn.Driver{Path: "/bin/false"}, ScriptDirs: []string{scriptDir}}
	p := planIn(t, t.TempDir(), Step{Kind: KindRun, Script: "plot", Wavefunction: "w.fchk"})
	err := r.Run(context.Background(), p)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `executor "gnuplot"`)
	assert.Contains(t, err.Error(), "cannot run")
}

func TestRunnerUnknownKind(t *testing.T) {
	r := &Runner{}
	p := &Plan{Steps: []Step{{Kind: "bogus"}}}
	err := r.Run(context.Background(), p)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown step kind "bogus"`)
}

func TestRunnerConcurrentSteps(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CPprop.txt"), []byte(cpReport), 0o644))

	r := &Runner{Jobs: 2}
	p := planIn(t, dir,
		Step{Kind: KindExtract, Input: "CPprop.txt", Output: "first.npz"},
		Step{Kind: KindExtract, Input: "CPprop.txt", Output: "second.json", Format: "json"},
	)
	require.NoError(t, r.Run(context.Background(), p))

	assert.FileExists(t, filepath.Join(dir, "first.npz"))
	assert.FileExists(t, filepath.Join(dir, "second.json"))
}

func TestRunnerStopsAfterFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CPprop.txt"), []byte(cpReport), 0o644))

	// Jobs defaults to one, so the second step is still queued when the
	// first fails and sees the cancelled context instead of running.
	r := &Runner{}
	p := planIn(t, dir,
		Step{Kind: KindExtract, Name: "first", Input: "missing.txt"},
		Step{Kind: KindExtract, Name: "second", Input: "CPprop.txt", Output: "second.npz"},
	)
	err := r.Run(context.Background(), p)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `step "first"`)
	assert.NoFileExists(t, filepath.Join(dir, "second.npz"))
}

func TestRunnerAbsolutePathsUntouched(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "CPprop.txt")
	require.NoError(t, os.WriteFile(input, []byte(cpReport), 0o644))

	out := filepath.Join(t.TempDir(), "cp.npz")
	r := &Runner{}
	p := planIn(t, t.TempDir(), Step{Kind: KindExtract, Input: input, Output: out})
	require.NoError(t, r.Run(context.Background(), p))

	assert.FileExists(t, out)
}
