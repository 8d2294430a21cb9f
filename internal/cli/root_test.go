package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args, capturing stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommandMetadata(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "wfnkit", cmd.Use)
	assert.Contains(t, cmd.Long, "Multiwfn")
}

func TestSubcommandsRegistered(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"extract", "grids", "charges", "filter", "convert", "scripts", "run", "plan", "runs"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "command %s should be registered", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestPersistentFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "multiwfn", "scripts-dir", "db"} {
		require.NotNil(t, cmd.PersistentFlags().Lookup(name), "flag %s should exist", name)
	}
}

func TestExtractCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	extractCmd, _, err := cmd.Find([]string{"extract"})
	require.NoError(t, err)

	outputFlag := extractCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)

	// The local format flag selects the artifact format and shadows the
	// global output-envelope flag.
	formatFlag := extractCmd.Flags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "npz", formatFlag.DefValue)
}

func TestGridsCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	gridsCmd, _, err := cmd.Find([]string{"grids"})
	require.NoError(t, err)

	propertyFlag := gridsCmd.Flags().Lookup("property")
	require.NotNil(t, propertyFlag)
	assert.Equal(t, "p", propertyFlag.Shorthand)

	modeFlag := gridsCmd.Flags().Lookup("grid-mode")
	require.NotNil(t, modeFlag)
	assert.Equal(t, "2", modeFlag.DefValue)
}

func TestChargesCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	chargesCmd, _, err := cmd.Find([]string{"charges"})
	require.NoError(t, err)

	methodFlag := chargesCmd.Flags().Lookup("method")
	require.NotNil(t, methodFlag)
	assert.Equal(t, "m", methodFlag.Shorthand)
}

func TestFilterCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	filterCmd, _, err := cmd.Find([]string{"filter"})
	require.NoError(t, err)

	for _, name := range []string{"property", "radius-scale", "fallback-radius", "min-distance",
		"max-value", "max-abs-value", "target-count", "sampling", "seed", "wavefunction"} {
		require.NotNil(t, filterCmd.Flags().Lookup(name), "flag %s should exist", name)
	}
	assert.Equal(t, "random", filterCmd.Flags().Lookup("sampling").DefValue)
	assert.Equal(t, "1.5", filterCmd.Flags().Lookup("fallback-radius").DefValue)
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	wfnFlag := runCmd.Flags().Lookup("wavefunction")
	require.NotNil(t, wfnFlag)
	assert.Equal(t, "w", wfnFlag.Shorthand)

	require.NotNil(t, runCmd.Flags().Lookup("dry-run"))
	require.NotNil(t, runCmd.Flags().Lookup("cwd"))
	require.NotNil(t, runCmd.Flags().Lookup("extra-arg"))
}

func TestPlanCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	planRunCmd, _, err := cmd.Find([]string{"plan", "run"})
	require.NoError(t, err)

	jobsFlag := planRunCmd.Flags().Lookup("jobs")
	require.NotNil(t, jobsFlag)
	assert.Equal(t, "j", jobsFlag.Shorthand)
	assert.Equal(t, "1", jobsFlag.DefValue)

	_, _, err = cmd.Find([]string{"plan", "vet"})
	require.NoError(t, err)
}

func TestRunsCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	listCmd, _, err := cmd.Find([]string{"runs", "list"})
	require.NoError(t, err)

	require.NotNil(t, listCmd.Flags().Lookup("operation"))
	limitFlag := listCmd.Flags().Lookup("limit")
	require.NotNil(t, limitFlag)
	assert.Equal(t, "20", limitFlag.DefValue)

	_, _, err = cmd.Find([]string{"runs", "show"})
	require.NoError(t, err)
}

func TestScriptsCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	listCmd, _, err := cmd.Find([]string{"scripts", "list"})
	require.NoError(t, err)
	require.NotNil(t, listCmd.Flags().Lookup("executor"))

	showCmd, _, err := cmd.Find([]string{"scripts", "show"})
	require.NoError(t, err)
	require.NotNil(t, showCmd.Flags().Lookup("head"))
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestInvalidFormatRejected(t *testing.T) {
	_, _, err := execute(t, "--format", "invalid", "scripts", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
