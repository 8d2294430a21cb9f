package multiwfn

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfnkit/wfnkit/internal/testutil"
)

func TestComposeScript(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{
			name:  "menu answers",
			lines: []string{"input.fchk", "5", "12", "2", "3", "0", "q"},
			want:  "input.fchk\n5\n12\n2\n3\n0\nq\n",
		},
		{
			name:  "blank answer kept",
			lines: []string{"100", "2", "1", "", "0"},
			want:  "100\n2\n1\n\n0\n",
		},
		{
			name:  "single line",
			lines: []string{"q"},
			want:  "q\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComposeScript(tt.lines))
		})
	}
}

func TestDriverRunCapturesOutput(t *testing.T) {
	path := testutil.FakeMultiwfn(t, "cat > /dev/null\necho grid exported\necho oops >&2")
	d := &Driver{Path: path}

	res, err := d.Run(context.Background(), "1\nq\n", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Code)
	assert.Contains(t, res.Stdout, "grid exported")
	assert.Contains(t, res.Stderr, "oops")
}

func TestDriverRunAcceptsEOFExit(t *testing.T) {
	path := testutil.FakeMultiwfn(t, "cat > /dev/null\nexit 24")
	d := &Driver{Path: path}

	res, err := d.Run(context.Background(), "q\n", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 24, res.Code)
}

func TestDriverRunFailure(t *testing.T) {
	path := testutil.FakeMultiwfn(t, "cat > /dev/null\necho bad input\nexit 3")
	d := &Driver{Path: path}

	_, err := d.Run(context.Background(), "q\n", t.TempDir())
	require.Error(t, err)

	var execErr *ExecError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, 3, execErr.Code)
	assert.Contains(t, execErr.Stdout, "bad input")
}

func TestDriverRunMissingBinary(t *testing.T) {
	d := &Driver{Path: "/nonexistent/multiwfn"}
	_, err := d.Run(context.Background(), "q\n", t.TempDir())
	require.Error(t, err)

	var execErr *ExecError
	assert.False(t, errors.As(err, &execErr))
}

func TestDriverRunWorkingDirectory(t *testing.T) {
	path := testutil.FakeMultiwfn(t, "cat > /dev/null\npwd")
	d := &Driver{Path: path}

	dir := t.TempDir()
	res, err := d.Run(context.Background(), "q\n", dir)
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, dir)
}

func TestDriverRunReadsScript(t *testing.T) {
	path := testutil.FakeMultiwfn(t, `while read line; do echo "got: $line"; done`)
	d := &Driver{Path: path}

	res, err := d.Run(context.Background(), ComposeScript([]string{"5", "12"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "got: 5")
	assert.Contains(t, res.Stdout, "got: 12")
}

func TestDriverRunCancelled(t *testing.T) {
	path := testutil.FakeMultiwfn(t, "sleep 30")
	d := &Driver{Path: path}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Run(ctx, "q\n", t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
