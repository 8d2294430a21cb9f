package charges

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

// fakeChargesBody emulates a population analysis pass: it writes the .chg
// file every method produces and the multipole sidecar for MBIS (method
// code 20 on the third answer line).
const fakeChargesBody = `cat > answers.txt
wfn=$(head -n 1 answers.txt)
base=$(basename "$wfn")
stem="${base%.*}"
method=$(sed -n '3p' answers.txt)
case "$method" in
1) q=-0.680000 ;;
16) q=-0.420000 ;;
20) q=-0.821100 ;;
*) q=-0.500000 ;;
esac
cat > "$stem.chg" <<CHG
O     0.000000    0.000000    0.117300   $q
H     0.000000    0.757200   -0.469200    0.340000
H     0.000000   -0.757200   -0.469200    0.340000
CHG
if [ "$method" = "20" ]; then
  cat > "$stem.mbis_mpl" <<'MPL'
Atomic charges
   1(O)   -0.8211
   2(H)    0.4105
   3(H)    0.4106
Atomic dipoles
   1(O)   -0.0000    0.0000   -0.2369
   2(H)    0.0000   -0.0565    0.0417
   3(H)    0.0000    0.0565    0.0417
Atomic quadrupoles, Cartesian
   1(O)   -4.5761   -0.0000   -0.0000   -4.2289   -0.0000   -4.7178
   2(H)   -0.2916    0.0000    0.0000   -0.3263   -0.0244   -0.3306
   3(H)   -0.2916   -0.0000    0.0000   -0.3263    0.0244   -0.3306
Atomic quadrupoles, Traceless
   1(O)   -0.0685   -0.0000   -0.0000    0.2724   -0.0000   -0.2039
   2(H)    0.0246    0.0000    0.0000   -0.0274   -0.0366    0.0028
   3(H)    0.0246   -0.0000    0.0000   -0.0274    0.0366    0.0028
Atomic to molecular condensed quantities
MPL
fi
`

func writeWavefunction(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "water.fchk")
	require.NoError(t, os.WriteFile(path, []byte("fake wavefunction\n"), 0o644))
	return path
}

func TestSupportedMethods(t *testing.T) {
	assert.Equal(t, []string{"adch", "becke", "chelpg", "cm5", "hirshfeld", "mbis", "mk", "vdd"}, SupportedMethods())
}

func TestBuildScript(t *testing.T) {
	assert.Equal(t, "/data/water.fchk\n7\n1\n1\ny\n0\nq\n", buildScript("/data/water.fchk", "hirshfeld"))
	assert.Equal(t, "/data/water.fchk\n7\n20\n-3\n-4\n1\nn\ny\ny\n0\n0\nq\n", buildScript("/data/water.fchk", "mbis"))
}

func TestExport(t *testing.T) {
	wfn := writeWavefunction(t)
	d := &multiwfn.Driver{Path: testutil.FakeMultiwfn(t, fakeChargesBody)}

	out, err := Export(context.Background(), d, ExportOptions{
		Wavefunction: wfn,
		Methods:      []string{"hirshfeld", "cm5"},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(wfn), "water_charges.npz"), out)

	archive, err := npz.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"atoms", "coordinates_angstrom", "charges_hirshfeld", "charges_cm5"}, archive.Names())

	atoms, ok := archive.Array("atoms")
	require.True(t, ok)
	assert.Equal(t, []string{"O", "H", "H"}, atoms.Strings)

	coords, _ := archive.Array("coordinates_angstrom")
	assert.Equal(t, []int{3, 3}, coords.Shape)
	assert.Equal(t, 0.1173, coords.Floats[2])

	hirshfeld, _ := archive.Array("charges_hirshfeld")
	assert.Equal(t, []float64{-0.68, 0.34, 0.34}, hirshfeld.Floats)
	cm5, _ := archive.Array("charges_cm5")
	assert.Equal(t, -0.42, cm5.Floats[0])
}

func TestExportMBIS(t *testing.T) {
	wfn := writeWavefunction(t)
	d := &multiwfn.Driver{Path: testutil.FakeMultiwfn(t, fakeChargesBody)}

	out, err := Export(context.Background(), d, ExportOptions{
		Wavefunction: wfn,
		Methods:      []string{"mbis"},
	})
	require.NoError(t, err)

	archive, err := npz.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"atoms", "coordinates_angstrom", "charges_mbis",
		"mbis_charges_raw", "mbis_dipoles",
		"mbis_quadrupole_cartesian", "mbis_quadrupole_traceless",
	}, archive.Names())

	raw, _ := archive.Array("mbis_charges_raw")
	assert.Equal(t, []float64{-0.8211, 0.4105, 0.4106}, raw.Floats)

	dipoles, _ := archive.Array("mbis_dipoles")
	assert.Equal(t, []int{3, 3}, dipoles.Shape)
	assert.Equal(t, -0.2369, dipoles.Floats[2])

	cartesian, _ := archive.Array("mbis_quadrupole_cartesian")
	assert.Equal(t, []int{3, 6}, cartesian.Shape)
	traceless, _ := archive.Array("mbis_quadrupole_traceless")
	assert.Equal(t, []int{3, 6}, traceless.Shape)
	assert.Equal(t, -0.0685, traceless.Floats[0])
}

func TestExportAtomMismatch(t *testing.T) {
	body := `cat > answers.txt
wfn=$(head -n 1 answers.txt)
base=$(basename "$wfn")
stem="${base%.*}"
method=$(sed -n '3p' answers.txt)
if [ "$method" = "1" ]; then
  printf 'O 0.0 0.0 0.0 -0.5\n' > "$stem.chg"
else
  printf 'N 0.0 0.0 0.0 -0.5\n' > "$stem.chg"
fi
`
	wfn := writeWavefunction(t)
	d := &multiwfn.Driver{Path: testutil.FakeMultiwfn(t, body)}

	_, err := Export(context.Background(), d, ExportOptions{
		Wavefunction: wfn,
		Methods:      []string{"hirshfeld", "cm5"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "atomic ordering mismatch")
}

func TestExportMissingChargeFile(t *testing.T) {
	wfn := writeWavefunction(t)
	d := &multiwfn.Driver{Path: testutil.FakeMultiwfn(t, "cat > /dev/null")}

	_, err := Export(context.Background(), d, ExportOptions{
		Wavefunction: wfn,
		Methods:      []string{"hirshfeld"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `expected charge file for method "hirshfeld"`)
}

func TestExportMissingMultipoleFile(t *testing.T) {
	body := `cat > answers.txt
wfn=$(head -n 1 answers.txt)
base=$(basename "$wfn")
stem="${base%.*}"
printf 'O 0.0 0.0 0.0 -0.5\n' > "$stem.chg"
`
	wfn := writeWavefunction(t)
	d := &multiwfn.Driver{Path: testutil.FakeMultiwfn(t, body)}

	_, err := Export(context.Background(), d, ExportOptions{
		Wavefunction: wfn,
		Methods:      []string{"mbis"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MBIS multipole file")
}

func TestExportRejectsBadInputs(t *testing.T) {
	wfn := writeWavefunction(t)
	d := &multiwfn.Driver{Path: "/nonexistent/multiwfn"}

	tests := []struct {
		name    string
		opts    ExportOptions
		wantErr string
	}{
		{
			"missing wavefunction",
			ExportOptions{Wavefunction: filepath.Join(t.TempDir(), "absent.fchk"), Methods: []string{"hirshfeld"}},
			"wavefunction file not found",
		},
		{
			"unsupported method",
			ExportOptions{Wavefunction: wfn, Methods: []string{"mulliken"}},
			`unsupported method "mulliken"`,
		},
		{
			"no methods",
			ExportOptions{Wavefunction: wfn},
			"no charge analysis methods",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Export(context.Background(), d, tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
