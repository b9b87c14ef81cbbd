package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SampleStar is a RELION 3.1 STAR file with one optics group and four
// particles on two micrographs.
const SampleStar = `
data_optics

loop_
_rlnVoltage #1
_rlnImagePixelSize #2
_rlnSphericalAberration #3
_rlnAmplitudeContrast #4
_rlnOpticsGroup #5
_rlnImageSize #6
_rlnImageDimensionality #7
_rlnOpticsGroupName #8
300.000000 1.770000 2.700000 0.100000 1 360 2 opticsGroup1

data_particles

loop_
_rlnCoordinateX #1
_rlnCoordinateY #2
_rlnMicrographName #3
_rlnDefocusU #4
_rlnDefocusV #5
1234.5 2345.6 micrograph_001.mrc 28000.0 27500.0
1456.7 3456.8 micrograph_001.mrc 28000.0 27500.0
2000.0 3000.0 micrograph_002.mrc 29000.0 28500.0
2500.0 3500.0 micrograph_002.mrc 29000.0 28500.0
`

// SampleCSV holds the same particles as SampleStar
const SampleCSV = `CoordinateX,CoordinateY,MicrographName
1234.5,2345.6,micrograph_001.mrc
1456.7,3456.8,micrograph_001.mrc
2000.0,3000.0,micrograph_002.mrc
2500.0,3500.0,micrograph_002.mrc
`

// SampleBox is an EMAN2 box file with four particles
const SampleBox = `1234 2345 100 100
1456 3456 100 100
2000 3000 100 100
2500 3500 100 100
`

// WriteFixture writes content to name inside dir and returns the full path
func WriteFixture(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

// SampleFiles writes the three sample files into a temporary directory and
// returns their paths keyed by format name.
func SampleFiles(t testing.TB) map[string]string {
	t.Helper()
	dir := t.TempDir()
	return map[string]string{
		"star": WriteFixture(t, dir, "test.star", SampleStar),
		"csv":  WriteFixture(t, dir, "test.csv", SampleCSV),
		"box":  WriteFixture(t, dir, "test.box", SampleBox),
	}
}
