package service_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const runInfoXML = `<?xml version="1.0"?>
<RunInfo Version="2">
	<Run Id="230101_M00001_0001_000000000-ABCDE" Number="1">
		<Flowcell>000000000-ABCDE</Flowcell>
		<Instrument>M00001</Instrument>
		<Reads>
			<Read Number="1" NumCycles="151" IsIndexedRead="N" />
			<Read Number="2" NumCycles="9" IsIndexedRead="Y" />
			<Read Number="3" NumCycles="151" IsIndexedRead="N" />
		</Reads>
	</Run>
</RunInfo>
`

// fakeBcl2fastq parses --output-dir, prints on both streams, creates the
// undetermined reads and appends a line to the launched file.
const fakeBcl2fastq = `
out=""
while [ $# -gt 0 ]; do
	case "$1" in
		--output-dir) out="$2"; shift ;;
	esac
	shift
done
echo launched >> "%[1]s"
echo "bcl2fastq v2.20.0.422"
echo "INFO: processing" 1>&2
touch "$out/Undetermined_S0_R1_001.fastq.gz" "$out/Undetermined_S0_R2_001.fastq.gz"
echo "Processing completed with 0 errors and 0 warnings."
`

func requireSh(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skipf("skipped, binary sh not available: %v", err)
	}
}

// script writes an executable shell script into a temporary directory.
func script(t *testing.T, body string) string {
	t.Helper()
	requireSh(t)
	path := filepath.Join(t.TempDir(), "bcl2fastq")
	err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755)
	require.NoError(t, err)
	return path
}

func creat(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
