package runinfo_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/seahurt/bcl2fq-local/internal/model"
	"github.com/seahurt/bcl2fq-local/internal/runinfo"

	"github.com/stretchr/testify/require"
)

const novaSeq = `<?xml version="1.0"?>
<RunInfo Version="5">
	<Run Id="230101_A00123_0042_BHXXXXDSX3" Number="42">
		<Flowcell>HXXXXDSX3</Flowcell>
		<Instrument>A00123</Instrument>
		<Date>1/1/2023 10:00:00 AM</Date>
		<Reads>
			<Read Number="1" NumCycles="151" IsIndexedRead="N" />
			<Read Number="2" NumCycles="9" IsIndexedRead="Y" />
			<Read Number="3" NumCycles="151" IsIndexedRead="N" />
		</Reads>
	</Run>
</RunInfo>
`

func TestRead(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "RunInfo.xml"), []byte(novaSeq), 0o644))

	info, err := runinfo.Read(dir)
	require.NoError(t, err)
	require.Equal(t, "230101_A00123_0042_BHXXXXDSX3", info.ID)
	require.Equal(t, 42, info.Number)
	require.Equal(t, "HXXXXDSX3", info.Flowcell)
	require.Equal(t, "A00123", info.Instrument)
	require.Equal(t, []model.ReadDescriptor{
		{Number: 1, Cycles: 151, Indexed: model.IndexedNo},
		{Number: 2, Cycles: 9, Indexed: model.IndexedYes},
		{Number: 3, Cycles: 151, Indexed: model.IndexedNo},
	}, info.Reads)
	require.True(t, info.Reads[1].IsIndexed())
	require.False(t, info.Reads[0].IsIndexed())
}

func TestParse_SingleRead(t *testing.T) {
	t.Parallel()
	doc := `<RunInfo><Run Id="r"><Reads><Read NumCycles="51" IsIndexedRead="N"/></Reads></Run></RunInfo>`
	info, err := runinfo.Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, info.Reads, 1)
	require.Equal(t, 1, info.Reads[0].Number)
	require.Equal(t, 51, info.Reads[0].Cycles)
}

func TestParse_UnknownIndexFlag(t *testing.T) {
	t.Parallel()
	// unknown and missing flags are carried through, the mask decides
	doc := `<RunInfo><Run><Reads>
		<Read Number="1" NumCycles="26" IsIndexedRead="X"/>
		<Read Number="2" NumCycles="8"/>
	</Reads></Run></RunInfo>`
	info, err := runinfo.Parse([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, model.IndexFlag("X"), info.Reads[0].Indexed)
	require.Equal(t, model.IndexFlag(""), info.Reads[1].Indexed)
}

func TestRead_Fail(t *testing.T) {
	t.Parallel()
	var testCases = []struct {
		scenario string
		doc      string
	}{
		{"not xml", "this is not xml"},
		{"truncated", `<RunInfo><Run><Reads><Read NumCycles="151"`},
		{"wrong root", `<RunParameters/>`},
		{"no run", `<RunInfo/>`},
		{"no reads", `<RunInfo><Run><Reads/></Run></RunInfo>`},
		{"missing cycles", `<RunInfo><Run><Reads><Read IsIndexedRead="N"/></Reads></Run></RunInfo>`},
		{"bad cycles", `<RunInfo><Run><Reads><Read NumCycles="many" IsIndexedRead="N"/></Reads></Run></RunInfo>`},
		{"zero cycles", `<RunInfo><Run><Reads><Read NumCycles="0" IsIndexedRead="N"/></Reads></Run></RunInfo>`},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(runinfo.Path(dir), []byte(tc.doc), 0o644))
			_, err := runinfo.Read(dir)
			require.Error(t, err)
			var metaErr *model.MetadataError
			require.ErrorAs(t, err, &metaErr)
			require.Equal(t, runinfo.Path(dir), metaErr.Path)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := runinfo.Read(t.TempDir())
		var metaErr *model.MetadataError
		require.ErrorAs(t, err, &metaErr)
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}
