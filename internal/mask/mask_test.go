package mask_test

import (
	"strings"
	"testing"

	"github.com/seahurt/bcl2fq-local/internal/mask"
	"github.com/seahurt/bcl2fq-local/internal/model"

	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	t.Parallel()
	var testCases = []struct {
		scenario string
		given    []model.ReadDescriptor
		then     string
	}{
		{
			scenario: "paired end single index",
			given: []model.ReadDescriptor{
				{Number: 1, Cycles: 151, Indexed: model.IndexedNo},
				{Number: 2, Cycles: 9, Indexed: model.IndexedYes},
				{Number: 3, Cycles: 151, Indexed: model.IndexedNo},
			},
			then: "y150n,i8n,y150n",
		},
		{
			scenario: "dual index",
			given: []model.ReadDescriptor{
				{Number: 1, Cycles: 101, Indexed: "N"},
				{Number: 2, Cycles: 9, Indexed: "Y"},
				{Number: 3, Cycles: 9, Indexed: "Y"},
				{Number: 4, Cycles: 101, Indexed: "N"},
			},
			then: "y100n,i8n,i8n,y100n",
		},
		{
			scenario: "single cycle read is not rejected",
			given: []model.ReadDescriptor{
				{Number: 1, Cycles: 1, Indexed: model.IndexedNo},
				{Number: 2, Cycles: 1, Indexed: model.IndexedYes},
			},
			then: "y0n,i0n",
		},
		{
			// intentional: unknown IsIndexedRead values are dropped, not an error
			scenario: "unknown flags are skipped",
			given: []model.ReadDescriptor{
				{Number: 1, Cycles: 151, Indexed: model.IndexedNo},
				{Number: 2, Cycles: 9, Indexed: "y"},
				{Number: 3, Cycles: 9, Indexed: ""},
				{Number: 4, Cycles: 151, Indexed: model.IndexedNo},
			},
			then: "y150n,y150n",
		},
		{
			scenario: "no reads",
			given:    nil,
			then:     "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.then, mask.Generate(tc.given))
		})
	}
}

func TestTokenCount(t *testing.T) {
	t.Parallel()
	flags := []model.IndexFlag{"Y", "N", "X", "", "n", "YES"}
	var reads []model.ReadDescriptor
	recognized := 0
	for i := range 60 {
		flag := flags[i%len(flags)]
		if flag == model.IndexedYes || flag == model.IndexedNo {
			recognized++
		}
		reads = append(reads, model.ReadDescriptor{Number: i + 1, Cycles: 2 + i, Indexed: flag})

		tokens := mask.Tokens(reads)
		require.Len(t, tokens, recognized)
		generated := mask.Generate(reads)
		if recognized == 0 {
			require.Empty(t, generated)
			continue
		}
		require.Len(t, strings.Split(generated, ","), recognized)
	}
}
