package model_test

import (
	"testing"
	"time"

	"github.com/seahurt/bcl2fq-local/internal/model"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	t.Parallel()
	var testCases = []struct {
		given string
		then  time.Duration
	}{
		{"", 0},
		{"0", 0},
		{"90s", 90 * time.Second},
		{"1h30m", 90 * time.Minute},
		{"1d", 24 * time.Hour},
		{"2d3h4m5s", 51*time.Hour + 4*time.Minute + 5*time.Second},
	}
	for _, tc := range testCases {
		t.Run(tc.given, func(t *testing.T) {
			t.Parallel()
			got, err := model.ParseDuration(tc.given)
			require.NoError(t, err)
			require.Equal(t, tc.then, got)
		})
	}
}

func TestParseDuration_Fail(t *testing.T) {
	t.Parallel()
	for _, given := range []string{"soon", "1w", "-5s", "1h1d", "99999999999999d"} {
		t.Run(given, func(t *testing.T) {
			t.Parallel()
			_, err := model.ParseDuration(given)
			require.Error(t, err)
		})
	}
}
