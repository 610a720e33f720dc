package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	localerrors "github.com/jkrishnancp/phishing-report-app/internal/errors"
)

func TestFromFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		year     int
		month    time.Month
	}{
		{"dashed numeric", "phishing-2025-03.csv", 2025, time.March},
		{"underscored numeric", "proofpoint_export_2025_11.csv", 2025, time.November},
		{"compact numeric", "export_202503.csv", 2025, time.March},
		{"month before year", "Reported Emails March 2025.xlsx", 2025, time.March},
		{"year before month", "2025 March reported.xlsx", 2025, time.March},
		{"abbreviated month", "clicks_Sep_2024.csv", 2024, time.September},
		{"sept abbreviation", "clicks_Sept_2024.csv", 2024, time.September},
		{"mixed case", "PHISHING-JAN-2026.CSV", 2026, time.January},
		{"underscore separated name", "Phishing_Report_December_2024.xlsx", 2024, time.December},
		{"numeric month before year", "03-2025-campaign.csv", 2025, time.March},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromFilename(tt.filename)
			require.NoError(t, err)
			assert.Equal(t, tt.year, got.Year())
			assert.Equal(t, tt.month, got.Month())
			assert.Equal(t, 1, got.Day())
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestFromFilename_Unrecognized(t *testing.T) {
	for _, filename := range []string{
		"export.csv",
		"clicks_13_2025.csv",
		"report-1999-05.csv",
		"marchish 2025.csv",
		"",
	} {
		_, err := FromFilename(filename)
		assert.ErrorIs(t, err, localerrors.ErrUnrecognizedFilenamePattern, filename)
	}
}
