package scanlog

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huymai96/package-confirmation-app/pkg/models"
)

func TestAppend_WritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scans.csv")
	a := NewAppender(path)

	scannedAt := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	require.NoError(t, a.Append(models.ScanRecord{
		Tracking:  "1Z999AA10123456784",
		PO:        "8001234B",
		Customer:  "Acme Shirts",
		Source:    "sanmar",
		ScannedAt: scannedAt,
	}))
	require.NoError(t, a.Append(models.ScanRecord{
		Tracking:  "961129812345678912",
		PO:        "8000002",
		Customer:  "Fresh, Co",
		Source:    "inbound",
		ScannedAt: scannedAt,
	}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"timestamp", "tracking", "po", "customer", "source"}, rows[0])
	assert.Equal(t, []string{"2024-06-01T12:30:00Z", "1Z999AA10123456784", "8001234B", "Acme Shirts", "sanmar"}, rows[1])
	assert.Equal(t, "Fresh, Co", rows[2][3])
}

func TestAppend_DefaultsTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scans.csv")
	a := NewAppender(path)

	require.NoError(t, a.Append(models.ScanRecord{Tracking: "A12345"}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	parsed, err := time.Parse(time.RFC3339, rows[1][0])
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), parsed, time.Minute)
}
