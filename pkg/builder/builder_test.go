package builder

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huymai96/package-confirmation-app/pkg/manifest"
	"github.com/huymai96/package-confirmation-app/pkg/models"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type fakeStore struct {
	files      []models.ManifestFile
	content    map[string][]byte
	fetchErr   map[string]error
	publishErr error

	published models.TrackingIndex
	deleted   []string
	uploads   map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		content:  make(map[string][]byte),
		fetchErr: make(map[string]error),
		uploads:  make(map[string][]byte),
	}
}

func (f *fakeStore) add(filename string, sourceType models.SourceType, data []byte) {
	url := "mem://" + filename
	f.files = append(f.files, models.ManifestFile{
		Filename:   filename,
		SourceType: sourceType,
		URL:        url,
		Size:       int64(len(data)),
	})
	f.content[url] = data
}

func (f *fakeStore) List(_ context.Context) ([]models.ManifestFile, error) {
	return append([]models.ManifestFile(nil), f.files...), nil
}

func (f *fakeStore) Fetch(_ context.Context, file models.ManifestFile) ([]byte, error) {
	if err := f.fetchErr[file.Filename]; err != nil {
		return nil, err
	}
	return f.content[file.URL], nil
}

func (f *fakeStore) Upload(_ context.Context, _ models.SourceType, filename string, data []byte) error {
	f.uploads[filename] = data
	return nil
}

func (f *fakeStore) Delete(_ context.Context, file models.ManifestFile) error {
	f.deleted = append(f.deleted, file.Filename)
	return nil
}

func (f *fakeStore) PublishIndex(_ context.Context, idx models.TrackingIndex) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = idx
	return nil
}

var sanmarCSV = []byte("\"Tracking Number\",\"Customer PO\",\"Ship To\",\"Ship Date\"\n" +
	"\"1Z999AA10123456784\",\"8001234B\",\"Acme Shirts\",\"\"\n")

var custominkCSV = []byte("Order,Tracking,Due Date,Status,Vendor\n" +
	"8001234B,961129812345678912,2024-06-01,On Hold - payment,Screen Print\n")

func TestRun_BuildsAndPublishes(t *testing.T) {
	store := newFakeStore()
	store.add("sanmar_0601.csv", models.SourceSanmar, sanmarCSV)
	store.add("orders.csv", models.SourceCustomInk, custominkCSV)

	report, err := New(store, nil, testLogger(), Config{}).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Published)
	assert.NotEmpty(t, report.BuildID)
	assert.Equal(t, 2, report.FilesOK)
	assert.Zero(t, report.FilesFailed)
	assert.Equal(t, 1, report.OrderRecords)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Counts[models.SourceSanmar])
	assert.Equal(t, 1, report.Counts[models.SourceCustomInk])

	entry, ok := store.published["1Z999AA10123456784"]
	require.True(t, ok)
	assert.Equal(t, "8001234B", entry.PurchaseOrder)
	assert.Equal(t, "Screen Print", entry.Department)
	assert.Equal(t, "Sat, Jun 01", entry.DueDate)
	assert.Equal(t, models.PipelineFlagOnHold, entry.PipelineFlag)
}

func TestRun_CombinedOverlaidByDailyFile(t *testing.T) {
	store := newFakeStore()
	// Listed after the daily file, but combined masters sort first so the
	// daily row wins.
	store.add("sanmar_0601.csv", models.SourceSanmar, []byte(
		"\"Tracking\",\"PO\",\"Customer\"\n\"1Z55544433F99912\",\"8000002\",\"Fresh Co\"\n"))
	store.add("sanmar_combined.csv", models.SourceSanmarCombined, []byte(
		"\"Tracking\",\"PO\",\"Customer\"\n\"1Z55544433F99912\",\"8000001\",\"Stale Co\"\n"))

	report, err := New(store, nil, testLogger(), Config{}).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Total)

	entry := store.published["1Z55544433F99912"]
	require.NotNil(t, entry)
	assert.Equal(t, "8000002", entry.PurchaseOrder)
	assert.Equal(t, "Fresh Co", entry.CustomerOrShipper)
}

func TestRun_SweepsTruncatedSSUploads(t *testing.T) {
	store := newFakeStore()
	store.add("s&s_bad.xlsx", models.SourceSS, []byte("tiny"))
	store.add("sanmar_0601.csv", models.SourceSanmar, sanmarCSV)

	report, err := New(store, nil, testLogger(), Config{}).Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, store.deleted, "s&s_bad.xlsx")
	assert.Equal(t, 1, report.FilesOK)
	assert.Empty(t, report.Failures)
}

func TestRun_FileFailureIsIsolated(t *testing.T) {
	store := newFakeStore()
	store.add("sanmar_bad.csv", models.SourceSanmar, nil)
	store.fetchErr["sanmar_bad.csv"] = errors.New("blob gone")
	store.add("sanmar_0601.csv", models.SourceSanmar, sanmarCSV)

	report, err := New(store, nil, testLogger(), Config{}).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Published)
	assert.Equal(t, 1, report.FilesOK)
	assert.Equal(t, 1, report.FilesFailed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "sanmar_bad.csv", report.Failures[0].Filename)
	assert.Contains(t, report.Failures[0].Reason, "blob gone")
}

func TestRun_PublishErrorReturnsReport(t *testing.T) {
	store := newFakeStore()
	store.add("sanmar_0601.csv", models.SourceSanmar, sanmarCSV)
	store.publishErr = errors.New("store down")

	report, err := New(store, nil, testLogger(), Config{}).Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, report)
	assert.False(t, report.Published)
	assert.Equal(t, 1, report.Total)
}

func TestRun_WritesLocalBackup(t *testing.T) {
	store := newFakeStore()
	store.add("sanmar_0601.csv", models.SourceSanmar, sanmarCSV)
	dir := t.TempDir()

	_, err := New(store, nil, testLogger(), Config{BackupDir: dir}).Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, backupFilename))
	require.NoError(t, err)

	var idx models.TrackingIndex
	require.NoError(t, json.Unmarshal(data, &idx))
	assert.Contains(t, idx, "1Z999AA10123456784")
}

func TestRun_RebuildsCombinedMasters(t *testing.T) {
	store := newFakeStore()
	store.add("sanmar_combined.csv", models.SourceSanmarCombined, []byte(
		"\"Tracking\",\"PO\",\"Customer\",\"Ship Date\"\n\"1Z55544433F99912\",\"8000001\",\"Acme\",\"\"\n"))
	store.add("sanmar_0601.csv", models.SourceSanmar, []byte(
		"\"Tracking\",\"PO\",\"Customer\",\"Ship Date\"\n\"1Z999AA10123456784\",\"8000002\",\"Fresh Co\",\"\"\n"))

	_, err := New(store, nil, testLogger(), Config{RebuildMasters: true}).Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, store.deleted, "sanmar_combined.csv")
	require.Len(t, store.uploads, 1)
	for filename, data := range store.uploads {
		assert.True(t, strings.HasPrefix(filename, "sanmar_combined_"))
		assert.True(t, strings.HasSuffix(filename, ".xlsx"))

		// The uploaded master must re-parse with the combined source's
		// header offset so the next build can read its own output.
		table, err := manifest.ReadTable(filename, data, models.SourceSanmarCombined)
		require.NoError(t, err)
		assert.Equal(t, []string{"Tracking", "PO", "Customer", "Ship Date"}, table.Headers)
		require.NotEmpty(t, table.Rows)
	}
}
