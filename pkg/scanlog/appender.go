// Package scanlog appends scan events to a local CSV file, the same
// format the warehouse has always kept next to the scan station.
package scanlog

import (
	"encoding/csv"
	"os"
	"sync"
	"time"

	"github.com/huymai96/package-confirmation-app/pkg/models"
)

var header = []string{"timestamp", "tracking", "po", "customer", "source"}

// Appender is a concurrency-safe append-only CSV sink. The header row is
// written once when the file is created.
type Appender struct {
	mu   sync.Mutex
	path string
}

func NewAppender(path string) *Appender {
	return &Appender{path: path}
}

// Append writes one scan record. The file stays closed between appends so
// external log rotation works.
func (a *Appender) Append(record models.ScanRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	info, statErr := os.Stat(a.path)
	writeHeader := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(header); err != nil {
			return err
		}
	}

	scannedAt := record.ScannedAt
	if scannedAt.IsZero() {
		scannedAt = time.Now().UTC()
	}

	if err := w.Write([]string{
		scannedAt.UTC().Format(time.RFC3339),
		record.Tracking,
		record.PO,
		record.Customer,
		record.Source,
	}); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}
