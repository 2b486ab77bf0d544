// Package builder orchestrates one full index build: list the store,
// sweep corrupted uploads, parse and extract every manifest, merge and
// enrich, publish the index, and rebuild the combined masters.
package builder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	appcontext "github.com/huymai96/package-confirmation-app/pkg/context"
	"github.com/huymai96/package-confirmation-app/pkg/events"
	"github.com/huymai96/package-confirmation-app/pkg/extract"
	"github.com/huymai96/package-confirmation-app/pkg/index"
	"github.com/huymai96/package-confirmation-app/pkg/manifest"
	"github.com/huymai96/package-confirmation-app/pkg/models"
	"github.com/huymai96/package-confirmation-app/pkg/orderstatus"
	"github.com/huymai96/package-confirmation-app/pkg/projection"
	"github.com/huymai96/package-confirmation-app/pkg/tracing"
)

// MinManifestBytes is the smallest plausible S&S workbook. Anything
// smaller is a truncated upload and gets deleted before the build reads it.
const MinManifestBytes = 1000

// backupFilename is the local JSON copy of the last published index.
const backupFilename = "tracking_index.json"

// Store is the slice of the manifest store API the build needs.
type Store interface {
	List(ctx context.Context) ([]models.ManifestFile, error)
	Fetch(ctx context.Context, file models.ManifestFile) ([]byte, error)
	Upload(ctx context.Context, sourceType models.SourceType, filename string, data []byte) error
	Delete(ctx context.Context, file models.ManifestFile) error
	PublishIndex(ctx context.Context, idx models.TrackingIndex) error
}

// Config holds build tuning.
type Config struct {
	// BackupDir receives a local JSON copy of every published index.
	// Empty disables the backup.
	BackupDir string

	// WindowDays is the rolling window the combined masters cover.
	WindowDays int

	// RebuildMasters controls whether the build re-projects and re-uploads
	// the per-source combined manifests after publishing.
	RebuildMasters bool
}

// Builder runs batch index builds against the manifest store.
type Builder struct {
	store     Store
	extractor *extract.Extractor
	orders    *orderstatus.Builder
	merger    *index.Merger
	projector *projection.Projector
	emitter   *events.Emitter
	logger    ectologger.Logger
	config    Config
}

func New(store Store, emitter *events.Emitter, logger ectologger.Logger, config Config) *Builder {
	return &Builder{
		store:     store,
		extractor: extract.New(logger),
		orders:    orderstatus.NewBuilder(logger),
		merger:    index.NewMerger(logger),
		projector: projection.NewProjector(logger, config.WindowDays),
		emitter:   emitter,
		logger:    logger,
		config:    config,
	}
}

// Run executes one full build. Per-file failures are isolated into the
// report; the build only errors when the store itself is unreachable or
// the publish fails.
func (b *Builder) Run(ctx context.Context) (*models.BuildReport, error) {
	report := &models.BuildReport{
		BuildID:   uuid.NewString(),
		Counts:    make(map[models.SourceType]int),
		StartedAt: time.Now().UTC(),
	}
	ctx = appcontext.SetBuildID(ctx, report.BuildID)

	ctx, span := tracing.StartSpan(ctx, "builder.Builder.Run")
	defer span.End()
	tracing.AddAttribute(ctx, "build_id", report.BuildID)

	b.logger.WithContext(ctx).WithFields(map[string]any{
		"build_id": report.BuildID,
	}).Info("starting index build")

	files, err := b.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list manifests: %w", err)
	}

	files = b.sweepCorrupted(ctx, files)
	files = index.SortBatches(files)

	orders := make(models.OrderStatusTable)
	batches := make([][]*models.TrackingEntry, 0, len(files))
	sourceTables := make(map[models.SourceType][]*manifest.Table)

	for _, file := range files {
		table, err := b.loadTable(ctx, file)
		if err != nil {
			report.Failures = append(report.Failures, models.FileFailure{
				Filename: file.Filename,
				Reason:   err.Error(),
			})
			b.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"filename": file.Filename,
				"type":     file.SourceType,
			}).Warn("skipping unreadable manifest")
			continue
		}
		report.FilesOK++

		if file.SourceType == models.SourceCustomInk {
			for digits, record := range b.orders.BuildFromTable(ctx, file.Filename, table) {
				orders[digits] = record
			}
		}

		batches = append(batches, b.extractor.ExtractTable(ctx, file, table))

		base := file.SourceType.Base()
		if base == models.SourceSanmar || base == models.SourceSS {
			sourceTables[base] = append(sourceTables[base], table)
		}
	}

	merged := b.merger.Merge(ctx, batches, orders)

	report.FilesFailed = len(report.Failures)
	report.OrderRecords = len(orders)
	report.Total = len(merged)
	for _, entry := range merged {
		report.Counts[entry.SourceType]++
	}

	if err := b.store.PublishIndex(ctx, merged); err != nil {
		report.Duration = time.Since(report.StartedAt)
		return report, fmt.Errorf("publish index: %w", err)
	}
	report.Published = true

	if err := b.writeBackup(ctx, merged); err != nil {
		b.logger.WithContext(ctx).WithError(err).Warn("failed to write local index backup")
	}

	if b.config.RebuildMasters {
		b.rebuildMasters(ctx, files, sourceTables)
	}

	report.Duration = time.Since(report.StartedAt)

	if b.emitter != nil {
		if err := b.emitter.EmitIndexPublished(ctx, report); err != nil {
			b.logger.WithContext(ctx).WithError(err).Warn("failed to emit build event")
		}
	}

	b.logger.WithContext(ctx).WithFields(map[string]any{
		"build_id":     report.BuildID,
		"entries":      report.Total,
		"files_ok":     report.FilesOK,
		"files_failed": report.FilesFailed,
		"orders":       report.OrderRecords,
		"duration":     report.Duration.String(),
	}).Info("index build complete")

	return report, nil
}

// sweepCorrupted deletes truncated S&S uploads from the store and returns
// the remaining files. A failed delete keeps the file out of this build
// but leaves it in the store for the next sweep.
func (b *Builder) sweepCorrupted(ctx context.Context, files []models.ManifestFile) []models.ManifestFile {
	kept := files[:0]
	for _, file := range files {
		if file.SourceType.Base() == models.SourceSS && file.Size > 0 && file.Size < MinManifestBytes {
			b.logger.WithContext(ctx).WithFields(map[string]any{
				"filename": file.Filename,
				"size":     file.Size,
			}).Warn("deleting truncated manifest")
			if err := b.store.Delete(ctx, file); err != nil {
				b.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
					"filename": file.Filename,
				}).Error("failed to delete truncated manifest")
			}
			continue
		}
		kept = append(kept, file)
	}
	return kept
}

func (b *Builder) loadTable(ctx context.Context, file models.ManifestFile) (*manifest.Table, error) {
	data, err := b.store.Fetch(ctx, file)
	if err != nil {
		return nil, err
	}
	return manifest.ReadTable(file.Filename, data, file.SourceType)
}

// writeBackup drops a JSON copy of the published index next to the
// indexer so lookups survive a store outage.
func (b *Builder) writeBackup(ctx context.Context, idx models.TrackingIndex) error {
	if b.config.BackupDir == "" {
		return nil
	}
	if err := os.MkdirAll(b.config.BackupDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(b.config.BackupDir, backupFilename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	b.logger.WithContext(ctx).WithFields(map[string]any{
		"path":    path,
		"entries": len(idx),
	}).Info("wrote local index backup")
	return nil
}

// rebuildMasters re-projects each base source's tables into a fresh
// combined workbook and replaces the store's copy in two phases: upload
// the new master under a timestamped name first, then delete the prior
// ones, so lookups never hit a window with no master at all. Master
// failures never fail the build; the index is already published.
func (b *Builder) rebuildMasters(ctx context.Context, files []models.ManifestFile, sourceTables map[models.SourceType][]*manifest.Table) {
	combined := map[models.SourceType]models.SourceType{
		models.SourceSanmar: models.SourceSanmarCombined,
		models.SourceSS:     models.SourceSSCombined,
	}

	for base, combinedType := range combined {
		tables := sourceTables[base]
		if len(tables) == 0 {
			continue
		}

		master := b.projector.Project(ctx, base, tables)
		if master == nil || len(master.Rows) == 0 {
			continue
		}

		data, err := projection.EncodeWorkbook(combinedType, master)
		if err != nil {
			b.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"type": combinedType,
			}).Error("failed to encode combined master")
			continue
		}

		filename := fmt.Sprintf("%s_%s.xlsx", combinedType, time.Now().UTC().Format("20060102T150405"))
		if err := b.store.Upload(ctx, combinedType, filename, data); err != nil {
			b.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"filename": filename,
			}).Error("failed to upload combined master, keeping previous one")
			continue
		}

		for _, file := range files {
			if file.SourceType != combinedType {
				continue
			}
			if err := b.store.Delete(ctx, file); err != nil {
				b.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
					"filename": file.Filename,
				}).Error("failed to delete stale combined master")
			}
		}

		b.logger.WithContext(ctx).WithFields(map[string]any{
			"type":     combinedType,
			"filename": filename,
			"rows":     len(master.Rows),
		}).Info("rebuilt combined master")
	}
}
