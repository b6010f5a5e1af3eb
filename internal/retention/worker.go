package retention

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/admin"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/location"
)

// AuditStore is the part of the admin repository the archiver uses.
type AuditStore interface {
	ListAuditLogsBefore(ctx context.Context, before time.Time, limit int) ([]*admin.AuditLog, error)
	DeleteAuditLogs(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// LocationStore is the part of the location repository the archiver uses.
type LocationStore interface {
	ListBefore(ctx context.Context, before time.Time, limit int) ([]location.LocationSafetyCheck, error)
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// ObjectStore receives JSONL archive batches. R2 in production.
type ObjectStore interface {
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error
}

// Config bounds the retention jobs
type Config struct {
	Interval        time.Duration
	DedupWindowDays int
	RetentionDays   int
	BatchSize       int
	ArchivePrefix   string
}

// Worker runs the retention jobs: the event-log dedup window prune and
// the append-only audit table archives. Rows are deleted only after
// their batch uploaded, so a dead object store stalls archival instead
// of losing records.
type Worker struct {
	db        *sqlx.DB
	audit     AuditStore
	locations LocationStore
	archive   ObjectStore
	cfg       Config
}

func NewWorker(db *sqlx.DB, audit AuditStore, locations LocationStore, archive ObjectStore, cfg Config) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.DedupWindowDays <= 0 {
		cfg.DedupWindowDays = 30
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 180
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.ArchivePrefix == "" {
		cfg.ArchivePrefix = "trust-archive"
	}
	return &Worker{
		db:        db,
		audit:     audit,
		locations: locations,
		archive:   archive,
		cfg:       cfg,
	}
}

// Start runs the jobs on a ticker until the context is cancelled. Runs
// once immediately on start.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Retention worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce executes every retention job once
func (w *Worker) RunOnce(ctx context.Context) {
	w.pruneEventLog(ctx)
	w.archiveAuditLogs(ctx)
	w.archiveLocationChecks(ctx)
}

// pruneEventLog drops dedup rows past the idempotency window. Replays
// older than the window apply again, which is acceptable: producers
// retry within hours, not months.
func (w *Worker) pruneEventLog(ctx context.Context) {
	if w.db == nil {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -w.cfg.DedupWindowDays)
	result, err := w.db.ExecContext(ctx, `
		DELETE FROM trust_event_log WHERE created_at < $1
	`, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prune trust event log")
		return
	}

	if rows, _ := result.RowsAffected(); rows > 0 {
		log.Info().
			Int64("deleted", rows).
			Int("window_days", w.cfg.DedupWindowDays).
			Msg("Pruned trust event log")
	}
}

func (w *Worker) archiveAuditLogs(ctx context.Context) {
	if w.audit == nil || w.archive == nil {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -w.cfg.RetentionDays)
	for {
		batch, err := w.audit.ListAuditLogsBefore(ctx, cutoff, w.cfg.BatchSize)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list audit logs for archival")
			return
		}
		if len(batch) == 0 {
			return
		}

		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		ids := make([]uuid.UUID, 0, len(batch))
		for _, entry := range batch {
			if err := enc.Encode(entry); err != nil {
				log.Error().Err(err).Str("entry_id", entry.ID.String()).Msg("Failed to encode audit entry")
				return
			}
			ids = append(ids, entry.ID)
		}

		key := archiveKey(w.cfg.ArchivePrefix, "admin-audit", batch[0].CreatedAt, batch[0].ID)
		if err := w.archive.Put(ctx, key, &buf, "application/x-ndjson"); err != nil {
			log.Error().Err(err).Str("key", key).Msg("Audit archive upload failed, rows kept")
			return
		}

		deleted, err := w.audit.DeleteAuditLogs(ctx, ids)
		if err != nil || deleted == 0 {
			log.Error().Err(err).Str("key", key).Msg("Failed to delete archived audit logs")
			return
		}

		log.Info().Int64("archived", deleted).Str("key", key).Msg("Archived audit logs")

		if len(batch) < w.cfg.BatchSize {
			return
		}
	}
}

func (w *Worker) archiveLocationChecks(ctx context.Context) {
	if w.locations == nil || w.archive == nil {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -w.cfg.RetentionDays)
	for {
		batch, err := w.locations.ListBefore(ctx, cutoff, w.cfg.BatchSize)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list location checks for archival")
			return
		}
		if len(batch) == 0 {
			return
		}

		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		ids := make([]uuid.UUID, 0, len(batch))
		for i := range batch {
			if err := enc.Encode(&batch[i]); err != nil {
				log.Error().Err(err).Str("check_id", batch[i].ID.String()).Msg("Failed to encode location check")
				return
			}
			ids = append(ids, batch[i].ID)
		}

		key := archiveKey(w.cfg.ArchivePrefix, "location-checks", batch[0].CreatedAt, batch[0].ID)
		if err := w.archive.Put(ctx, key, &buf, "application/x-ndjson"); err != nil {
			log.Error().Err(err).Str("key", key).Msg("Location archive upload failed, rows kept")
			return
		}

		deleted, err := w.locations.DeleteByIDs(ctx, ids)
		if err != nil || deleted == 0 {
			log.Error().Err(err).Str("key", key).Msg("Failed to delete archived location checks")
			return
		}

		log.Info().Int64("archived", deleted).Str("key", key).Msg("Archived location checks")

		if len(batch) < w.cfg.BatchSize {
			return
		}
	}
}

// archiveKey builds a bucket key partitioned by the oldest row's day,
// unique per batch via the leading row id.
func archiveKey(prefix, source string, oldest time.Time, first uuid.UUID) string {
	return fmt.Sprintf("%s/%s/%s/%s.jsonl",
		strings.Trim(prefix, "/"), source, oldest.UTC().Format("2006/01/02"), first)
}
