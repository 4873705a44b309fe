package audit

import (
	"context"
	"errors"
	"path"
	"time"

	"realestate_ai_backend/platform/logger"
)

const defaultArchiveInterval = time.Hour

// Archiver copies the current trails to object storage under
// audit/<date>/<file>. Each run overwrites that day's copy.
type Archiver struct {
	log      *Log
	store    ObjectStore
	bucket   string
	interval time.Duration
	logger   *logger.Logger
	now      func() time.Time
}

func NewArchiver(auditLog *Log, store ObjectStore, bucket string, interval time.Duration, log *logger.Logger) *Archiver {
	if interval <= 0 {
		interval = defaultArchiveInterval
	}
	return &Archiver{log: auditLog, store: store, bucket: bucket, interval: interval, logger: log, now: time.Now}
}

func (a *Archiver) Run(ctx context.Context) {
	if a == nil || a.store == nil {
		return
	}

	if err := a.store.EnsureBucketExists(ctx, a.bucket); err != nil {
		a.logger.Warn("audit archive: bucket check failed", "bucket", a.bucket, "error", err)
	}
	a.archive(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.archive(ctx)
		}
	}
}

func (a *Archiver) archive(ctx context.Context) {
	uploaded, err := a.ArchiveOnce(ctx)
	if err != nil {
		a.logger.Warn("audit archive failed", "error", err)
	}
	if uploaded > 0 {
		a.logger.Info("audit archive uploaded trails", "files", uploaded)
	}
}

// ArchiveOnce uploads every non-empty trail and returns how many were sent.
func (a *Archiver) ArchiveOnce(ctx context.Context) (int, error) {
	day := a.now().UTC().Format("2006-01-02")

	var errs []error
	uploaded := 0
	for _, name := range Files {
		data, err := a.log.Snapshot(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(data) == 0 {
			continue
		}
		if err := a.store.PutObject(ctx, a.bucket, path.Join("audit", day, name), "text/csv", data); err != nil {
			errs = append(errs, err)
			continue
		}
		uploaded++
	}
	return uploaded, errors.Join(errs...)
}
