package retention

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/admin"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub004/internal/domain/location"
)

type fakeAuditStore struct {
	mu      sync.Mutex
	entries []*admin.AuditLog
	listErr error
}

func (f *fakeAuditStore) ListAuditLogsBefore(_ context.Context, before time.Time, limit int) ([]*admin.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []*admin.AuditLog{}
	for _, e := range f.entries {
		if e.CreatedAt.Before(before) {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeAuditStore) DeleteAuditLogs(_ context.Context, ids []uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	drop := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := f.entries[:0]
	var deleted int64
	for _, e := range f.entries {
		if drop[e.ID] {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return deleted, nil
}

type fakeLocationStore struct {
	mu     sync.Mutex
	checks []location.LocationSafetyCheck
}

func (f *fakeLocationStore) ListBefore(_ context.Context, before time.Time, limit int) ([]location.LocationSafetyCheck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []location.LocationSafetyCheck{}
	for _, c := range f.checks {
		if c.CreatedAt.Before(before) {
			out = append(out, c)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeLocationStore) DeleteByIDs(_ context.Context, ids []uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	drop := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := f.checks[:0]
	var deleted int64
	for _, c := range f.checks {
		if drop[c.ID] {
			deleted++
			continue
		}
		kept = append(kept, c)
	}
	f.checks = kept
	return deleted, nil
}

type fakeObjectStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	failWith error
}

func (f *fakeObjectStore) Put(_ context.Context, key string, reader io.Reader, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[key] = data
	return nil
}

func oldAuditEntry(ageDays int) *admin.AuditLog {
	return &admin.AuditLog{
		ID:         uuid.New(),
		AdminEmail: "staff@avalo.app",
		Action:     "trust.risk_override",
		EntityType: "user",
		CreatedAt:  time.Now().AddDate(0, 0, -ageDays),
	}
}

func oldLocationCheck(ageDays int) location.LocationSafetyCheck {
	return location.LocationSafetyCheck{
		ID:          uuid.New(),
		RequestedBy: uuid.New(),
		Latitude:    43.238949,
		Longitude:   76.889709,
		RiskLevel:   location.TierSafe,
		CreatedAt:   time.Now().AddDate(0, 0, -ageDays),
	}
}

func TestRunOnceArchivesOldAuditLogs(t *testing.T) {
	audit := &fakeAuditStore{entries: []*admin.AuditLog{
		oldAuditEntry(400),
		oldAuditEntry(300),
		oldAuditEntry(200),
		oldAuditEntry(1), // inside retention, must stay
	}}
	archive := &fakeObjectStore{}

	w := NewWorker(nil, audit, &fakeLocationStore{}, archive, Config{
		RetentionDays: 180,
		BatchSize:     2,
	})
	w.RunOnce(context.Background())

	if len(audit.entries) != 1 {
		t.Fatalf("expected one fresh entry kept, got %d", len(audit.entries))
	}
	if len(archive.objects) != 2 {
		t.Fatalf("expected two archive batches, got %d", len(archive.objects))
	}

	lines := 0
	for key, data := range archive.objects {
		if !strings.HasPrefix(key, "trust-archive/admin-audit/") || !strings.HasSuffix(key, ".jsonl") {
			t.Fatalf("unexpected archive key %q", key)
		}
		for _, line := range bytes.Split(bytes.TrimSpace(data), []byte("\n")) {
			var entry admin.AuditLog
			if err := json.Unmarshal(line, &entry); err != nil {
				t.Fatalf("archive line not valid JSON: %v", err)
			}
			if entry.Action != "trust.risk_override" {
				t.Fatalf("unexpected archived entry: %+v", entry)
			}
			lines++
		}
	}
	if lines != 3 {
		t.Fatalf("expected 3 archived entries across batches, got %d", lines)
	}
}

func TestArchiveKeepsRowsWhenUploadFails(t *testing.T) {
	audit := &fakeAuditStore{entries: []*admin.AuditLog{oldAuditEntry(300)}}
	archive := &fakeObjectStore{failWith: errors.New("bucket unreachable")}

	w := NewWorker(nil, audit, &fakeLocationStore{}, archive, Config{RetentionDays: 180})
	w.RunOnce(context.Background())

	if len(audit.entries) != 1 {
		t.Fatalf("expected rows kept after failed upload, got %d", len(audit.entries))
	}
}

func TestArchiveStopsOnListError(t *testing.T) {
	audit := &fakeAuditStore{listErr: errors.New("connection refused")}
	archive := &fakeObjectStore{}

	w := NewWorker(nil, audit, &fakeLocationStore{}, archive, Config{})
	w.RunOnce(context.Background())

	if len(archive.objects) != 0 {
		t.Fatalf("expected no uploads, got %d", len(archive.objects))
	}
}

func TestRunOnceArchivesLocationChecks(t *testing.T) {
	locs := &fakeLocationStore{checks: []location.LocationSafetyCheck{
		oldLocationCheck(200),
		oldLocationCheck(5), // inside retention, must stay
	}}
	archive := &fakeObjectStore{}

	w := NewWorker(nil, &fakeAuditStore{}, locs, archive, Config{RetentionDays: 180})
	w.RunOnce(context.Background())

	if len(locs.checks) != 1 {
		t.Fatalf("expected one fresh check kept, got %d", len(locs.checks))
	}
	if len(archive.objects) != 1 {
		t.Fatalf("expected one archive batch, got %d", len(archive.objects))
	}
	for key, data := range archive.objects {
		if !strings.HasPrefix(key, "trust-archive/location-checks/") {
			t.Fatalf("unexpected archive key %q", key)
		}
		var check location.LocationSafetyCheck
		if err := json.Unmarshal(bytes.TrimSpace(data), &check); err != nil {
			t.Fatalf("archive line not valid JSON: %v", err)
		}
		if check.RiskLevel != location.TierSafe {
			t.Fatalf("unexpected archived check: %+v", check)
		}
	}
}
