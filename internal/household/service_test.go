package household

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/kindredhq/hearth/internal/wire"
)

type sequentialIDs struct {
	next int
}

func (s *sequentialIDs) NewID() (string, error) {
	s.next++
	return fmt.Sprintf("change-%d", s.next), nil
}

func mustService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:household_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	service, err := NewService(ServiceConfig{
		Database:   db,
		Clock:      func() time.Time { return time.Unix(5000, 0).UTC() },
		IDProvider: &sequentialIDs{},
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return service, db
}

func TestApplyChangesPersistsAcceptedWrites(t *testing.T) {
	service, db := mustService(t)
	ctx := context.Background()

	result, err := service.ApplyChanges(ctx, "acct-1", []ChangeRequest{
		change("cd-1", 100, OperationTypeUpsert, `{"title":"Trip"}`),
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(result.ChangeOutcomes) != 1 || !result.ChangeOutcomes[0].Outcome.Accepted {
		t.Fatalf("unexpected outcomes: %+v", result.ChangeOutcomes)
	}

	var stored Record
	if err := db.Where("account_id = ? AND record_id = ?", "acct-1", "cd-1").Take(&stored).Error; err != nil {
		t.Fatalf("load record: %v", err)
	}
	if stored.PayloadJSON != `{"title":"Trip"}` || stored.Version != 1 {
		t.Fatalf("unexpected stored record: %+v", stored)
	}

	var audits []RecordChange
	if err := db.Find(&audits).Error; err != nil {
		t.Fatalf("load audits: %v", err)
	}
	if len(audits) != 1 || audits[0].ChangeID != "change-1" {
		t.Fatalf("expected one audit row, got %+v", audits)
	}
}

func TestApplyChangesRejectsStaleWriteWithoutAudit(t *testing.T) {
	service, db := mustService(t)
	ctx := context.Background()

	if _, err := service.ApplyChanges(ctx, "acct-1", []ChangeRequest{
		change("cd-1", 200, OperationTypeUpsert, `{"title":"current"}`),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	result, err := service.ApplyChanges(ctx, "acct-1", []ChangeRequest{
		change("cd-1", 100, OperationTypeUpsert, `{"title":"stale"}`),
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	outcome := result.ChangeOutcomes[0].Outcome
	if outcome.Accepted {
		t.Fatalf("stale write should be rejected")
	}
	if outcome.UpdatedRecord.PayloadJSON != `{"title":"current"}` {
		t.Fatalf("rejection should echo the server copy: %+v", outcome.UpdatedRecord)
	}

	var auditCount int64
	if err := db.Model(&RecordChange{}).Count(&auditCount).Error; err != nil {
		t.Fatalf("count audits: %v", err)
	}
	if auditCount != 1 {
		t.Fatalf("rejected writes must not append audit rows, got %d", auditCount)
	}
}

func TestApplyChangesRejectsUnknownEntityType(t *testing.T) {
	service, _ := mustService(t)
	bad := change("cd-1", 100, OperationTypeUpsert, `{}`)
	bad.EntityType = "gadgets"
	if _, err := service.ApplyChanges(context.Background(), "acct-1", []ChangeRequest{bad}); err == nil {
		t.Fatalf("expected error for unknown entity type")
	}
}

func TestSnapshotIncludesDeletionMarkers(t *testing.T) {
	service, _ := mustService(t)
	ctx := context.Background()

	if _, err := service.ApplyChanges(ctx, "acct-1", []ChangeRequest{
		change("cd-1", 100, OperationTypeUpsert, `{"title":"keep"}`),
		change("cd-2", 110, OperationTypeUpsert, `{"title":"drop"}`),
		change("cd-2", 120, OperationTypeDelete, ""),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	records, err := service.Snapshot(ctx, "acct-1", wire.EntityTypeCountdown)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected both records in snapshot, got %d", len(records))
	}
	if records[0].RecordID != "cd-1" || records[1].RecordID != "cd-2" {
		t.Fatalf("snapshot not ordered by update time: %+v", records)
	}
	if !records[1].IsDeleted {
		t.Fatalf("deleted record should carry its marker")
	}
}

func TestSnapshotIsScopedToAccount(t *testing.T) {
	service, _ := mustService(t)
	ctx := context.Background()

	if _, err := service.ApplyChanges(ctx, "acct-1", []ChangeRequest{
		change("cd-1", 100, OperationTypeUpsert, `{"title":"mine"}`),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	records, err := service.Snapshot(ctx, "acct-2", wire.EntityTypeCountdown)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("foreign account saw %d records", len(records))
	}
}

func TestListChangesSinceFiltersAndOrders(t *testing.T) {
	service, _ := mustService(t)
	ctx := context.Background()

	if _, err := service.ApplyChanges(ctx, "acct-1", []ChangeRequest{
		change("cd-1", 100, OperationTypeUpsert, `{"v":1}`),
		change("cd-1", 200, OperationTypeUpsert, `{"v":2}`),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	changes, err := service.ListChanges(ctx, "acct-1", 0)
	if err != nil {
		t.Fatalf("list changes: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("expected 2 audit rows, got %d", len(changes))
	}
}
