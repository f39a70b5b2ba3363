package mirror

import (
	"errors"
	"testing"

	"github.com/kindredhq/hearth/internal/wire"
)

func TestMergeFromRemoteCreatesSyncedCopy(t *testing.T) {
	remote := Record{
		EntityType:       wire.EntityTypeCountdown,
		ID:               "cd-1",
		AccountID:        "acct-1",
		PayloadJSON:      `{"id":"cd-1"}`,
		UpdatedAtSeconds: 100,
	}
	merged := MergeFromRemote(nil, remote)
	if !merged.IsSynced {
		t.Fatalf("pulled record should be synced")
	}
	if merged.PayloadJSON != remote.PayloadJSON {
		t.Fatalf("payload changed during merge")
	}
}

func TestMergeFromRemoteOverwritesLocalCopy(t *testing.T) {
	local := Record{
		EntityType:       wire.EntityTypeCountdown,
		ID:               "cd-1",
		PayloadJSON:      `{"title":"old"}`,
		UpdatedAtSeconds: 50,
		IsSynced:         false,
	}
	remote := Record{
		EntityType:       wire.EntityTypeCountdown,
		ID:               "cd-1",
		PayloadJSON:      `{"title":"new"}`,
		UpdatedAtSeconds: 100,
	}
	merged := MergeFromRemote(&local, remote)
	if merged.PayloadJSON != remote.PayloadJSON {
		t.Fatalf("pull should be authoritative, got %q", merged.PayloadJSON)
	}
	if !merged.IsSynced {
		t.Fatalf("merged record should be synced")
	}
}

func TestMergeFromRemoteTombstoneIsSticky(t *testing.T) {
	local := Record{
		EntityType:       wire.EntityTypeCountdown,
		ID:               "cd-1",
		PayloadJSON:      `{"title":"deleted locally"}`,
		UpdatedAtSeconds: 50,
		LocallyDeleted:   true,
	}
	remote := Record{
		EntityType:       wire.EntityTypeCountdown,
		ID:               "cd-1",
		PayloadJSON:      `{"title":"still on server"}`,
		UpdatedAtSeconds: 100,
	}
	merged := MergeFromRemote(&local, remote)
	if !merged.LocallyDeleted {
		t.Fatalf("local tombstone was resurrected by a pull")
	}
	if merged.PayloadJSON != local.PayloadJSON {
		t.Fatalf("tombstoned record took the remote payload")
	}
}

func TestNewLocalRecordValidatesIdentifiers(t *testing.T) {
	if _, err := NewLocalRecord(wire.EntityTypeCountdown, "", "acct-1", struct{}{}); !errors.Is(err, ErrInvalidRecordID) {
		t.Fatalf("expected ErrInvalidRecordID, got %v", err)
	}
	if _, err := NewLocalRecord(wire.EntityTypeCountdown, "cd-1", "  ", struct{}{}); !errors.Is(err, ErrInvalidAccountID) {
		t.Fatalf("expected ErrInvalidAccountID, got %v", err)
	}
}

func TestNeedsPush(t *testing.T) {
	if (Record{IsSynced: true}).NeedsPush() {
		t.Fatalf("synced live record should not need a push")
	}
	if !(Record{IsSynced: false}).NeedsPush() {
		t.Fatalf("dirty record should need a push")
	}
	if !(Record{IsSynced: true, LocallyDeleted: true}).NeedsPush() {
		t.Fatalf("tombstone should need a push")
	}
}
