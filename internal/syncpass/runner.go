// Package syncpass drives reconciliation between the device mirror and the
// household server. Each synced collection is processed as one sequential
// unit of work: push every outstanding local change, then apply the
// authoritative pull. The ordering is what keeps a pull from clobbering an
// unflushed local edit.
package syncpass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kindredhq/hearth/internal/client"
	"github.com/kindredhq/hearth/internal/mirror"
	"github.com/kindredhq/hearth/internal/wire"
)

var (
	errMissingStore  = errors.New("syncpass: mirror store is required")
	errMissingRemote = errors.New("syncpass: remote is required")
)

// Remote is the server surface one pass needs.
type Remote interface {
	Push(ctx context.Context, entityType wire.EntityType, operations []client.PushOperation) ([]client.PushResult, error)
	Pull(ctx context.Context, entityType wire.EntityType) ([]client.PullRecord, error)
}

// RefreshEvent announces that a collection changed during a pass. Done must
// be closed by the consumer once it has re-rendered, so the pass never
// outruns the view it is refreshing.
type RefreshEvent struct {
	EntityType wire.EntityType
	Done       chan struct{}
}

type Config struct {
	Store   *mirror.Store
	Remote  Remote
	Logger  *zap.Logger
	Clock   func() time.Time
	Refresh chan<- RefreshEvent
}

// Runner executes push-then-pull passes over every synced collection.
type Runner struct {
	store   *mirror.Store
	remote  Remote
	logger  *zap.Logger
	clock   func() time.Time
	refresh chan<- RefreshEvent
}

func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Store == nil {
		return nil, errMissingStore
	}
	if cfg.Remote == nil {
		return nil, errMissingRemote
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Runner{
		store:   cfg.Store,
		remote:  cfg.Remote,
		logger:  logger,
		clock:   clock,
		refresh: cfg.Refresh,
	}, nil
}

// EntityReport summarizes one collection's pass.
type EntityReport struct {
	EntityType wire.EntityType
	Pushed     int
	Accepted   int
	Pulled     int
	Err        error
}

// Report summarizes one full pass.
type Report struct {
	Entities []EntityReport
}

// Failed lists the collections whose pass ended early.
func (r Report) Failed() []EntityReport {
	var failed []EntityReport
	for _, entity := range r.Entities {
		if entity.Err != nil {
			failed = append(failed, entity)
		}
	}
	return failed
}

// RunPass syncs every collection in order. A transport failure ends the pass
// for that collection only and is reported, not returned; cancellation stops
// the whole pass immediately and is returned as the context's error.
func (r *Runner) RunPass(ctx context.Context) (Report, error) {
	report := Report{}
	for _, entityType := range wire.EntityTypes() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		entityReport := r.syncEntity(ctx, entityType)
		if entityReport.Err != nil {
			if errors.Is(entityReport.Err, context.Canceled) || errors.Is(entityReport.Err, context.DeadlineExceeded) {
				return report, entityReport.Err
			}
			r.logger.Warn("sync pass failed for collection",
				zap.String("entity_type", string(entityType)),
				zap.Error(entityReport.Err))
		}
		report.Entities = append(report.Entities, entityReport)
		if entityReport.Err == nil && (entityReport.Accepted > 0 || entityReport.Pulled > 0) {
			r.announceRefresh(ctx, entityType)
		}
	}
	return report, nil
}

func (r *Runner) syncEntity(ctx context.Context, entityType wire.EntityType) EntityReport {
	report := EntityReport{EntityType: entityType}

	pending, err := r.store.PendingPush(ctx, entityType)
	if err != nil {
		report.Err = err
		return report
	}
	report.Pushed = len(pending)

	if len(pending) > 0 {
		results, err := r.remote.Push(ctx, entityType, operationsFor(pending, r.clock))
		if err != nil {
			report.Err = fmt.Errorf("push: %w", err)
			return report
		}
		accepted, rejectedTombstones := splitResults(pending, results)
		report.Accepted = len(accepted)
		if err := r.store.AcknowledgePush(ctx, accepted); err != nil {
			report.Err = err
			return report
		}
		// A rejected tombstone means the record was re-edited elsewhere
		// after this device deleted it. The server copy wins; drop the
		// tombstone so the pull below restores the live record.
		for _, record := range rejectedTombstones {
			if err := r.store.PurgeRemote(ctx, entityType, record.ID); err != nil {
				report.Err = err
				return report
			}
		}
	}

	pulled, err := r.remote.Pull(ctx, entityType)
	if err != nil {
		report.Err = fmt.Errorf("pull: %w", err)
		return report
	}
	report.Pulled = len(pulled)

	var remotes []mirror.Record
	for _, record := range pulled {
		if record.IsDeleted {
			if err := r.store.PurgeRemote(ctx, entityType, record.RecordID); err != nil {
				report.Err = err
				return report
			}
			continue
		}
		remotes = append(remotes, mirror.Record{
			EntityType:       entityType,
			ID:               record.RecordID,
			PayloadJSON:      string(record.Payload),
			UpdatedAtSeconds: record.UpdatedAtSeconds,
		})
	}
	if err := r.store.ApplyRemote(ctx, remotes); err != nil {
		report.Err = err
		return report
	}
	return report
}

func operationsFor(pending []mirror.Record, clock func() time.Time) []client.PushOperation {
	now := clock().UTC().Unix()
	operations := make([]client.PushOperation, 0, len(pending))
	for _, record := range pending {
		operation := client.PushOperation{
			RecordID:          record.ID,
			Operation:         operationType(record),
			ClientTimeSeconds: now,
			UpdatedAtSeconds:  record.UpdatedAtSeconds,
		}
		if !record.LocallyDeleted {
			operation.Payload = json.RawMessage(record.PayloadJSON)
		}
		operations = append(operations, operation)
	}
	return operations
}

func operationType(record mirror.Record) string {
	if record.LocallyDeleted {
		return "delete"
	}
	return "upsert"
}

func splitResults(pending []mirror.Record, results []client.PushResult) (accepted, rejectedTombstones []mirror.Record) {
	byID := make(map[string]mirror.Record, len(pending))
	for _, record := range pending {
		byID[record.ID] = record
	}
	for _, result := range results {
		record, ok := byID[result.RecordID]
		if !ok {
			continue
		}
		if result.Accepted {
			accepted = append(accepted, record)
		} else if record.LocallyDeleted {
			rejectedTombstones = append(rejectedTombstones, record)
		}
	}
	return accepted, rejectedTombstones
}

func (r *Runner) announceRefresh(ctx context.Context, entityType wire.EntityType) {
	if r.refresh == nil {
		return
	}
	event := RefreshEvent{EntityType: entityType, Done: make(chan struct{})}
	select {
	case r.refresh <- event:
	case <-ctx.Done():
		return
	}
	select {
	case <-event.Done:
	case <-ctx.Done():
	}
}
