package outbound

import (
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/ChrisHK/system-monitor-sub001/internal/repository"
	custom_error "github.com/ChrisHK/system-monitor-sub001/pkg/errors"
	"github.com/ChrisHK/system-monitor-sub001/pkg/metadata"
	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
)

type OutboundRepository interface {
	EnsurePendingOutbound(tx *goqu.TxDatabase) (int, error)
	AssetInInventory(tx *goqu.TxDatabase, recordID int) (bool, error)
	QueueItem(tx *goqu.TxDatabase, outboundID, recordID int) error
	RemoveQueuedItem(tx *goqu.TxDatabase, recordID int) (outboundID int, affected int64, err error)
	QueuedAssets(tx *goqu.TxDatabase, outboundID int) ([]QueuedAsset, error)
	DropOutboundIfEmpty(tx *goqu.TxDatabase, outboundID int) error
	InsertStoreStock(tx *goqu.TxDatabase, storeID, recordID int) error
	ClearQueue(tx *goqu.TxDatabase, outboundID int) error
	CompleteOutbound(tx *goqu.TxDatabase, outboundID, storeID int, notes *string) error
	GetPendingOutbound() (*models.Outbound, []models.FlatOutboundItemRecord, error)
}

type outboundRepository struct {
	repo *repository.Repository
}

func NewRepository(r *repository.Repository) *outboundRepository {
	return &outboundRepository{repo: r}
}

// EnsurePendingOutbound returns the single pending outbound, creating it on
// first use. Only one pending outbound exists at a time.
func (r *outboundRepository) EnsurePendingOutbound(tx *goqu.TxDatabase) (int, error) {
	var outboundID int
	found, err := tx.From("outbound").
		Select("id").
		Where(goqu.Ex{"status": metadata.StatusPending.String()}).
		Order(goqu.C("id").Asc()).
		Limit(1).
		Executor().ScanVal(&outboundID)
	if err != nil {
		return 0, fmt.Errorf("failed to query pending outbound: %w", err)
	}
	if found {
		return outboundID, nil
	}

	found, err = tx.Insert("outbound").
		Rows(goqu.Record{"status": metadata.StatusPending.String()}).
		Returning("id").
		Executor().ScanVal(&outboundID)
	if err != nil {
		return 0, fmt.Errorf("failed to create pending outbound: %w", err)
	}
	if !found {
		return 0, fmt.Errorf("outbound insert returned no id")
	}
	return outboundID, nil
}

// AssetInInventory reports whether the asset's ledger row exists and no
// ownership table currently holds it.
func (r *outboundRepository) AssetInInventory(tx *goqu.TxDatabase, recordID int) (bool, error) {
	var exists bool
	_, err := tx.Select(goqu.COUNT("id").Gt(0)).
		From("system_records").
		Where(goqu.Ex{"id": recordID, "is_current": true}).
		Executor().ScanVal(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check asset ledger: %w", err)
	}
	if !exists {
		return false, custom_error.NewNotFoundError("asset", recordID)
	}

	probes := []*goqu.SelectDataset{
		tx.From("store_items").Select(goqu.L("1")).Where(goqu.Ex{"record_id": recordID}),
		tx.From("outbound_items").Select(goqu.L("1")).Where(goqu.Ex{"record_id": recordID}),
		tx.From("store_order_items").Select(goqu.L("1")).Where(
			goqu.C("record_id").Eq(recordID),
			goqu.C("is_deleted").IsFalse(),
		),
		tx.From("store_sales").Select(goqu.L("1")).Where(goqu.Ex{"record_id": recordID}),
		tx.From("store_rma").Select(goqu.L("1")).Where(goqu.Ex{"record_id": recordID}),
	}
	for _, probe := range probes {
		var one int
		found, err := probe.Executor().ScanVal(&one)
		if err != nil {
			return false, fmt.Errorf("failed to probe ownership tables: %w", err)
		}
		if found {
			return false, nil
		}
	}
	return true, nil
}

func (r *outboundRepository) QueueItem(tx *goqu.TxDatabase, outboundID, recordID int) error {
	_, err := tx.Insert("outbound_items").
		Rows(goqu.Record{"outbound_id": outboundID, "record_id": recordID}).
		Executor().Exec()
	if err != nil {
		return custom_error.WrapPQError(err, "failed to queue outbound item")
	}
	return nil
}

// RemoveQueuedItem pulls an asset out of the pending outbound queue and
// reports which outbound held it, so the caller can drop the queue container
// if it just became empty.
func (r *outboundRepository) RemoveQueuedItem(tx *goqu.TxDatabase, recordID int) (int, int64, error) {
	var outboundID int
	found, err := tx.From(goqu.T("outbound_items").As("i")).
		Select(goqu.I("i.outbound_id")).
		InnerJoin(
			goqu.T("outbound").As("o"),
			goqu.On(goqu.Ex{"i.outbound_id": goqu.I("o.id")}),
		).
		Where(
			goqu.I("i.record_id").Eq(recordID),
			goqu.I("o.status").Eq(metadata.StatusPending.String()),
		).
		Executor().ScanVal(&outboundID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to locate queued item: %w", err)
	}
	if !found {
		return 0, 0, nil
	}

	result, err := tx.Delete("outbound_items").
		Where(goqu.Ex{"outbound_id": outboundID, "record_id": recordID}).
		Executor().Exec()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to remove queued item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return outboundID, affected, nil
}

// QueuedAsset pairs a queued record with its ledger serial so the
// post-commit hooks can invalidate and notify per asset.
type QueuedAsset struct {
	RecordID int    `db:"record_id"`
	Serial   string `db:"serialnumber"`
}

func (r *outboundRepository) QueuedAssets(tx *goqu.TxDatabase, outboundID int) ([]QueuedAsset, error) {
	var items []QueuedAsset
	err := tx.
		Select(
			goqu.I("i.record_id").As("record_id"),
			goqu.I("a.serialnumber").As("serialnumber"),
		).
		From(goqu.T("outbound_items").As("i")).
		InnerJoin(
			goqu.T("system_records").As("a"),
			goqu.On(goqu.Ex{"i.record_id": goqu.I("a.id")}),
		).
		Where(goqu.I("i.outbound_id").Eq(outboundID)).
		Order(goqu.I("i.id").Asc()).
		Executor().ScanStructs(&items)
	if err != nil {
		return nil, fmt.Errorf("failed to list queued items: %w", err)
	}
	return items, nil
}

// DropOutboundIfEmpty deletes the pending outbound when its last item was
// removed. An empty pending queue has no reason to exist.
func (r *outboundRepository) DropOutboundIfEmpty(tx *goqu.TxDatabase, outboundID int) error {
	var remaining int
	_, err := tx.From("outbound_items").
		Select(goqu.COUNT("id")).
		Where(goqu.Ex{"outbound_id": outboundID}).
		Executor().ScanVal(&remaining)
	if err != nil {
		return fmt.Errorf("failed to count queued items: %w", err)
	}
	if remaining > 0 {
		return nil
	}

	_, err = tx.Delete("outbound").
		Where(goqu.Ex{"id": outboundID, "status": metadata.StatusPending.String()}).
		Executor().Exec()
	if err != nil {
		return fmt.Errorf("failed to drop empty outbound: %w", err)
	}
	return nil
}

func (r *outboundRepository) InsertStoreStock(tx *goqu.TxDatabase, storeID, recordID int) error {
	_, err := tx.Insert("store_items").
		Rows(goqu.Record{"store_id": storeID, "record_id": recordID}).
		Executor().Exec()
	if err != nil {
		return custom_error.WrapPQError(err, "failed to insert store stock")
	}
	return nil
}

func (r *outboundRepository) ClearQueue(tx *goqu.TxDatabase, outboundID int) error {
	_, err := tx.Delete("outbound_items").
		Where(goqu.Ex{"outbound_id": outboundID}).
		Executor().Exec()
	if err != nil {
		return fmt.Errorf("failed to clear outbound queue: %w", err)
	}
	return nil
}

func (r *outboundRepository) CompleteOutbound(tx *goqu.TxDatabase, outboundID, storeID int, notes *string) error {
	result, err := tx.Update("outbound").
		Set(goqu.Record{
			"status":       metadata.StatusCompleted.String(),
			"store_id":     storeID,
			"notes":        notes,
			"completed_at": time.Now().UTC(),
		}).
		Where(goqu.Ex{"id": outboundID, "status": metadata.StatusPending.String()}).
		Executor().Exec()
	if err != nil {
		return fmt.Errorf("failed to complete outbound: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return custom_error.NewConflictError("outbound %d is no longer pending", outboundID)
	}
	return nil
}

// GetPendingOutbound returns the pending queue with its items joined against
// the asset ledger, or nil when no queue is open.
func (r *outboundRepository) GetPendingOutbound() (*models.Outbound, []models.FlatOutboundItemRecord, error) {
	var outbound models.Outbound
	found, err := r.repo.GoquDBWrapper.From("outbound").
		Select("id", "status", "store_id", "notes", "created_at", "completed_at").
		Where(goqu.Ex{"status": metadata.StatusPending.String()}).
		Order(goqu.C("id").Asc()).
		Limit(1).
		Executor().ScanStruct(&outbound)
	if err != nil {
		return nil, nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	if !found {
		return nil, nil, nil
	}

	var items []models.FlatOutboundItemRecord
	err = r.repo.GoquDBWrapper.
		Select(
			goqu.I("i.id").As("outbound_item_id"),
			goqu.I("i.record_id").As("record_id"),
			goqu.I("a.serialnumber").As("serialnumber"),
			goqu.I("a.model").As("model"),
			goqu.I("a.cpu").As("cpu"),
			goqu.I("a.ram_gb").As("ram_gb"),
			goqu.I("i.added_at").As("added_at"),
		).
		From(goqu.T("outbound_items").As("i")).
		InnerJoin(
			goqu.T("system_records").As("a"),
			goqu.On(goqu.Ex{"i.record_id": goqu.I("a.id")}),
		).
		Where(goqu.I("i.outbound_id").Eq(outbound.ID)).
		Order(goqu.I("i.id").Asc()).
		Executor().ScanStructs(&items)
	if err != nil {
		return nil, nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	return &outbound, items, nil
}
