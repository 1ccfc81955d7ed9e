package moves

import (
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/ChrisHK/system-monitor-sub001/internal/repository"
	custom_error "github.com/ChrisHK/system-monitor-sub001/pkg/errors"
	"github.com/ChrisHK/system-monitor-sub001/pkg/metadata"
	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
)

// MoveRepository is the transactional surface of the move protocol. Every
// method that mutates state takes the enclosing transaction.
type MoveRepository interface {
	GetAsset(recordID int) (*models.Asset, error)
	RemoveSource(tx *goqu.TxDatabase, ref Ref, recordID int) (int64, error)
	DestOccupied(tx *goqu.TxDatabase, ref Ref, recordID int) (bool, error)
	InsertDest(tx *goqu.TxDatabase, ref Ref, recordID int, meta Metadata) error
}

type moveRepository struct {
	repo *repository.Repository
}

func NewRepository(r *repository.Repository) *moveRepository {
	return &moveRepository{repo: r}
}

func (r *moveRepository) GetAsset(recordID int) (*models.Asset, error) {
	var asset models.Asset

	query := r.repo.GoquDBWrapper.
		Select("id", "serialnumber", "computername", "model", "systemsku",
			"operatingsystem", "cpu", "ram_gb", "disks", "battery_health",
			"is_current", "created_at").
		From("system_records").
		Where(goqu.Ex{"id": recordID, "is_current": true})

	found, err := query.Executor().ScanStruct(&asset)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFoundError("asset", recordID)
	}

	return &asset, nil
}

// RemoveSource deletes the ownership row the caller claims the asset is in
// and reports how many rows went away. Zero rows means the asset was not in
// the expected source location, which is how a concurrent double-move loses.
func (r *moveRepository) RemoveSource(tx *goqu.TxDatabase, ref Ref, recordID int) (int64, error) {
	switch ref.Kind {
	case metadata.KindStore:
		return r.execDelete(tx.Delete("store_items").
			Where(goqu.Ex{"record_id": recordID, "store_id": *ref.StoreID}))

	case metadata.KindOutbound:
		return r.execDelete(tx.Delete("outbound_items").
			Where(
				goqu.C("record_id").Eq(recordID),
				goqu.C("outbound_id").In(
					tx.From("outbound").Select("id").Where(goqu.Ex{"status": metadata.StatusPending.String()}),
				),
			))

	case metadata.KindOrder:
		// Only items of the store's pending order are movable this way;
		// completed orders go through the privileged order paths.
		return r.execDelete(tx.Delete("store_order_items").
			Where(
				goqu.C("record_id").Eq(recordID),
				goqu.C("is_deleted").IsFalse(),
				goqu.C("order_id").In(
					tx.From("store_orders").Select("id").Where(goqu.Ex{
						"store_id": *ref.StoreID,
						"status":   metadata.StatusPending.String(),
					}),
				),
			))

	case metadata.KindSales:
		return r.execDelete(tx.Delete("store_sales").
			Where(goqu.Ex{"record_id": recordID, "store_id": *ref.StoreID}))

	case metadata.KindRMA:
		return r.execDelete(tx.Delete("store_rma").
			Where(goqu.Ex{"record_id": recordID}))

	case metadata.KindInventory:
		// Inventory has no ownership row; being "in inventory" means the
		// ledger row exists and nothing else holds the asset.
		free, err := r.inInventory(tx, recordID)
		if err != nil {
			return 0, err
		}
		if !free {
			return 0, nil
		}
		return 1, nil

	default:
		return 0, custom_error.NewValidationError("source", "unknown location kind %q", ref.Kind)
	}
}

func (r *moveRepository) execDelete(query *goqu.DeleteDataset) (int64, error) {
	result, err := query.Executor().Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to remove source ownership row: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return affected, nil
}

func (r *moveRepository) inInventory(tx *goqu.TxDatabase, recordID int) (bool, error) {
	var exists bool
	_, err := tx.Select(goqu.COUNT("id").Gt(0)).
		From("system_records").
		Where(goqu.Ex{"id": recordID, "is_current": true}).
		Executor().ScanVal(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check asset ledger: %w", err)
	}
	if !exists {
		return false, nil
	}

	held, err := r.heldAnywhere(tx, recordID)
	if err != nil {
		return false, err
	}
	return !held, nil
}

func (r *moveRepository) heldAnywhere(tx *goqu.TxDatabase, recordID int) (bool, error) {
	probes := []*goqu.SelectDataset{
		tx.From("store_items").Select(goqu.L("1")).Where(goqu.Ex{"record_id": recordID}),
		tx.From("outbound_items").Select(goqu.L("1")).Where(
			goqu.C("record_id").Eq(recordID),
			goqu.C("outbound_id").In(
				tx.From("outbound").Select("id").Where(goqu.Ex{"status": metadata.StatusPending.String()}),
			),
		),
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
			return true, nil
		}
	}
	return false, nil
}

func (r *moveRepository) DestOccupied(tx *goqu.TxDatabase, ref Ref, recordID int) (bool, error) {
	var query *goqu.SelectDataset

	switch ref.Kind {
	case metadata.KindStore:
		query = tx.From("store_items").Select(goqu.L("1")).Where(goqu.Ex{"record_id": recordID})
	case metadata.KindOutbound:
		query = tx.From("outbound_items").Select(goqu.L("1")).Where(
			goqu.C("record_id").Eq(recordID),
			goqu.C("outbound_id").In(
				tx.From("outbound").Select("id").Where(goqu.Ex{"status": metadata.StatusPending.String()}),
			),
		)
	case metadata.KindOrder:
		query = tx.From("store_order_items").Select(goqu.L("1")).Where(
			goqu.C("record_id").Eq(recordID),
			goqu.C("is_deleted").IsFalse(),
		)
	case metadata.KindSales:
		query = tx.From("store_sales").Select(goqu.L("1")).Where(goqu.Ex{"record_id": recordID})
	case metadata.KindRMA:
		query = tx.From("store_rma").Select(goqu.L("1")).Where(goqu.Ex{"record_id": recordID})
	case metadata.KindInventory:
		// Inventory is the fallback location; it cannot be "occupied".
		return false, nil
	default:
		return false, custom_error.NewValidationError("dest", "unknown location kind %q", ref.Kind)
	}

	var one int
	found, err := query.Executor().ScanVal(&one)
	if err != nil {
		return false, fmt.Errorf("failed to check destination occupancy: %w", err)
	}
	return found, nil
}

func (r *moveRepository) InsertDest(tx *goqu.TxDatabase, ref Ref, recordID int, meta Metadata) error {
	var query *goqu.InsertDataset

	switch ref.Kind {
	case metadata.KindStore:
		query = tx.Insert("store_items").Rows(goqu.Record{
			"store_id":  *ref.StoreID,
			"record_id": recordID,
		})
	case metadata.KindOutbound:
		outboundID, err := ensurePendingOutbound(tx)
		if err != nil {
			return err
		}
		query = tx.Insert("outbound_items").Rows(goqu.Record{
			"outbound_id": outboundID,
			"record_id":   recordID,
		})
	case metadata.KindOrder:
		query = tx.Insert("store_order_items").Rows(goqu.Record{
			"order_id":  *ref.OrderID,
			"record_id": recordID,
			"notes":     meta.Notes,
		})
	case metadata.KindSales:
		query = tx.Insert("store_sales").Rows(goqu.Record{
			"store_id":   *ref.StoreID,
			"record_id":  recordID,
			"price":      meta.Price.Decimal,
			"pay_method": meta.PayMethod,
			"notes":      meta.Notes,
		})
	case metadata.KindRMA:
		query = tx.Insert("store_rma").Rows(goqu.Record{
			"store_id":  ref.StoreID,
			"record_id": recordID,
			"reason":    meta.Reason,
			"notes":     meta.Notes,
		})
	case metadata.KindInventory:
		// Removing the source row already returned the asset to inventory.
		return nil
	default:
		return custom_error.NewValidationError("dest", "unknown location kind %q", ref.Kind)
	}

	if _, err := query.Executor().Exec(); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return custom_error.WrapDBError("destination already holds this asset", string(pqErr.Code))
		}
		return fmt.Errorf("failed to insert destination ownership row: %w", err)
	}

	return nil
}

// ensurePendingOutbound returns the id of the single pending outbound queue,
// creating it when none exists.
func ensurePendingOutbound(tx *goqu.TxDatabase) (int, error) {
	var outboundID int
	found, err := tx.From("outbound").
		Select("id").
		Where(goqu.Ex{"status": metadata.StatusPending.String()}).
		Order(goqu.I("created_at").Desc()).
		Limit(1).
		Executor().ScanVal(&outboundID)
	if err != nil {
		return 0, fmt.Errorf("failed to look up pending outbound: %w", err)
	}
	if found {
		return outboundID, nil
	}

	if _, err := tx.Insert("outbound").
		Rows(goqu.Record{"status": metadata.StatusPending.String()}).
		Returning("id").
		Executor().ScanVal(&outboundID); err != nil {
		return 0, fmt.Errorf("failed to create pending outbound: %w", err)
	}
	return outboundID, nil
}
