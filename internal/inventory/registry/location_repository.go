package registry

import (
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/ChrisHK/system-monitor-sub001/internal/repository"
	"github.com/ChrisHK/system-monitor-sub001/pkg/metadata"
	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
)

type LocationRepository interface {
	ResolveLocation(serial string, now time.Time) (*models.ItemLocation, error)
}

type locationRepository struct {
	repo *repository.Repository
}

func NewRepository(r *repository.Repository) *locationRepository {
	return &locationRepository{repo: r}
}

type probeResult struct {
	RecordID  int     `db:"record_id"`
	StoreID   *int    `db:"store_id"`
	StoreName *string `db:"store_name"`
	OrderID   *int    `db:"order_id"`
}

// ResolveLocation checks the ownership tables in fixed priority order and
// returns the first claim. A serial nobody claims resolves to inventory; a
// serial missing from the ledger is reported as not found by the caller's
// ledger lookup, not here.
func (r *locationRepository) ResolveLocation(serial string, now time.Time) (*models.ItemLocation, error) {
	for _, kind := range metadata.ProbeOrder {
		result, found, err := r.probe(kind, serial)
		if err != nil {
			return nil, fmt.Errorf("failed to probe %s for %s: %w", kind, serial, err)
		}
		if !found {
			continue
		}
		return &models.ItemLocation{
			SerialNumber: serial,
			Location:     kind,
			StoreID:      result.StoreID,
			StoreName:    result.StoreName,
			OrderID:      result.OrderID,
			CheckedAt:    now,
		}, nil
	}

	fallback := models.InventoryLocation(serial, now)
	return &fallback, nil
}

func (r *locationRepository) probe(kind metadata.Kind, serial string) (*probeResult, bool, error) {
	var query *goqu.SelectDataset

	db := r.repo.GoquDBWrapper
	switch kind {
	case metadata.KindStore:
		query = db.
			Select(
				goqu.I("i.record_id").As("record_id"),
				goqu.I("s.id").As("store_id"),
				goqu.I("s.name").As("store_name"),
			).
			From(goqu.T("store_items").As("i")).
			InnerJoin(goqu.T("system_records").As("a"), goqu.On(goqu.Ex{"i.record_id": goqu.I("a.id")})).
			InnerJoin(goqu.T("stores").As("s"), goqu.On(goqu.Ex{"i.store_id": goqu.I("s.id")})).
			Where(goqu.I("a.serialnumber").Eq(serial))

	case metadata.KindOutbound:
		query = db.
			Select(goqu.I("i.record_id").As("record_id")).
			From(goqu.T("outbound_items").As("i")).
			InnerJoin(goqu.T("system_records").As("a"), goqu.On(goqu.Ex{"i.record_id": goqu.I("a.id")})).
			InnerJoin(goqu.T("outbound").As("o"), goqu.On(goqu.Ex{"i.outbound_id": goqu.I("o.id")})).
			Where(
				goqu.I("a.serialnumber").Eq(serial),
				goqu.I("o.status").Eq(metadata.StatusPending.String()),
			)

	case metadata.KindOrder:
		query = db.
			Select(
				goqu.I("i.record_id").As("record_id"),
				goqu.I("s.id").As("store_id"),
				goqu.I("s.name").As("store_name"),
				goqu.I("o.id").As("order_id"),
			).
			From(goqu.T("store_order_items").As("i")).
			InnerJoin(goqu.T("system_records").As("a"), goqu.On(goqu.Ex{"i.record_id": goqu.I("a.id")})).
			InnerJoin(goqu.T("store_orders").As("o"), goqu.On(goqu.Ex{"i.order_id": goqu.I("o.id")})).
			InnerJoin(goqu.T("stores").As("s"), goqu.On(goqu.Ex{"o.store_id": goqu.I("s.id")})).
			Where(
				goqu.I("a.serialnumber").Eq(serial),
				goqu.I("i.is_deleted").IsFalse(),
			)

	case metadata.KindSales:
		query = db.
			Select(
				goqu.I("i.record_id").As("record_id"),
				goqu.I("s.id").As("store_id"),
				goqu.I("s.name").As("store_name"),
			).
			From(goqu.T("store_sales").As("i")).
			InnerJoin(goqu.T("system_records").As("a"), goqu.On(goqu.Ex{"i.record_id": goqu.I("a.id")})).
			InnerJoin(goqu.T("stores").As("s"), goqu.On(goqu.Ex{"i.store_id": goqu.I("s.id")})).
			Where(goqu.I("a.serialnumber").Eq(serial))

	case metadata.KindRMA:
		query = db.
			Select(
				goqu.I("i.record_id").As("record_id"),
				goqu.I("s.id").As("store_id"),
				goqu.I("s.name").As("store_name"),
			).
			From(goqu.T("store_rma").As("i")).
			InnerJoin(goqu.T("system_records").As("a"), goqu.On(goqu.Ex{"i.record_id": goqu.I("a.id")})).
			LeftJoin(goqu.T("stores").As("s"), goqu.On(goqu.Ex{"i.store_id": goqu.I("s.id")})).
			Where(goqu.I("a.serialnumber").Eq(serial))

	default:
		return nil, false, fmt.Errorf("kind %q is not probeable", kind)
	}

	var result probeResult
	found, err := query.Limit(1).Executor().ScanStruct(&result)
	if err != nil {
		return nil, false, err
	}
	return &result, found, nil
}
