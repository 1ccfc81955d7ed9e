package rma

import (
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/ChrisHK/system-monitor-sub001/internal/repository"
	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
)

type RMARepository interface {
	GetRMAItems(storeID *int) ([]FlatRMARecord, error)
}

type rmaRepository struct {
	repo *repository.Repository
}

func NewRepository(r *repository.Repository) *rmaRepository {
	return &rmaRepository{repo: r}
}

// FlatRMARecord is an RMA row joined with its asset attributes.
type FlatRMARecord struct {
	models.RMAItem
	SerialNumber string  `db:"serialnumber"`
	Model        *string `db:"model"`
}

// GetRMAItems lists RMA rows; a nil storeID returns everything, including
// inventory-side returns.
func (r *rmaRepository) GetRMAItems(storeID *int) ([]FlatRMARecord, error) {
	query := r.repo.GoquDBWrapper.
		Select(
			goqu.I("m.id").As("id"),
			goqu.I("m.store_id").As("store_id"),
			goqu.I("m.record_id").As("record_id"),
			goqu.I("m.reason").As("reason"),
			goqu.I("m.notes").As("notes"),
			goqu.I("m.created_at").As("created_at"),
			goqu.I("a.serialnumber").As("serialnumber"),
			goqu.I("a.model").As("model"),
		).
		From(goqu.T("store_rma").As("m")).
		InnerJoin(
			goqu.T("system_records").As("a"),
			goqu.On(goqu.Ex{"m.record_id": goqu.I("a.id")}),
		).
		Order(goqu.I("m.created_at").Desc())

	if storeID != nil {
		query = query.Where(goqu.I("m.store_id").Eq(*storeID))
	}

	var items []FlatRMARecord
	if err := query.Executor().ScanStructs(&items); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	return items, nil
}
