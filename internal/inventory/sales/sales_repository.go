package sales

import (
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/ChrisHK/system-monitor-sub001/internal/repository"
	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
)

type SalesRepository interface {
	GetStoreSales(storeID int) ([]FlatSaleRecord, error)
}

type salesRepository struct {
	repo *repository.Repository
}

func NewRepository(r *repository.Repository) *salesRepository {
	return &salesRepository{repo: r}
}

// FlatSaleRecord is a sale joined with its asset attributes.
type FlatSaleRecord struct {
	models.Sale
	SerialNumber string  `db:"serialnumber"`
	Model        *string `db:"model"`
}

func (r *salesRepository) GetStoreSales(storeID int) ([]FlatSaleRecord, error) {
	var sales []FlatSaleRecord

	query := r.repo.GoquDBWrapper.
		Select(
			goqu.I("s.id").As("id"),
			goqu.I("s.store_id").As("store_id"),
			goqu.I("s.record_id").As("record_id"),
			goqu.I("s.price").As("price"),
			goqu.I("s.pay_method").As("pay_method"),
			goqu.I("s.notes").As("notes"),
			goqu.I("s.sale_date").As("sale_date"),
			goqu.I("a.serialnumber").As("serialnumber"),
			goqu.I("a.model").As("model"),
		).
		From(goqu.T("store_sales").As("s")).
		InnerJoin(
			goqu.T("system_records").As("a"),
			goqu.On(goqu.Ex{"s.record_id": goqu.I("a.id")}),
		).
		Where(goqu.I("s.store_id").Eq(storeID)).
		Order(goqu.I("s.sale_date").Desc())

	if err := query.Executor().ScanStructs(&sales); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	return sales, nil
}
