package stores

import (
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/ChrisHK/system-monitor-sub001/internal/repository"
	custom_error "github.com/ChrisHK/system-monitor-sub001/pkg/errors"
	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
)

type StoreRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *StoreRepository {
	return &StoreRepository{repository: r}
}

func (r *StoreRepository) GetStores() (*[]models.Store, error) {
	var stores []models.Store

	err := r.repository.GoquDBWrapper.From("stores").
		Select("id", "name").
		Order(goqu.C("id").Asc()).
		Executor().ScanStructs(&stores)
	if err != nil {
		return nil, fmt.Errorf("unable to select stores from database: %w", err)
	}

	return &stores, nil
}

func (r *StoreRepository) GetStore(storeID int) (*models.Store, error) {
	var store models.Store

	found, err := r.repository.GoquDBWrapper.From("stores").
		Select("id", "name").
		Where(goqu.Ex{"id": storeID}).
		Executor().ScanStruct(&store)
	if err != nil {
		return nil, fmt.Errorf("unable to select store from database: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFoundError("store", storeID)
	}

	return &store, nil
}

func (r *StoreRepository) PersistStore(name string) (*models.Store, error) {
	store := models.Store{Name: name}

	found, err := r.repository.GoquDBWrapper.Insert("stores").
		Rows(goqu.Record{"name": name}).
		Returning("id").
		Executor().ScanVal(&store.ID)
	if err != nil {
		return nil, custom_error.WrapPQError(err, fmt.Sprintf("failed to create store %q", name))
	}
	if !found {
		return nil, fmt.Errorf("store insert returned no id")
	}

	return &store, nil
}

// FlatStockRecord is a shelf row joined with its asset attributes.
type FlatStockRecord struct {
	models.StoreStockItem
	SerialNumber string  `db:"serialnumber"`
	Model        *string `db:"model"`
	CPU          *string `db:"cpu"`
	RamGB        *int    `db:"ram_gb"`
}

// GetStoreStock lists everything currently on the store's shelf.
func (r *StoreRepository) GetStoreStock(storeID int) ([]FlatStockRecord, error) {
	var stock []FlatStockRecord

	query := r.repository.GoquDBWrapper.
		Select(
			goqu.I("i.id").As("id"),
			goqu.I("i.store_id").As("store_id"),
			goqu.I("i.record_id").As("record_id"),
			goqu.I("i.received_at").As("received_at"),
			goqu.I("a.serialnumber").As("serialnumber"),
			goqu.I("a.model").As("model"),
			goqu.I("a.cpu").As("cpu"),
			goqu.I("a.ram_gb").As("ram_gb"),
		).
		From(goqu.T("store_items").As("i")).
		InnerJoin(
			goqu.T("system_records").As("a"),
			goqu.On(goqu.Ex{"i.record_id": goqu.I("a.id")}),
		).
		Where(goqu.I("i.store_id").Eq(storeID)).
		Order(goqu.I("i.id").Asc())

	if err := query.Executor().ScanStructs(&stock); err != nil {
		return nil, fmt.Errorf("unable to select store stock from database: %w", err)
	}
	return stock, nil
}
