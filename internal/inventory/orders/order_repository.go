package orders

import (
	"fmt"
	"sort"

	"github.com/doug-martin/goqu/v9"

	"github.com/ChrisHK/system-monitor-sub001/internal/repository"
	custom_error "github.com/ChrisHK/system-monitor-sub001/pkg/errors"
	"github.com/ChrisHK/system-monitor-sub001/pkg/metadata"
	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
)

// ActiveItemRef identifies the one non-deleted order row holding an asset,
// together with the status of the order it belongs to.
type ActiveItemRef struct {
	ItemID      int             `db:"item_id"`
	OrderID     int             `db:"order_id"`
	StoreID     int             `db:"store_id"`
	OrderStatus metadata.Status `db:"order_status"`
}

// OrderItemRow is an order item joined with its parent order, scanned on the
// single-item paths so the service can check status and store ownership.
type OrderItemRow struct {
	ItemID      int             `db:"item_id"`
	OrderID     int             `db:"order_id"`
	StoreID     int             `db:"store_id"`
	OrderStatus metadata.Status `db:"order_status"`
	RecordID    int             `db:"record_id"`
	IsDeleted   bool            `db:"is_deleted"`
}

type OrderRepository interface {
	EnsurePendingOrder(tx *goqu.TxDatabase, storeID int) (orderID int, created bool, err error)
	FindActiveItem(tx *goqu.TxDatabase, recordID int) (*ActiveItemRef, error)
	SupersedeItem(tx *goqu.TxDatabase, itemID int) error
	UnsupersedeForRecord(tx *goqu.TxDatabase, recordID int) (int64, error)
	InsertOrderItem(tx *goqu.TxDatabase, orderID, recordID int, notes *string) (int, error)
	RemoveStoreStock(tx *goqu.TxDatabase, storeID, recordID int) (int64, error)
	InsertStoreStock(tx *goqu.TxDatabase, storeID, recordID int) error
	GetOrderItem(tx *goqu.TxDatabase, itemID int) (*OrderItemRow, error)
	DeleteOrderItemRow(tx *goqu.TxDatabase, itemID int) (int64, error)
	UpdateOrderItem(tx *goqu.TxDatabase, itemID int, fields goqu.Record) (int64, error)
	CompleteOrder(tx *goqu.TxDatabase, storeID, orderID int) (int64, error)
	GetOrderStatus(tx *goqu.TxDatabase, storeID, orderID int) (metadata.Status, error)
	GetOrderItems(tx *goqu.TxDatabase, orderID int) ([]models.OrderItem, error)
	DeleteOrderItems(tx *goqu.TxDatabase, orderID int) error
	DeleteOrder(tx *goqu.TxDatabase, orderID int) (int64, error)
	GetStoreOrders(storeID int) ([]models.Order, error)
}

type orderRepository struct {
	repo *repository.Repository
}

var dialect = goqu.Dialect("postgres")

// supersedeItemSQL builds the update that flags one active order row as
// replaced. Kept as a standalone builder so the generated SQL can be checked
// without a database.
func supersedeItemSQL(itemID int) (string, []interface{}, error) {
	return dialect.Update("store_order_items").
		Set(goqu.Record{"is_deleted": true}).
		Where(goqu.Ex{"id": itemID, "is_deleted": false}).
		ToSQL()
}

// unsupersedeForRecordSQL builds the update that restores every flagged row
// of the asset, restricted to rows whose parent order is completed so pending
// rows are never touched.
func unsupersedeForRecordSQL(recordID int) (string, []interface{}, error) {
	return dialect.Update("store_order_items").
		Set(goqu.Record{"is_deleted": false}).
		Where(
			goqu.C("record_id").Eq(recordID),
			goqu.C("is_deleted").IsTrue(),
			goqu.C("order_id").In(
				dialect.From("store_orders").Select("id").Where(goqu.Ex{
					"status": metadata.StatusCompleted.String(),
				}),
			),
		).
		ToSQL()
}

func NewRepository(r *repository.Repository) *orderRepository {
	return &orderRepository{repo: r}
}

// EnsurePendingOrder returns the store's single pending order, creating it
// when none exists. When duplicate pending orders have crept in, the oldest
// one survives: items of the younger duplicates are reparented onto it and
// the empty duplicates are deleted. Cleanup runs here, on the write path,
// never on reads.
func (r *orderRepository) EnsurePendingOrder(tx *goqu.TxDatabase, storeID int) (int, bool, error) {
	var pendingIDs []int
	err := tx.From("store_orders").
		Select("id").
		Where(goqu.Ex{"store_id": storeID, "status": metadata.StatusPending.String()}).
		Order(goqu.C("id").Asc()).
		Executor().ScanVals(&pendingIDs)
	if err != nil {
		return 0, false, fmt.Errorf("failed to query pending orders: %w", err)
	}

	if len(pendingIDs) == 0 {
		var orderID int
		found, err := tx.Insert("store_orders").
			Rows(goqu.Record{"store_id": storeID, "status": metadata.StatusPending.String()}).
			Returning("id").
			Executor().ScanVal(&orderID)
		if err != nil {
			return 0, false, fmt.Errorf("failed to create pending order: %w", err)
		}
		if !found {
			return 0, false, fmt.Errorf("pending order insert returned no id")
		}
		return orderID, true, nil
	}

	keep := pendingIDs[0]
	if len(pendingIDs) > 1 {
		if err := r.mergeDuplicatePending(tx, keep, pendingIDs[1:]); err != nil {
			return 0, false, err
		}
	}
	return keep, false, nil
}

func (r *orderRepository) mergeDuplicatePending(tx *goqu.TxDatabase, keep int, duplicates []int) error {
	_, err := tx.Update("store_order_items").
		Set(goqu.Record{"order_id": keep}).
		Where(goqu.C("order_id").In(duplicates)).
		Executor().Exec()
	if err != nil {
		return fmt.Errorf("failed to reparent duplicate pending items: %w", err)
	}

	_, err = tx.Delete("store_orders").
		Where(goqu.C("id").In(duplicates)).
		Executor().Exec()
	if err != nil {
		return fmt.Errorf("failed to drop duplicate pending orders: %w", err)
	}
	return nil
}

func (r *orderRepository) FindActiveItem(tx *goqu.TxDatabase, recordID int) (*ActiveItemRef, error) {
	var ref ActiveItemRef

	query := tx.
		Select(
			goqu.I("i.id").As("item_id"),
			goqu.I("o.id").As("order_id"),
			goqu.I("o.store_id").As("store_id"),
			goqu.I("o.status").As("order_status"),
		).
		From(goqu.T("store_order_items").As("i")).
		InnerJoin(
			goqu.T("store_orders").As("o"),
			goqu.On(goqu.Ex{"i.order_id": goqu.I("o.id")}),
		).
		Where(
			goqu.I("i.record_id").Eq(recordID),
			goqu.I("i.is_deleted").IsFalse(),
		).
		Order(goqu.I("i.id").Desc()).
		Limit(1)

	found, err := query.Executor().ScanStruct(&ref)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &ref, nil
}

// SupersedeItem flags one completed-order row as replaced by a newer order.
// The row stays on the order for history; only the flag changes.
func (r *orderRepository) SupersedeItem(tx *goqu.TxDatabase, itemID int) error {
	query, args, err := supersedeItemSQL(itemID)
	if err != nil {
		return fmt.Errorf("failed to build supersede query: %w", err)
	}
	result, err := tx.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to supersede order item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return custom_error.NewNotFoundError("order item", itemID)
	}
	return nil
}

// UnsupersedeForRecord reverses SupersedeItem for every completed-order row
// of the given asset. Called when the pending item that displaced them is
// removed, inside the same transaction.
func (r *orderRepository) UnsupersedeForRecord(tx *goqu.TxDatabase, recordID int) (int64, error) {
	query, args, err := unsupersedeForRecordSQL(recordID)
	if err != nil {
		return 0, fmt.Errorf("failed to build restore query: %w", err)
	}
	result, err := tx.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to restore superseded order items: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return affected, nil
}

func (r *orderRepository) InsertOrderItem(tx *goqu.TxDatabase, orderID, recordID int, notes *string) (int, error) {
	var itemID int
	found, err := tx.Insert("store_order_items").
		Rows(goqu.Record{
			"order_id":  orderID,
			"record_id": recordID,
			"notes":     notes,
		}).
		Returning("id").
		Executor().ScanVal(&itemID)
	if err != nil {
		return 0, custom_error.WrapPQError(err, "failed to insert order item")
	}
	if !found {
		return 0, fmt.Errorf("order item insert returned no id")
	}
	return itemID, nil
}

func (r *orderRepository) RemoveStoreStock(tx *goqu.TxDatabase, storeID, recordID int) (int64, error) {
	result, err := tx.Delete("store_items").
		Where(goqu.Ex{"store_id": storeID, "record_id": recordID}).
		Executor().Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to remove store stock: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return affected, nil
}

func (r *orderRepository) InsertStoreStock(tx *goqu.TxDatabase, storeID, recordID int) error {
	_, err := tx.Insert("store_items").
		Rows(goqu.Record{"store_id": storeID, "record_id": recordID}).
		Executor().Exec()
	if err != nil {
		return custom_error.WrapPQError(err, "failed to insert store stock")
	}
	return nil
}

func (r *orderRepository) GetOrderItem(tx *goqu.TxDatabase, itemID int) (*OrderItemRow, error) {
	var row OrderItemRow

	query := tx.
		Select(
			goqu.I("i.id").As("item_id"),
			goqu.I("o.id").As("order_id"),
			goqu.I("o.store_id").As("store_id"),
			goqu.I("o.status").As("order_status"),
			goqu.I("i.record_id").As("record_id"),
			goqu.I("i.is_deleted").As("is_deleted"),
		).
		From(goqu.T("store_order_items").As("i")).
		InnerJoin(
			goqu.T("store_orders").As("o"),
			goqu.On(goqu.Ex{"i.order_id": goqu.I("o.id")}),
		).
		Where(goqu.I("i.id").Eq(itemID))

	found, err := query.Executor().ScanStruct(&row)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFoundError("order item", itemID)
	}
	return &row, nil
}

func (r *orderRepository) DeleteOrderItemRow(tx *goqu.TxDatabase, itemID int) (int64, error) {
	result, err := tx.Delete("store_order_items").
		Where(goqu.Ex{"id": itemID}).
		Executor().Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to delete order item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return affected, nil
}

func (r *orderRepository) UpdateOrderItem(tx *goqu.TxDatabase, itemID int, fields goqu.Record) (int64, error) {
	result, err := tx.Update("store_order_items").
		Set(fields).
		Where(goqu.Ex{"id": itemID}).
		Executor().Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to update order item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return affected, nil
}

// CompleteOrder flips one pending order to completed. Zero rows affected
// means the order either does not exist for the store or already completed;
// the service disambiguates with GetOrderStatus.
func (r *orderRepository) CompleteOrder(tx *goqu.TxDatabase, storeID, orderID int) (int64, error) {
	result, err := tx.Update("store_orders").
		Set(goqu.Record{"status": metadata.StatusCompleted.String()}).
		Where(goqu.Ex{
			"id":       orderID,
			"store_id": storeID,
			"status":   metadata.StatusPending.String(),
		}).
		Executor().Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to complete order: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return affected, nil
}

func (r *orderRepository) GetOrderStatus(tx *goqu.TxDatabase, storeID, orderID int) (metadata.Status, error) {
	var status string
	found, err := tx.From("store_orders").
		Select("status").
		Where(goqu.Ex{"id": orderID, "store_id": storeID}).
		Executor().ScanVal(&status)
	if err != nil {
		return "", fmt.Errorf("failed to query order status: %w", err)
	}
	if !found {
		return "", custom_error.NewNotFoundError("order", orderID)
	}
	return metadata.Status(status), nil
}

func (r *orderRepository) GetOrderItems(tx *goqu.TxDatabase, orderID int) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := tx.From("store_order_items").
		Select("id", "order_id", "record_id", "notes", "price", "pay_method", "is_deleted", "created_at").
		Where(goqu.Ex{"order_id": orderID}).
		Order(goqu.C("id").Asc()).
		Executor().ScanStructs(&items)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	return items, nil
}

func (r *orderRepository) DeleteOrderItems(tx *goqu.TxDatabase, orderID int) error {
	_, err := tx.Delete("store_order_items").
		Where(goqu.Ex{"order_id": orderID}).
		Executor().Exec()
	if err != nil {
		return fmt.Errorf("failed to delete order items: %w", err)
	}
	return nil
}

func (r *orderRepository) DeleteOrder(tx *goqu.TxDatabase, orderID int) (int64, error) {
	result, err := tx.Delete("store_orders").
		Where(goqu.Ex{"id": orderID}).
		Executor().Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to delete order: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return affected, nil
}

// GetStoreOrders is the read path: every order of the store with its items
// joined against the asset ledger. Pending orders first, then newest
// completed. Reads never mutate; duplicate pending orders, if present, are
// returned as-is until the next write cleans them up.
func (r *orderRepository) GetStoreOrders(storeID int) ([]models.Order, error) {
	var rows []models.FlatOrderItemRecord

	query := r.repo.GoquDBWrapper.
		Select(
			goqu.I("o.id").As("order_id"),
			goqu.I("o.status").As("order_status"),
			goqu.I("o.created_at").As("order_created_at"),
			goqu.I("i.id").As("item_id"),
			goqu.I("i.record_id").As("record_id"),
			goqu.I("a.serialnumber").As("serialnumber"),
			goqu.I("a.computername").As("computername"),
			goqu.I("a.model").As("model"),
			goqu.I("a.cpu").As("cpu"),
			goqu.I("a.ram_gb").As("ram_gb"),
			goqu.I("i.notes").As("notes"),
			goqu.I("i.price").As("price"),
			goqu.I("i.pay_method").As("pay_method"),
			goqu.I("i.is_deleted").As("is_deleted"),
			goqu.I("i.created_at").As("item_created_at"),
		).
		From(goqu.T("store_orders").As("o")).
		LeftJoin(
			goqu.T("store_order_items").As("i"),
			goqu.On(goqu.Ex{"i.order_id": goqu.I("o.id")}),
		).
		LeftJoin(
			goqu.T("system_records").As("a"),
			goqu.On(goqu.Ex{"i.record_id": goqu.I("a.id")}),
		).
		Where(goqu.I("o.store_id").Eq(storeID)).
		Order(goqu.I("o.id").Desc(), goqu.I("i.id").Asc())

	if err := query.Executor().ScanStructs(&rows); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	return assembleOrders(storeID, rows), nil
}

func assembleOrders(storeID int, rows []models.FlatOrderItemRecord) []models.Order {
	byID := make(map[int]*models.Order)
	for _, row := range rows {
		order, ok := byID[row.OrderID]
		if !ok {
			order = &models.Order{
				ID:        row.OrderID,
				StoreID:   storeID,
				Status:    metadata.Status(row.OrderStatus),
				CreatedAt: row.OrderCreatedAt,
				Items:     []models.OrderItem{},
			}
			byID[row.OrderID] = order
		}
		if row.ItemID == nil {
			continue
		}

		item := models.OrderItem{
			ID:       *row.ItemID,
			OrderID:  row.OrderID,
			RecordID: derefInt(row.RecordID),
			Notes:    row.Notes,
			Price:    row.Price,
		}
		if row.PayMethod != nil {
			item.PayMethod = row.PayMethod
		}
		if row.ItemIsDeleted != nil {
			item.IsDeleted = *row.ItemIsDeleted
		}
		if row.ItemCreatedAt != nil {
			item.CreatedAt = *row.ItemCreatedAt
		}
		order.Items = append(order.Items, item)
		order.TotalItems++
		if !item.IsDeleted {
			order.ActiveItems++
		}
	}

	orders := make([]models.Order, 0, len(byID))
	for _, order := range byID {
		orders = append(orders, *order)
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].Status != orders[j].Status {
			return orders[i].Status == metadata.StatusPending
		}
		return orders[i].ID > orders[j].ID
	})
	return orders
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
