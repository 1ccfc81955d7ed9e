package orders

import (
	"github.com/doug-martin/goqu/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ChrisHK/system-monitor-sub001/internal/inventory/moves"
	"github.com/ChrisHK/system-monitor-sub001/internal/repository"
	custom_error "github.com/ChrisHK/system-monitor-sub001/pkg/errors"
	"github.com/ChrisHK/system-monitor-sub001/pkg/metadata"
	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
	"github.com/ChrisHK/system-monitor-sub001/pkg/notify"
	"github.com/ChrisHK/system-monitor-sub001/pkg/security"
)

// AssetGetter resolves ledger rows for the items an order operation moves.
// The move repository already implements it.
type AssetGetter interface {
	GetAsset(recordID int) (*models.Asset, error)
}

type OrderService struct {
	or      OrderRepository
	assets  AssetGetter
	emitter notify.Emitter
	cache   moves.Invalidator
	audit   moves.AuditSink
	log     *zap.Logger
	withTx  func(fn func(tx *goqu.TxDatabase) error) error
}

func NewService(r *repository.Repository, or OrderRepository, assets AssetGetter, emitter notify.Emitter, cache moves.Invalidator, audit moves.AuditSink, log *zap.Logger) *OrderService {
	return &OrderService{
		or:      or,
		assets:  assets,
		emitter: emitter,
		cache:   cache,
		audit:   audit,
		log:     log,
		withTx: func(fn func(tx *goqu.TxDatabase) error) error {
			return repository.WithTransaction(r.GoquDBWrapper, fn)
		},
	}
}

// AddItemsToOrder moves a batch of store-stock assets into the store's
// pending order. The whole batch commits or none of it does. Per asset:
// an active row in another pending order is a hard conflict, an active row
// in a completed order is flagged superseded and the asset gets a fresh
// active row here.
func (s *OrderService) AddItemsToOrder(actor security.Actor, storeID int, req models.AddOrderItemsRequest) (*models.AddOrderItemsResult, error) {
	if decision := actor.Decide(storeID); !decision.Allowed {
		return nil, custom_error.NewAuthorizationError("actor %d has no access to store %d", actor.UserID, storeID)
	}
	if len(req.Items) == 0 {
		return nil, custom_error.NewValidationError("items", "at least one item is required")
	}

	var result models.AddOrderItemsResult
	var moved []*models.Asset

	err := s.withTx(func(tx *goqu.TxDatabase) error {
		orderID, created, err := s.or.EnsurePendingOrder(tx, storeID)
		if err != nil {
			return err
		}
		result.OrderID = orderID
		result.OrderIsNew = created

		for _, item := range req.Items {
			outcome, asset, err := s.addOneItem(tx, storeID, orderID, item)
			if err != nil {
				return err
			}
			result.Items = append(result.Items, *outcome)
			moved = append(moved, asset)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, asset := range moved {
		s.afterItemMove(asset, metadata.KindStore, metadata.KindOrder, storeID)
	}
	s.afterWrite(storeID)
	s.log.Info("order items added",
		zap.Int("store_id", storeID),
		zap.Int("order_id", result.OrderID),
		zap.Int("count", len(result.Items)),
	)

	return &result, nil
}

func (s *OrderService) addOneItem(tx *goqu.TxDatabase, storeID, orderID int, item models.OrderItemRequest) (*models.OrderItemOutcome, *models.Asset, error) {
	asset, err := s.assets.GetAsset(item.RecordID)
	if err != nil {
		return nil, nil, err
	}

	active, err := s.or.FindActiveItem(tx, item.RecordID)
	if err != nil {
		return nil, nil, err
	}

	superseded := false
	if active != nil {
		switch active.OrderStatus {
		case metadata.StatusPending:
			return nil, nil, custom_error.NewConflictError(
				"asset %d already sits in pending order %d", item.RecordID, active.OrderID)
		case metadata.StatusCompleted:
			if err := s.or.SupersedeItem(tx, active.ItemID); err != nil {
				return nil, nil, err
			}
			superseded = true
		}
	}

	affected, err := s.or.RemoveStoreStock(tx, storeID, item.RecordID)
	if err != nil {
		return nil, nil, err
	}
	if affected == 0 {
		return nil, nil, custom_error.NewNotFoundError("asset in store stock", item.RecordID)
	}

	itemID, err := s.or.InsertOrderItem(tx, orderID, item.RecordID, item.Notes)
	if err != nil {
		return nil, nil, err
	}

	return &models.OrderItemOutcome{
		RecordID:   item.RecordID,
		ItemID:     itemID,
		Superseded: superseded,
	}, asset, nil
}

// SaveOrder flips the pending order to completed. Items stay where they are;
// only the status changes.
func (s *OrderService) SaveOrder(actor security.Actor, storeID, orderID int) error {
	if decision := actor.Decide(storeID); !decision.Allowed {
		return custom_error.NewAuthorizationError("actor %d has no access to store %d", actor.UserID, storeID)
	}

	err := s.withTx(func(tx *goqu.TxDatabase) error {
		affected, err := s.or.CompleteOrder(tx, storeID, orderID)
		if err != nil {
			return err
		}
		if affected == 0 {
			status, err := s.or.GetOrderStatus(tx, storeID, orderID)
			if err != nil {
				return err
			}
			return custom_error.NewConflictError("order %d is already %s", orderID, status)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.afterWrite(storeID)
	s.log.Info("order completed", zap.Int("store_id", storeID), zap.Int("order_id", orderID))
	return nil
}

// DeleteOrderItem removes an item from a pending order, returns the asset to
// store stock and reactivates any completed-order rows it had superseded.
// All three steps share one transaction.
func (s *OrderService) DeleteOrderItem(actor security.Actor, storeID, itemID int) error {
	if decision := actor.Decide(storeID); !decision.Allowed {
		return custom_error.NewAuthorizationError("actor %d has no access to store %d", actor.UserID, storeID)
	}

	var restocked *models.Asset
	err := s.withTx(func(tx *goqu.TxDatabase) error {
		row, err := s.or.GetOrderItem(tx, itemID)
		if err != nil {
			return err
		}
		if row.StoreID != storeID {
			return custom_error.NewNotFoundError("order item", itemID)
		}
		if row.OrderStatus != metadata.StatusPending {
			return custom_error.NewConflictError(
				"order %d is completed; removing its items requires the privileged path", row.OrderID)
		}

		asset, err := s.assets.GetAsset(row.RecordID)
		if err != nil {
			return err
		}

		affected, err := s.or.DeleteOrderItemRow(tx, itemID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return custom_error.NewNotFoundError("order item", itemID)
		}

		if err := s.or.InsertStoreStock(tx, storeID, row.RecordID); err != nil {
			return err
		}

		if _, err := s.or.UnsupersedeForRecord(tx, row.RecordID); err != nil {
			return err
		}

		restocked = asset
		return nil
	})
	if err != nil {
		return err
	}

	s.afterItemMove(restocked, metadata.KindOrder, metadata.KindStore, storeID)
	s.afterWrite(storeID)
	return nil
}

// DeleteCompletedOrderItem is the privileged correction path: the completed
// order's row is removed outright and, when it was still active, the asset
// goes back to store stock.
func (s *OrderService) DeleteCompletedOrderItem(actor security.Actor, storeID, itemID int) error {
	if !actor.IsAdmin() {
		return custom_error.NewAuthorizationError("deleting completed order items requires admin")
	}

	var restocked *models.Asset
	err := s.withTx(func(tx *goqu.TxDatabase) error {
		row, err := s.or.GetOrderItem(tx, itemID)
		if err != nil {
			return err
		}
		if row.StoreID != storeID {
			return custom_error.NewNotFoundError("order item", itemID)
		}
		if row.OrderStatus != metadata.StatusCompleted {
			return custom_error.NewConflictError("order %d is not completed", row.OrderID)
		}

		if _, err := s.or.DeleteOrderItemRow(tx, itemID); err != nil {
			return err
		}

		// Superseded rows no longer own the asset; only active rows restock.
		if !row.IsDeleted {
			asset, err := s.assets.GetAsset(row.RecordID)
			if err != nil {
				return err
			}
			if err := s.or.InsertStoreStock(tx, storeID, row.RecordID); err != nil {
				return err
			}
			restocked = asset
		}
		return nil
	})
	if err != nil {
		return err
	}

	if restocked != nil {
		s.afterItemMove(restocked, metadata.KindOrder, metadata.KindStore, storeID)
	}
	s.afterWrite(storeID)
	return nil
}

// DeleteCompletedOrder is the privileged bulk correction: every active item
// of the completed order is restocked, then the items and the order are
// deleted, one transaction.
func (s *OrderService) DeleteCompletedOrder(actor security.Actor, storeID, orderID int) error {
	if !actor.IsAdmin() {
		return custom_error.NewAuthorizationError("deleting completed orders requires admin")
	}

	var restocked []*models.Asset
	err := s.withTx(func(tx *goqu.TxDatabase) error {
		status, err := s.or.GetOrderStatus(tx, storeID, orderID)
		if err != nil {
			return err
		}
		if status != metadata.StatusCompleted {
			return custom_error.NewConflictError("order %d is not completed", orderID)
		}

		items, err := s.or.GetOrderItems(tx, orderID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if item.IsDeleted {
				continue
			}
			asset, err := s.assets.GetAsset(item.RecordID)
			if err != nil {
				return err
			}
			if err := s.or.InsertStoreStock(tx, storeID, item.RecordID); err != nil {
				return err
			}
			restocked = append(restocked, asset)
		}

		if err := s.or.DeleteOrderItems(tx, orderID); err != nil {
			return err
		}
		affected, err := s.or.DeleteOrder(tx, orderID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return custom_error.NewNotFoundError("order", orderID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, asset := range restocked {
		s.afterItemMove(asset, metadata.KindOrder, metadata.KindStore, storeID)
	}
	s.afterWrite(storeID)
	s.log.Info("completed order deleted", zap.Int("store_id", storeID), zap.Int("order_id", orderID))
	return nil
}

// UpdateItemNotes edits the free-text note of a pending order item.
func (s *OrderService) UpdateItemNotes(actor security.Actor, storeID, itemID int, notes *string) error {
	return s.updatePendingItem(actor, storeID, itemID, goqu.Record{"notes": notes})
}

// UpdateItemPrice sets the price of a pending order item. Prices are
// positive decimals; zero and negative values are rejected.
func (s *OrderService) UpdateItemPrice(actor security.Actor, storeID, itemID int, price decimal.Decimal) error {
	if !price.IsPositive() {
		return custom_error.NewValidationError("price", "must be a positive number")
	}
	return s.updatePendingItem(actor, storeID, itemID, goqu.Record{"price": price})
}

// UpdateItemPayMethod sets the payment method of a pending order item.
func (s *OrderService) UpdateItemPayMethod(actor security.Actor, storeID, itemID int, payMethod string) error {
	if _, err := metadata.NewPayMethod(payMethod); err != nil {
		return custom_error.NewValidationError("pay_method", "%s", err.Error())
	}
	return s.updatePendingItem(actor, storeID, itemID, goqu.Record{"pay_method": payMethod})
}

func (s *OrderService) updatePendingItem(actor security.Actor, storeID, itemID int, fields goqu.Record) error {
	if decision := actor.Decide(storeID); !decision.Allowed {
		return custom_error.NewAuthorizationError("actor %d has no access to store %d", actor.UserID, storeID)
	}

	return s.withTx(func(tx *goqu.TxDatabase) error {
		row, err := s.or.GetOrderItem(tx, itemID)
		if err != nil {
			return err
		}
		if row.StoreID != storeID {
			return custom_error.NewNotFoundError("order item", itemID)
		}
		if row.OrderStatus != metadata.StatusPending {
			return custom_error.NewConflictError("order %d is completed and cannot be edited", row.OrderID)
		}

		affected, err := s.or.UpdateOrderItem(tx, itemID, fields)
		if err != nil {
			return err
		}
		if affected == 0 {
			return custom_error.NewNotFoundError("order item", itemID)
		}
		return nil
	})
}

// GetStoreOrders returns the store's orders with items, pending first.
func (s *OrderService) GetStoreOrders(actor security.Actor, storeID int) ([]models.Order, error) {
	if decision := actor.Decide(storeID); !decision.Allowed {
		return nil, custom_error.NewAuthorizationError("actor %d has no access to store %d", actor.UserID, storeID)
	}
	return s.or.GetStoreOrders(storeID)
}

func (s *OrderService) afterWrite(storeID int) {
	if s.cache != nil {
		s.cache.InvalidateStore(storeID)
	}
}

// afterItemMove fires the post-commit hooks for one asset that changed
// ownership between store stock and an order row. None of them can undo the
// committed move.
func (s *OrderService) afterItemMove(asset *models.Asset, from, to metadata.Kind, storeID int) {
	if s.cache != nil {
		s.cache.Invalidate(asset.SerialNumber)
	}
	if s.audit != nil {
		s.audit.Log("move", map[string]interface{}{
			"from":     from,
			"to":       to,
			"store_id": storeID,
		}, asset)
	}
	if s.emitter != nil {
		s.emitter.Emit(notify.NewMoveEvent(asset.ID, asset.SerialNumber, from, to, &storeID))
	}
}
