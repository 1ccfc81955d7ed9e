package outbound

import (
	"github.com/doug-martin/goqu/v9"
	"go.uber.org/zap"

	"github.com/ChrisHK/system-monitor-sub001/internal/inventory/moves"
	"github.com/ChrisHK/system-monitor-sub001/internal/repository"
	custom_error "github.com/ChrisHK/system-monitor-sub001/pkg/errors"
	"github.com/ChrisHK/system-monitor-sub001/pkg/metadata"
	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
	"github.com/ChrisHK/system-monitor-sub001/pkg/notify"
	"github.com/ChrisHK/system-monitor-sub001/pkg/security"
)

// AssetGetter resolves a ledger row outside the queue transaction. The move
// repository already implements it.
type AssetGetter interface {
	GetAsset(recordID int) (*models.Asset, error)
}

type OutboundService struct {
	obr     OutboundRepository
	assets  AssetGetter
	emitter notify.Emitter
	cache   moves.Invalidator
	log     *zap.Logger
	withTx  func(fn func(tx *goqu.TxDatabase) error) error
}

func NewService(r *repository.Repository, obr OutboundRepository, assets AssetGetter, emitter notify.Emitter, cache moves.Invalidator, log *zap.Logger) *OutboundService {
	return &OutboundService{
		obr:     obr,
		assets:  assets,
		emitter: emitter,
		cache:   cache,
		log:     log,
		withTx: func(fn func(tx *goqu.TxDatabase) error) error {
			return repository.WithTransaction(r.GoquDBWrapper, fn)
		},
	}
}

// AddToOutbound queues an inventory asset for the next store shipment. The
// asset must currently be free in inventory; a second queue attempt hits the
// unique constraint and becomes a Conflict.
func (s *OutboundService) AddToOutbound(actor security.Actor, recordID int) (*models.Asset, error) {
	if !actor.IsAdmin() {
		return nil, custom_error.NewAuthorizationError("outbound queue changes require admin")
	}

	asset, err := s.assets.GetAsset(recordID)
	if err != nil {
		return nil, err
	}

	err = s.withTx(func(tx *goqu.TxDatabase) error {
		free, err := s.obr.AssetInInventory(tx, asset.ID)
		if err != nil {
			return err
		}
		if !free {
			return custom_error.NewConflictError("asset %s is not in inventory", asset.SerialNumber)
		}

		outboundID, err := s.obr.EnsurePendingOutbound(tx)
		if err != nil {
			return err
		}
		return s.obr.QueueItem(tx, outboundID, asset.ID)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(asset.SerialNumber, nil)
	s.emit(asset, metadata.KindInventory, metadata.KindOutbound, nil)
	return asset, nil
}

// RemoveFromOutbound returns a queued asset to inventory. When the last item
// leaves, the pending outbound itself is dropped in the same transaction.
func (s *OutboundService) RemoveFromOutbound(actor security.Actor, recordID int) error {
	if !actor.IsAdmin() {
		return custom_error.NewAuthorizationError("outbound queue changes require admin")
	}

	asset, err := s.assets.GetAsset(recordID)
	if err != nil {
		return err
	}

	err = s.withTx(func(tx *goqu.TxDatabase) error {
		outboundID, affected, err := s.obr.RemoveQueuedItem(tx, asset.ID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return custom_error.NewNotFoundError("queued asset", asset.SerialNumber)
		}
		return s.obr.DropOutboundIfEmpty(tx, outboundID)
	})
	if err != nil {
		return err
	}

	s.invalidate(asset.SerialNumber, nil)
	s.emit(asset, metadata.KindOutbound, metadata.KindInventory, nil)
	return nil
}

// SendToStore ships the whole pending queue: every queued asset becomes
// store stock and the outbound completes with the chosen store, all in one
// transaction. An empty or missing queue is a Conflict.
func (s *OutboundService) SendToStore(actor security.Actor, storeID int, notes *string) (int, error) {
	if !actor.IsAdmin() {
		return 0, custom_error.NewAuthorizationError("sending outbound requires admin")
	}

	var shipped []QueuedAsset
	err := s.withTx(func(tx *goqu.TxDatabase) error {
		outboundID, err := s.obr.EnsurePendingOutbound(tx)
		if err != nil {
			return err
		}

		queued, err := s.obr.QueuedAssets(tx, outboundID)
		if err != nil {
			return err
		}
		if len(queued) == 0 {
			return custom_error.NewConflictError("outbound queue is empty")
		}

		for _, item := range queued {
			if err := s.obr.InsertStoreStock(tx, storeID, item.RecordID); err != nil {
				return err
			}
		}
		if err := s.obr.ClearQueue(tx, outboundID); err != nil {
			return err
		}
		if err := s.obr.CompleteOutbound(tx, outboundID, storeID, notes); err != nil {
			return err
		}

		shipped = queued
		return nil
	})
	if err != nil {
		return 0, err
	}

	// Queued entries were cached without a store, so the store index alone
	// cannot reach them; each shipped serial is dropped explicitly.
	for _, item := range shipped {
		if s.cache != nil {
			s.cache.Invalidate(item.Serial)
		}
		if s.emitter != nil {
			s.emitter.Emit(notify.NewMoveEvent(item.RecordID, item.Serial, metadata.KindOutbound, metadata.KindStore, &storeID))
		}
	}
	if s.cache != nil {
		s.cache.InvalidateStore(storeID)
	}
	s.log.Info("outbound sent to store",
		zap.Int("store_id", storeID),
		zap.Int("items", len(shipped)),
	)
	return len(shipped), nil
}

// GetPendingOutbound returns the open queue and its items, or nil when no
// queue is open.
func (s *OutboundService) GetPendingOutbound(actor security.Actor) (*models.Outbound, []models.FlatOutboundItemRecord, error) {
	if !actor.IsAdmin() {
		return nil, nil, custom_error.NewAuthorizationError("outbound queue is admin-only")
	}
	return s.obr.GetPendingOutbound()
}

func (s *OutboundService) invalidate(serial string, storeID *int) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(serial)
	if storeID != nil {
		s.cache.InvalidateStore(*storeID)
	}
}

func (s *OutboundService) emit(asset *models.Asset, from, to metadata.Kind, storeID *int) {
	if s.emitter == nil {
		return
	}
	s.emitter.Emit(notify.NewMoveEvent(asset.ID, asset.SerialNumber, from, to, storeID))
}
