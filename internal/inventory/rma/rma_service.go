package rma

import (
	"go.uber.org/zap"

	"github.com/ChrisHK/system-monitor-sub001/internal/inventory/moves"
	custom_error "github.com/ChrisHK/system-monitor-sub001/pkg/errors"
	"github.com/ChrisHK/system-monitor-sub001/pkg/metadata"
	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
	"github.com/ChrisHK/system-monitor-sub001/pkg/security"
)

// Mover is the move protocol entry point this service delegates to.
type Mover interface {
	MoveAsset(actor security.Actor, req moves.Request) (*models.Asset, error)
}

type RMAService struct {
	rr    RMARepository
	mover Mover
	log   *zap.Logger
}

func NewService(rr RMARepository, mover Mover, log *zap.Logger) *RMAService {
	return &RMAService{rr: rr, mover: mover, log: log}
}

// AddToRMA pulls an asset into return handling. With a store it comes off
// that store's shelf; without one it comes straight from central inventory,
// which is an admin path by the move rules.
func (s *RMAService) AddToRMA(actor security.Actor, req models.RMARequest) (*models.Asset, error) {
	source := moves.Ref{Kind: metadata.KindInventory}
	if req.StoreID != nil {
		source = moves.Ref{Kind: metadata.KindStore, StoreID: req.StoreID}
	}

	asset, err := s.mover.MoveAsset(actor, moves.Request{
		RecordID: req.RecordID,
		Source:   source,
		Dest:     moves.Ref{Kind: metadata.KindRMA, StoreID: req.StoreID},
		Meta: moves.Metadata{
			Reason: &req.Reason,
			Notes:  req.Notes,
		},
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("asset pulled to rma",
		zap.String("serialnumber", asset.SerialNumber),
		zap.String("reason", req.Reason),
	)
	return asset, nil
}

// GetRMAItems lists RMA rows. Non-admins only see their own stores, so a
// store filter is required for them.
func (s *RMAService) GetRMAItems(actor security.Actor, storeID *int) ([]FlatRMARecord, error) {
	if storeID == nil {
		if !actor.IsAdmin() {
			return nil, custom_error.NewAuthorizationError("listing all rma items requires admin")
		}
	} else if decision := actor.Decide(*storeID); !decision.Allowed {
		return nil, custom_error.NewAuthorizationError("actor %d has no access to store %d", actor.UserID, *storeID)
	}
	return s.rr.GetRMAItems(storeID)
}
