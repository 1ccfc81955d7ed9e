package sales

import (
	"go.uber.org/zap"

	"github.com/ChrisHK/system-monitor-sub001/internal/inventory/moves"
	custom_error "github.com/ChrisHK/system-monitor-sub001/pkg/errors"
	"github.com/ChrisHK/system-monitor-sub001/pkg/metadata"
	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
	"github.com/ChrisHK/system-monitor-sub001/pkg/security"

	"github.com/shopspring/decimal"
)

// Mover is the move protocol entry point this service delegates to.
type Mover interface {
	MoveAsset(actor security.Actor, req moves.Request) (*models.Asset, error)
}

type SalesService struct {
	sr    SalesRepository
	mover Mover
	log   *zap.Logger
}

func NewService(sr SalesRepository, mover Mover, log *zap.Logger) *SalesService {
	return &SalesService{sr: sr, mover: mover, log: log}
}

// RecordSale sells a store-stock asset: one move from the store shelf to the
// sales table, carrying price and payment method. Price validation happens
// inside the move request.
func (s *SalesService) RecordSale(actor security.Actor, storeID int, req models.SaleRequest) (*models.Asset, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return nil, custom_error.NewValidationError("price", "not a valid number: %s", req.Price)
	}

	asset, err := s.mover.MoveAsset(actor, moves.Request{
		RecordID: req.RecordID,
		Source:   moves.Ref{Kind: metadata.KindStore, StoreID: &storeID},
		Dest:     moves.Ref{Kind: metadata.KindSales, StoreID: &storeID},
		Meta: moves.Metadata{
			Price:     decimal.NullDecimal{Decimal: price, Valid: true},
			PayMethod: &req.PayMethod,
			Notes:     req.Notes,
		},
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("sale recorded",
		zap.Int("store_id", storeID),
		zap.String("serialnumber", asset.SerialNumber),
		zap.String("price", price.String()),
	)
	return asset, nil
}

// GetStoreSales lists the store's sales, newest first.
func (s *SalesService) GetStoreSales(actor security.Actor, storeID int) ([]FlatSaleRecord, error) {
	if decision := actor.Decide(storeID); !decision.Allowed {
		return nil, custom_error.NewAuthorizationError("actor %d has no access to store %d", actor.UserID, storeID)
	}
	return s.sr.GetStoreSales(storeID)
}
