package moves

import (
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"go.uber.org/zap"

	"github.com/ChrisHK/system-monitor-sub001/internal/repository"
	"github.com/ChrisHK/system-monitor-sub001/pkg/auditlog"
	custom_error "github.com/ChrisHK/system-monitor-sub001/pkg/errors"
	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
	"github.com/ChrisHK/system-monitor-sub001/pkg/notify"
	"github.com/ChrisHK/system-monitor-sub001/pkg/security"
)

// Invalidator is the registry cache hook. Every successful move drops the
// cached location of the asset it touched.
type Invalidator interface {
	Invalidate(serial string)
	InvalidateStore(storeID int)
}

// AuditSink records successful moves; failures must not fail the move.
type AuditSink interface {
	Log(action string, data interface{}, item auditlog.Auditable)
}

type MoveService struct {
	mr      MoveRepository
	emitter notify.Emitter
	cache   Invalidator
	audit   AuditSink
	log     *zap.Logger
	withTx  func(fn func(tx *goqu.TxDatabase) error) error
}

func NewService(r *repository.Repository, mr MoveRepository, emitter notify.Emitter, cache Invalidator, audit AuditSink, log *zap.Logger) *MoveService {
	return &MoveService{
		mr:      mr,
		emitter: emitter,
		cache:   cache,
		audit:   audit,
		log:     log,
		withTx: func(fn func(tx *goqu.TxDatabase) error) error {
			return repository.WithTransaction(r.GoquDBWrapper, fn)
		},
	}
}

// MoveAsset executes one relocation atomically: verify the asset sits in the
// declared source, remove that row and insert the destination row in a single
// transaction. The loser of a concurrent move of the same asset observes the
// source row already gone and fails with NotFound.
func (s *MoveService) MoveAsset(actor security.Actor, req Request) (*models.Asset, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if storeID := req.GoverningStore(); storeID != nil {
		if decision := actor.Decide(*storeID); !decision.Allowed {
			return nil, custom_error.NewAuthorizationError("actor %d has no access to store %d", actor.UserID, *storeID)
		}
	} else if !actor.IsAdmin() {
		return nil, custom_error.NewAuthorizationError("inventory-wide moves require admin")
	}

	asset, err := s.mr.GetAsset(req.RecordID)
	if err != nil {
		return nil, err
	}

	err = s.withTx(func(tx *goqu.TxDatabase) error {
		occupied, err := s.mr.DestOccupied(tx, req.Dest, req.RecordID)
		if err != nil {
			return err
		}
		if occupied {
			return custom_error.NewConflictError("asset %s already present in %s", asset.SerialNumber, req.Dest.Kind)
		}

		affected, err := s.mr.RemoveSource(tx, req.Source, req.RecordID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return custom_error.NewNotFoundError("asset", fmt.Sprintf("%s in %s", asset.SerialNumber, req.Source.Kind))
		}

		return s.mr.InsertDest(tx, req.Dest, req.RecordID, req.Meta)
	})
	if err != nil {
		return nil, err
	}

	s.afterMove(asset, req)

	return asset, nil
}

// afterMove fires the post-commit hooks: cache invalidation, audit entry and
// the external notification. None of them can undo the committed move.
func (s *MoveService) afterMove(asset *models.Asset, req Request) {
	if s.cache != nil {
		s.cache.Invalidate(asset.SerialNumber)
		if req.Source.StoreID != nil {
			s.cache.InvalidateStore(*req.Source.StoreID)
		}
		if req.Dest.StoreID != nil && (req.Source.StoreID == nil || *req.Dest.StoreID != *req.Source.StoreID) {
			s.cache.InvalidateStore(*req.Dest.StoreID)
		}
	}

	if s.audit != nil {
		s.audit.Log("move", map[string]interface{}{
			"from":     req.Source,
			"to":       req.Dest,
			"metadata": req.Meta,
		}, asset)
	}

	if s.emitter != nil {
		s.emitter.Emit(notify.NewMoveEvent(asset.ID, asset.SerialNumber, req.Source.Kind, req.Dest.Kind, req.Dest.StoreID))
	}

	s.log.Info("move committed",
		zap.String("serialnumber", asset.SerialNumber),
		zap.String("from", req.Source.Kind.String()),
		zap.String("to", req.Dest.Kind.String()),
	)
}
