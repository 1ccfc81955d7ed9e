package rma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/ChrisHK/system-monitor-sub001/internal/inventory/moves"
	custom_error "github.com/ChrisHK/system-monitor-sub001/pkg/errors"
	"github.com/ChrisHK/system-monitor-sub001/pkg/metadata"
	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
	"github.com/ChrisHK/system-monitor-sub001/pkg/roles"
	"github.com/ChrisHK/system-monitor-sub001/pkg/security"
)

type MockMover struct {
	mock.Mock
}

func (m *MockMover) MoveAsset(actor security.Actor, req moves.Request) (*models.Asset, error) {
	args := m.Called(actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Asset), args.Error(1)
}

type MockRMARepository struct {
	mock.Mock
}

func (m *MockRMARepository) GetRMAItems(storeID *int) ([]FlatRMARecord, error) {
	args := m.Called(storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]FlatRMARecord), args.Error(1)
}

func TestAddToRMAFromStoreShelf(t *testing.T) {
	mover := new(MockMover)
	service := NewService(new(MockRMARepository), mover, zap.NewNop())
	actor := security.Actor{UserID: 2, Role: roles.Staff, Stores: []int{7}}
	storeID := 7

	mover.On("MoveAsset", actor, mock.MatchedBy(func(req moves.Request) bool {
		return req.Source.Kind == metadata.KindStore && *req.Source.StoreID == 7 &&
			req.Dest.Kind == metadata.KindRMA &&
			*req.Meta.Reason == "cracked screen"
	})).Return(&models.Asset{ID: 42, SerialNumber: "SN001"}, nil)

	asset, err := service.AddToRMA(actor, models.RMARequest{
		RecordID: 42,
		StoreID:  &storeID,
		Reason:   "cracked screen",
	})

	assert.NoError(t, err)
	assert.Equal(t, "SN001", asset.SerialNumber)
	mover.AssertExpectations(t)
}

func TestAddToRMAFromInventory(t *testing.T) {
	mover := new(MockMover)
	service := NewService(new(MockRMARepository), mover, zap.NewNop())
	actor := security.Actor{UserID: 1, Role: roles.Admin}

	mover.On("MoveAsset", actor, mock.MatchedBy(func(req moves.Request) bool {
		return req.Source.Kind == metadata.KindInventory && req.Source.StoreID == nil &&
			req.Dest.Kind == metadata.KindRMA && req.Dest.StoreID == nil
	})).Return(&models.Asset{ID: 42, SerialNumber: "SN001"}, nil)

	_, err := service.AddToRMA(actor, models.RMARequest{
		RecordID: 42,
		Reason:   "dead on arrival",
	})

	assert.NoError(t, err)
	mover.AssertExpectations(t)
}

func TestGetRMAItemsWithoutStoreRequiresAdmin(t *testing.T) {
	service := NewService(new(MockRMARepository), new(MockMover), zap.NewNop())

	_, err := service.GetRMAItems(security.Actor{UserID: 2, Role: roles.User, Stores: []int{7}}, nil)

	var authz *custom_error.AuthorizationError
	assert.ErrorAs(t, err, &authz)
}
