package moves

import (
	"github.com/shopspring/decimal"

	custom_error "github.com/ChrisHK/system-monitor-sub001/pkg/errors"
	"github.com/ChrisHK/system-monitor-sub001/pkg/metadata"
)

// Ref names one side of a move: a location kind plus the owner holding the
// asset there.
type Ref struct {
	Kind    metadata.Kind `json:"kind"`
	StoreID *int          `json:"store_id,omitempty"`
	OrderID *int          `json:"order_id,omitempty"`
}

// Metadata carries the kind-specific columns of the destination row.
type Metadata struct {
	Notes     *string             `json:"notes,omitempty"`
	Price     decimal.NullDecimal `json:"price,omitempty"`
	PayMethod *string             `json:"pay_method,omitempty"`
	Reason    *string             `json:"reason,omitempty"`
}

// Request is one relocation of one asset from a declared source to a
// declared destination.
type Request struct {
	RecordID int      `json:"record_id"`
	Source   Ref      `json:"source"`
	Dest     Ref      `json:"dest"`
	Meta     Metadata `json:"metadata"`
}

func (r Ref) validate(side string) error {
	if !r.Kind.IsValid() {
		return custom_error.NewValidationError(side, "unknown location kind %q", string(r.Kind))
	}
	if r.Kind.RequiresStore() && r.StoreID == nil {
		return custom_error.NewValidationError(side, "location kind %q requires store_id", r.Kind)
	}
	if r.Kind == metadata.KindOrder && side == "dest" && r.OrderID == nil {
		return custom_error.NewValidationError(side, "order destination requires order_id")
	}
	return nil
}

// Validate checks the request shape and the destination metadata before any
// database work happens.
func (r Request) Validate() error {
	if r.RecordID == 0 {
		return custom_error.NewValidationError("record_id", "is required")
	}
	if err := r.Source.validate("source"); err != nil {
		return err
	}
	if err := r.Dest.validate("dest"); err != nil {
		return err
	}
	if r.Source.Kind == r.Dest.Kind {
		return custom_error.NewValidationError("dest", "source and destination kind cannot be the same")
	}

	if r.Dest.Kind == metadata.KindSales {
		if !r.Meta.Price.Valid || !r.Meta.Price.Decimal.IsPositive() {
			return custom_error.NewValidationError("price", "must be a positive number")
		}
		if r.Meta.PayMethod == nil {
			return custom_error.NewValidationError("pay_method", "is required for sales")
		}
		if _, err := metadata.NewPayMethod(*r.Meta.PayMethod); err != nil {
			return custom_error.NewValidationError("pay_method", "%s", err.Error())
		}
	}
	if r.Dest.Kind == metadata.KindRMA && (r.Meta.Reason == nil || *r.Meta.Reason == "") {
		return custom_error.NewValidationError("reason", "is required for rma")
	}

	return nil
}

// GoverningStore is the store whose permission scope controls this move: the
// destination's store when it has one, otherwise the source's.
func (r Request) GoverningStore() *int {
	if r.Dest.StoreID != nil {
		return r.Dest.StoreID
	}
	return r.Source.StoreID
}
