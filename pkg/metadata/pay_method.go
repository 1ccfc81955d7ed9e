package metadata

import (
	"fmt"
	"strings"
)

type PayMethod string

const (
	PayCash     PayMethod = "cash"
	PayCard     PayMethod = "card"
	PayTransfer PayMethod = "transfer"
	PayOther    PayMethod = "other"
)

func (p PayMethod) IsValid() bool {
	switch p {
	case PayCash, PayCard, PayTransfer, PayOther:
		return true
	default:
		return false
	}
}

func NewPayMethod(value string) (PayMethod, error) {
	normalized := PayMethod(strings.ToLower(strings.TrimSpace(value)))
	if !normalized.IsValid() {
		return "", fmt.Errorf(
			"invalid pay method %q, valid values are: %s, %s, %s, %s",
			value, PayCash, PayCard, PayTransfer, PayOther,
		)
	}
	return normalized, nil
}

func (p PayMethod) String() string {
	return string(p)
}
