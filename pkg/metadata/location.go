package metadata

import (
	"fmt"
	"strings"
)

// Kind identifies which ownership table currently holds an asset.
type Kind string

const (
	KindInventory Kind = "inventory"
	KindStore     Kind = "store"
	KindOutbound  Kind = "outbound"
	KindOrder     Kind = "order"
	KindSales     Kind = "sales"
	KindRMA       Kind = "rma"
)

// ProbeOrder is the priority in which location tables are checked when
// resolving a serial number. Inventory is the fallback, not a probe.
var ProbeOrder = []Kind{KindStore, KindOutbound, KindOrder, KindSales, KindRMA}

func (k Kind) IsValid() bool {
	switch k {
	case KindInventory, KindStore, KindOutbound, KindOrder, KindSales, KindRMA:
		return true
	default:
		return false
	}
}

// RequiresStore reports whether an ownership row of this kind must carry a
// store reference.
func (k Kind) RequiresStore() bool {
	switch k {
	case KindStore, KindOrder, KindSales:
		return true
	default:
		return false
	}
}

func NewKind(value string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(value)))
	if !kind.IsValid() {
		return "", fmt.Errorf(
			"invalid location kind %q, valid values are: %s, %s, %s, %s, %s, %s",
			value, KindInventory, KindStore, KindOutbound, KindOrder, KindSales, KindRMA,
		)
	}
	return kind, nil
}

func (k Kind) String() string {
	return string(k)
}
