package security

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/ChrisHK/system-monitor-sub001/pkg/roles"
)

// ScopeInventory is the decision scope meaning "all stores allowed".
const ScopeInventory = "inventory"

// Actor is the authenticated caller of a move operation, resolved from the
// JWT claims the middleware put into the request context.
type Actor struct {
	UserID int
	Role   roles.Role
	Stores []int
}

// Decision is the permission gate's answer for one move request.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Scope   string `json:"scope"`
}

// Decide answers whether the actor may perform a move for the given store.
// Admins operate inventory-wide; everyone else is confined to the stores
// explicitly granted to them.
func (a Actor) Decide(storeID int) Decision {
	if a.Role.HasPermission(roles.Admin) {
		return Decision{Allowed: true, Scope: ScopeInventory}
	}
	for _, id := range a.Stores {
		if id == storeID {
			return Decision{Allowed: true, Scope: fmt.Sprintf("%d", storeID)}
		}
	}
	return Decision{Allowed: false}
}

// IsAdmin reports whether the actor may use the privileged order paths.
func (a Actor) IsAdmin() bool {
	return a.Role.HasPermission(roles.Admin)
}

// ActorFromContext rebuilds the actor from middleware claims.
func ActorFromContext(c *gin.Context) (Actor, error) {
	roleValue, exists := c.Get("role")
	if !exists {
		return Actor{}, fmt.Errorf("missing role claim")
	}
	role, ok := roleValue.(string)
	if !ok {
		return Actor{}, fmt.Errorf("role claim is not a string")
	}

	actor := Actor{Role: roles.Role(role)}

	if idValue, exists := c.Get("userID"); exists {
		switch v := idValue.(type) {
		case int:
			actor.UserID = v
		case float64:
			actor.UserID = int(v)
		}
	}

	if storesValue, exists := c.Get("stores"); exists {
		actor.Stores = toIntSlice(storesValue)
	}

	return actor, nil
}

func toIntSlice(value interface{}) []int {
	var stores []int
	switch v := value.(type) {
	case []int:
		stores = v
	case []int64:
		for _, id := range v {
			stores = append(stores, int(id))
		}
	case []interface{}:
		// JWT claims decode JSON numbers as float64.
		for _, raw := range v {
			if f, ok := raw.(float64); ok {
				stores = append(stores, int(f))
			}
		}
	}
	return stores
}

// IsOwnerOrAllowed keeps the older handler-level check: the actor may access
// their own resources, or anything if they hold the required role.
func IsOwnerOrAllowed(c *gin.Context, userID int, requiredRole roles.Role) bool {
	actor, err := ActorFromContext(c)
	if err != nil {
		return false
	}
	if userID != 0 && actor.UserID == userID {
		return true
	}
	return actor.Role.HasPermission(requiredRole)
}
