package models

import "github.com/lib/pq"

type User struct {
	ID           int           `json:"id" db:"id"`
	Username     string        `json:"username" db:"username"`
	PasswordHash string        `json:"-" db:"password_hash"`
	Role         string        `json:"role" db:"role"`
	StoreIDs     pq.Int64Array `json:"store_ids" db:"store_ids"`
}

type CreateUserRequest struct {
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Role     string  `json:"role" binding:"required"`
	StoreIDs []int64 `json:"store_ids"`
}

type UpdateUserRequest struct {
	Password *string  `json:"password,omitempty"`
	Role     *string  `json:"role,omitempty"`
	StoreIDs *[]int64 `json:"store_ids,omitempty"`
}

// UserChanges collects the columns an update actually touches.
type UserChanges struct {
	PasswordHash *string
	Role         *string
	StoreIDs     *[]int64
}

func (c *UserChanges) HasChanges() bool {
	return c.PasswordHash != nil || c.Role != nil || c.StoreIDs != nil
}
