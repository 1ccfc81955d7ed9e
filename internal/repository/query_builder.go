package repository

import "github.com/doug-martin/goqu/v9"

// QueryBuilder collects optional filter conditions from a request and maps
// them onto the aliased columns of a concrete query.
type QueryBuilder interface {
	AddCondition(key string, value interface{})
	HasConditions() bool
	BuildConditions(aliases map[string]string) goqu.Ex
}
