package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSupersedeItemSQLTargetsOnlyActiveRow(t *testing.T) {
	query, _, err := supersedeItemSQL(501)

	assert.NoError(t, err)
	assert.Contains(t, query, `UPDATE "store_order_items"`)
	assert.Contains(t, query, `"is_deleted"=TRUE`)
	assert.Contains(t, query, `"id" = 501`)
	// An already-flagged row must not be flagged twice; the rows-affected
	// check upstream relies on this predicate.
	assert.Contains(t, query, `"is_deleted" IS FALSE`)
}

func TestUnsupersedeSQLRestrictedToCompletedOrders(t *testing.T) {
	query, _, err := unsupersedeForRecordSQL(100)

	assert.NoError(t, err)
	assert.Contains(t, query, `UPDATE "store_order_items"`)
	assert.Contains(t, query, `"is_deleted"=FALSE`)
	assert.Contains(t, query, `"record_id" = 100`)
	assert.Contains(t, query, `"is_deleted" IS TRUE`)
	// Rows on pending orders stay untouched; only completed-order history
	// rows come back when their replacement disappears.
	assert.Contains(t, query, `SELECT "id" FROM "store_orders"`)
	assert.Contains(t, query, `'completed'`)
}
