package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Isba24ha/Barliberty-vultr/internal/models"
)

func TestResolveTables(t *testing.T) {
	tables := []models.Table{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}
	orders := []models.Order{
		{TableID: 1, Status: models.OrderPending},
		{TableID: 2, Status: models.OrderPreparing},
		{TableID: 3, Status: models.OrderCompleted},
		{TableID: 3, Status: models.OrderCancelled},
	}

	views := ResolveTables(tables, orders)
	require.Len(t, views, 4)

	// Pending order: occupied and still accepting items.
	assert.Equal(t, models.TableOccupied, views[1].Status)
	assert.True(t, views[1].Addable)

	// Preparing order: occupied but locked against merges.
	assert.Equal(t, models.TableOccupied, views[2].Status)
	assert.False(t, views[2].Addable)

	// Only terminal orders: free.
	assert.Equal(t, models.TableFree, views[3].Status)
	assert.False(t, views[3].Addable)

	// No orders at all: free.
	assert.Equal(t, models.TableFree, views[4].Status)
}

func TestResolveTablesIgnoresOrdersOffTheFloorPlan(t *testing.T) {
	views := ResolveTables(
		[]models.Table{{ID: 1}},
		[]models.Order{{TableID: 99, Status: models.OrderPending}},
	)
	require.Len(t, views, 1)
	assert.Equal(t, models.TableFree, views[1].Status)
}

func TestSnapshot(t *testing.T) {
	db := newTestDB(t)
	f := seedFixtures(t, db)
	orderSvc := NewOrderService(db, nil)
	tableSvc := NewTableService(db)

	mustStartOrder(t, orderSvc, f.tables[1].ID, []CartLine{{ProductID: f.beer.ID, Quantity: 1}})

	snapshot, err := tableSvc.Snapshot()
	require.NoError(t, err)
	require.Len(t, snapshot.Tables, 3)
	assert.WithinDuration(t, time.Now().UTC(), snapshot.ComputedAt, 5*time.Second)

	// Tables come back ordered by number.
	assert.Equal(t, 10, snapshot.Tables[0].Number)
	assert.Equal(t, 12, snapshot.Tables[2].Number)

	assert.Equal(t, models.TableFree, snapshot.Views[f.tables[0].ID].Status)
	assert.Equal(t, models.TableOccupied, snapshot.Views[f.tables[1].ID].Status)
	assert.True(t, snapshot.Views[f.tables[1].ID].Addable)
}

func TestSelectTable(t *testing.T) {
	db := newTestDB(t)
	f := seedFixtures(t, db)
	orderSvc := NewOrderService(db, nil)
	tableSvc := NewTableService(db)

	started := mustStartOrder(t, orderSvc, f.tables[0].ID, []CartLine{{ProductID: f.beer.ID, Quantity: 2}})

	// Occupied, addable: the pending order comes back with its items.
	order, err := tableSvc.SelectTable(f.tables[0].ID)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, started.ID, order.ID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, f.beer.Name, order.Items[0].Product.Name)

	// Free: no order, no error; the caller starts a new one.
	order, err = tableSvc.SelectTable(f.tables[1].ID)
	require.NoError(t, err)
	assert.Nil(t, order)

	// A locked table (order past pending) also yields no order.
	_, err = orderSvc.SetStatus(cashier, started.ID, models.OrderPreparing)
	require.NoError(t, err)
	order, err = tableSvc.SelectTable(f.tables[0].ID)
	require.NoError(t, err)
	assert.Nil(t, order)

	// Unknown table is a lookup failure, not a free table.
	_, err = tableSvc.SelectTable(9999)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
