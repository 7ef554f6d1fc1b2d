package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Isba24ha/Barliberty-vultr/internal/models"
)

func newSessionWorld(t *testing.T) (*gorm.DB, fixtures, *OrderService, *SessionService, *CreditService) {
	t.Helper()
	db := newTestDB(t)
	f := seedFixtures(t, db)
	tables := NewTableService(db)
	return db, f, NewOrderService(db, nil), NewSessionService(db, tables), NewCreditService(db)
}

func TestOpenSession(t *testing.T) {
	_, _, _, sessions, _ := newSessionWorld(t)

	session, err := sessions.Open(cashier, models.ShiftMorning)
	require.NoError(t, err)
	assert.Equal(t, models.SessionOpen, session.Status)
	assert.Equal(t, models.ShiftMorning, session.ShiftType)
	assert.Equal(t, cashier.UserID, session.OpenedByID)
	assert.WithinDuration(t, time.Now().UTC(), session.StartTime, 5*time.Second)
	assert.Nil(t, session.EndTime)

	active, err := sessions.Active()
	require.NoError(t, err)
	assert.Equal(t, session.ID, active.ID)
}

func TestOpenSessionRejectsUnknownShift(t *testing.T) {
	_, _, _, sessions, _ := newSessionWorld(t)

	_, err := sessions.Open(cashier, models.ShiftType("night"))
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestOpenSessionDuplicateRejected(t *testing.T) {
	_, _, _, sessions, _ := newSessionWorld(t)

	_, err := sessions.Open(cashier, models.ShiftMorning)
	require.NoError(t, err)

	_, err = sessions.Open(manager, models.ShiftAfternoon)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Reason, "already open")
}

// Two concurrent opens can both pass the existence check, because FOR UPDATE
// over zero rows locks nothing. The one_open_session partial unique index
// must reject the loser's insert; issuing that insert directly stands in for
// the losing transaction.
func TestOpenSessionSecondOpenRowRejectedBySchema(t *testing.T) {
	db, _, _, sessions, _ := newSessionWorld(t)

	_, err := sessions.Open(cashier, models.ShiftMorning)
	require.NoError(t, err)

	second := models.Session{
		ShiftType:  models.ShiftAfternoon,
		Status:     models.SessionOpen,
		StartTime:  time.Now().UTC(),
		OpenedByID: manager.UserID,
	}
	require.ErrorIs(t, db.Create(&second).Error, gorm.ErrDuplicatedKey)

	var open int64
	require.NoError(t, db.Model(&models.Session{}).
		Where("status = ?", models.SessionOpen).Count(&open).Error)
	assert.EqualValues(t, 1, open)

	// The index is partial: any number of closed sessions may coexist.
	_, err = sessions.Close(manager)
	require.NoError(t, err)
	_, err = sessions.Open(cashier, models.ShiftAfternoon)
	require.NoError(t, err)
	_, err = sessions.Close(manager)
	require.NoError(t, err)

	var closed int64
	require.NoError(t, db.Model(&models.Session{}).
		Where("status = ?", models.SessionClosed).Count(&closed).Error)
	assert.EqualValues(t, 2, closed)
}

func TestCloseSession(t *testing.T) {
	_, _, _, sessions, _ := newSessionWorld(t)

	opened, err := sessions.Open(cashier, models.ShiftMorning)
	require.NoError(t, err)

	closed, err := sessions.Close(manager)
	require.NoError(t, err)
	assert.Equal(t, opened.ID, closed.ID)
	assert.Equal(t, models.SessionClosed, closed.Status)
	require.NotNil(t, closed.EndTime)

	_, err = sessions.Active()
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Closing again finds nothing to close.
	_, err = sessions.Close(manager)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// The register can reopen for the next shift.
	reopened, err := sessions.Open(cashier, models.ShiftAfternoon)
	require.NoError(t, err)
	assert.NotEqual(t, opened.ID, reopened.ID)
}

func TestComputeStatsBuckets(t *testing.T) {
	db, f, orders, sessions, credit := newSessionWorld(t)

	session, err := sessions.Open(cashier, models.ShiftMorning)
	require.NoError(t, err)

	// Anonymous cash on table 10: 4 beers, 10.00.
	_, err = orders.StartOrder(cashier, StartOrderInput{
		TableID:     f.tables[0].ID,
		BillingMode: models.BillingAnonymous,
		Cart:        []CartLine{{ProductID: f.beer.ID, Quantity: 4}},
	})
	require.NoError(t, err)

	// Anonymous mobile money on table 11: 3 colas, 6.00.
	_, err = orders.StartOrder(cashier, StartOrderInput{
		TableID:       f.tables[1].ID,
		BillingMode:   models.BillingAnonymous,
		PaymentMethod: models.PaymentMobileMoney,
		Cart:          []CartLine{{ProductID: f.cola.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	// Credit on table 12: 2 wings, 15.00, driven to completion so the
	// total lands on the client's account.
	creditOrder, err := orders.StartOrder(cashier, StartOrderInput{
		TableID:        f.tables[2].ID,
		BillingMode:    models.BillingCredit,
		CreditClientID: &f.client.ID,
		Cart:           []CartLine{{ProductID: f.wings.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	for _, next := range []models.OrderStatus{models.OrderPreparing, models.OrderReady, models.OrderCompleted} {
		_, err = orders.SetStatus(cashier, creditOrder.ID, next)
		require.NoError(t, err)
	}

	// A cancelled order must not count anywhere.
	cancelled, err := orders.StartOrder(cashier, StartOrderInput{
		TableID:     f.tables[2].ID,
		BillingMode: models.BillingAnonymous,
		Cart:        []CartLine{{ProductID: f.cola.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = orders.SetStatus(cashier, cancelled.ID, models.OrderCancelled)
	require.NoError(t, err)

	// Manager consumption on the now-free table 12: 2 beers, 5.00.
	_, err = orders.StartOrder(manager, StartOrderInput{
		TableID:     f.tables[2].ID,
		BillingMode: models.BillingManager,
		Cart:        []CartLine{{ProductID: f.beer.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	stats, err := sessions.ComputeStats(session)
	require.NoError(t, err)

	requireAmount(t, "36.00", stats.TotalSales)
	requireAmount(t, "10.00", stats.CashInRegister)
	requireAmount(t, "6.00", stats.MobileMoneyPayments)
	requireAmount(t, "15.00", stats.CreditPayments)
	requireAmount(t, "5.00", stats.ManagerConsumption)
	assert.EqualValues(t, 4, stats.TransactionCount)
	requireAmount(t, "15.00", stats.ActiveCredits)
	assert.Equal(t, 3, stats.TotalTables)
	assert.Equal(t, 3, stats.OccupiedTables)

	// Sales and drawer deliberately diverge: most of the morning was not
	// paid in cash.
	assert.False(t, stats.TotalSales.Equal(stats.CashInRegister))

	// A settlement during the shift puts real money in the drawer without
	// touching sales.
	_, err = credit.RecordPayment(cashier, f.client.ID, amount("5.00"), models.PaymentCash)
	require.NoError(t, err)
	_, err = credit.RecordPayment(cashier, f.client.ID, amount("2.00"), models.PaymentMobileMoney)
	require.NoError(t, err)

	stats, err = sessions.ComputeStats(session)
	require.NoError(t, err)
	requireAmount(t, "36.00", stats.TotalSales)
	requireAmount(t, "15.00", stats.CashInRegister)
	requireAmount(t, "8.00", stats.MobileMoneyPayments)
	requireAmount(t, "8.00", stats.ActiveCredits)

	// The wings stock stayed sold through all of this.
	assert.Equal(t, 8, productStock(t, db, f.wings.ID))
}

func TestComputeStatsWindowBounds(t *testing.T) {
	db, f, orders, sessions, _ := newSessionWorld(t)

	session, err := sessions.Open(cashier, models.ShiftAfternoon)
	require.NoError(t, err)

	// An order from before the shift opened stays out of its stats.
	stale := models.Order{
		TableID:       f.tables[0].ID,
		Status:        models.OrderCompleted,
		BillingMode:   models.BillingAnonymous,
		PaymentMethod: models.PaymentCash,
		TotalAmount:   amount("99.00"),
		CreatedByID:   cashier.UserID,
		CreatedAt:     session.StartTime.Add(-time.Hour),
	}
	require.NoError(t, db.Create(&stale).Error)

	_, err = orders.StartOrder(cashier, StartOrderInput{
		TableID:     f.tables[1].ID,
		BillingMode: models.BillingAnonymous,
		Cart:        []CartLine{{ProductID: f.beer.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	stats, err := sessions.ComputeStats(session)
	require.NoError(t, err)
	requireAmount(t, "2.50", stats.TotalSales)
	assert.EqualValues(t, 1, stats.TransactionCount)
}

func TestComputeStatsClosedSessionIsFrozen(t *testing.T) {
	_, f, orders, sessions, _ := newSessionWorld(t)

	_, err := sessions.Open(cashier, models.ShiftMorning)
	require.NoError(t, err)

	inWindow, err := orders.StartOrder(cashier, StartOrderInput{
		TableID:     f.tables[0].ID,
		BillingMode: models.BillingAnonymous,
		Cart:        []CartLine{{ProductID: f.beer.ID, Quantity: 4}},
	})
	require.NoError(t, err)
	for _, next := range []models.OrderStatus{models.OrderPreparing, models.OrderReady, models.OrderCompleted} {
		_, err = orders.SetStatus(cashier, inWindow.ID, next)
		require.NoError(t, err)
	}

	closed, err := sessions.Close(manager)
	require.NoError(t, err)

	first, err := sessions.ComputeStats(closed)
	require.NoError(t, err)
	requireAmount(t, "10.00", first.TotalSales)

	// Trade continues after close; the closed session must not see it.
	late, err := orders.StartOrder(cashier, StartOrderInput{
		TableID:     f.tables[1].ID,
		BillingMode: models.BillingAnonymous,
		Cart:        []CartLine{{ProductID: f.cola.ID, Quantity: 5}},
	})
	require.NoError(t, err)
	for _, next := range []models.OrderStatus{models.OrderPreparing, models.OrderReady, models.OrderCompleted} {
		_, err = orders.SetStatus(cashier, late.ID, next)
		require.NoError(t, err)
	}

	second, err := sessions.ComputeStats(closed)
	require.NoError(t, err)
	assert.Equal(t, first, second, "closed-session stats are a fixed historical query")
}

func TestComputeStatsEmptySession(t *testing.T) {
	_, _, _, sessions, _ := newSessionWorld(t)

	session, err := sessions.Open(cashier, models.ShiftMorning)
	require.NoError(t, err)

	stats, err := sessions.ComputeStats(session)
	require.NoError(t, err)
	requireAmount(t, "0.00", stats.TotalSales)
	requireAmount(t, "0.00", stats.CashInRegister)
	assert.EqualValues(t, 0, stats.TransactionCount)
	assert.Equal(t, 3, stats.TotalTables)
	assert.Equal(t, 0, stats.OccupiedTables)
}
