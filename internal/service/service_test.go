package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Isba24ha/Barliberty-vultr/internal/models"
)

// newTestDB opens a fresh in-memory database for one test. The database is
// named after the test so parallel packages cannot collide, and the shared
// cache keeps it alive across the connection pool.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Table{},
		&models.Category{},
		&models.Product{},
		&models.CreditClient{},
		&models.CreditPayment{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusLog{},
		&models.Session{},
		&models.User{},
	))
	return db
}

// fixtures is the standing test world: three tables, a small catalog and one
// credit account.
type fixtures struct {
	tables []models.Table
	beer   models.Product
	cola   models.Product
	wings  models.Product
	client models.CreditClient
}

func seedFixtures(t *testing.T, db *gorm.DB) fixtures {
	t.Helper()

	var f fixtures
	for _, n := range []int{10, 11, 12} {
		table := models.Table{Number: n, Capacity: 4, Location: models.LocationMainHall, Status: models.TableFree}
		require.NoError(t, db.Create(&table).Error)
		f.tables = append(f.tables, table)
	}

	drinks := models.Category{Name: "Drinks"}
	food := models.Category{Name: "Food"}
	require.NoError(t, db.Create(&drinks).Error)
	require.NoError(t, db.Create(&food).Error)

	f.beer = models.Product{Name: "Super Bock 33cl", Price: amount("2.50"), Stock: 100, CategoryID: drinks.ID}
	f.cola = models.Product{Name: "Coca-Cola 33cl", Price: amount("2.00"), Stock: 50, CategoryID: drinks.ID}
	f.wings = models.Product{Name: "Chicken Wings", Price: amount("7.50"), Stock: 10, CategoryID: food.ID}
	require.NoError(t, db.Create(&f.beer).Error)
	require.NoError(t, db.Create(&f.cola).Error)
	require.NoError(t, db.Create(&f.wings).Error)

	f.client = models.CreditClient{Name: "Sr. Domingos", TotalCredit: decimal.Zero}
	require.NoError(t, db.Create(&f.client).Error)

	return f
}

var (
	cashier = Actor{UserID: 1, Role: models.RoleCashier}
	manager = Actor{UserID: 2, Role: models.RoleManager}
)

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(amount(want)), "amount = %s, want %s", got, want)
}

func productStock(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, id).Error)
	return p.Stock
}

func tableStatus(t *testing.T, db *gorm.DB, id uint) models.TableStatus {
	t.Helper()
	var table models.Table
	require.NoError(t, db.First(&table, id).Error)
	return table.Status
}

func clientBalance(t *testing.T, db *gorm.DB, id uint) decimal.Decimal {
	t.Helper()
	var c models.CreditClient
	require.NoError(t, db.First(&c, id).Error)
	return c.TotalCredit
}
