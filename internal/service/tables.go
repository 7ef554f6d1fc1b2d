package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Isba24ha/Barliberty-vultr/internal/models"
)

// TableView is the derived occupancy of one table. Addable means the table
// holds a pending order that still accepts item merges; an occupied table
// without a pending order (preparing/ready) is locked.
type TableView struct {
	TableID uint               `json:"table_id"`
	Status  models.TableStatus `json:"status"`
	Addable bool               `json:"addable"`
}

// TableSnapshot is what pollers get: the tables, their resolved views and
// the moment they were computed. Consumers may treat it as current for the
// advertised max age and must re-fetch after that.
type TableSnapshot struct {
	Tables     []models.Table     `json:"tables"`
	Views      map[uint]TableView `json:"views"`
	ComputedAt time.Time          `json:"computed_at"`
}

// ResolveTables derives occupancy purely from the order set. A table is free
// iff no order on it is in a non-terminal status; a pending order makes it
// occupied and addable. It mutates nothing.
func ResolveTables(tables []models.Table, orders []models.Order) map[uint]TableView {
	views := make(map[uint]TableView, len(tables))
	for _, t := range tables {
		views[t.ID] = TableView{TableID: t.ID, Status: models.TableFree}
	}
	for _, o := range orders {
		if o.Status.Terminal() {
			continue
		}
		v, ok := views[o.TableID]
		if !ok {
			continue
		}
		v.Status = models.TableOccupied
		if o.Status == models.OrderPending {
			v.Addable = true
		}
		views[o.TableID] = v
	}
	return views
}

// TableService reads the floor plan and resolves it against open orders.
type TableService struct {
	db *gorm.DB
}

func NewTableService(db *gorm.DB) *TableService {
	return &TableService{db: db}
}

// Snapshot loads every table plus the non-terminal orders and resolves the
// views in one pass.
func (s *TableService) Snapshot() (*TableSnapshot, error) {
	var tables []models.Table
	if err := s.db.Order("number").Find(&tables).Error; err != nil {
		return nil, err
	}
	var orders []models.Order
	if err := s.db.Where("status IN ?", activeStatuses).Find(&orders).Error; err != nil {
		return nil, err
	}
	return &TableSnapshot{
		Tables:     tables,
		Views:      ResolveTables(tables, orders),
		ComputedAt: time.Now().UTC(),
	}, nil
}

// SelectTable returns the table's pending order, or nil when the table has
// none. A non-nil result routes the caller into add-items mode; opening a
// second order on such a table is a correctness violation, not a UX choice.
func (s *TableService) SelectTable(tableID uint) (*models.Order, error) {
	var table models.Table
	if err := s.db.First(&table, tableID).Error; err != nil {
		return nil, err
	}
	var order models.Order
	err := s.db.Preload("Items").Preload("Items.Product").
		Where("table_id = ? AND status = ?", tableID, models.OrderPending).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}
