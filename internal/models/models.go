package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ==========================================
// TABLES & FLOOR PLAN
// ==========================================

type TableLocation string

const (
	LocationMainHall TableLocation = "main_hall"
	LocationBalcony  TableLocation = "balcony"
	LocationTerrace  TableLocation = "terrace"
)

type TableStatus string

const (
	TableFree     TableStatus = "free"
	TableOccupied TableStatus = "occupied"
)

// Table is a physical table on the floor plan. Status is a cached projection
// of "this table has an order in a non-terminal status"; it is only ever
// written inside the same transaction as the order change that affects it,
// so it cannot drift from the order set.
type Table struct {
	ID       uint          `gorm:"primaryKey" json:"id"`
	Number   int           `gorm:"not null;unique" json:"number"`
	Capacity int           `gorm:"not null" json:"capacity"`
	Location TableLocation `gorm:"type:varchar(20);not null;default:'main_hall'" json:"location"`
	Status   TableStatus   `gorm:"type:varchar(20);not null;default:'free'" json:"status"`
}

// ==========================================
// CATALOG
// ==========================================

type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null;unique" json:"name"`
}

type Product struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Name       string          `gorm:"not null;unique" json:"name"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock      int             `gorm:"not null;default:0" json:"stock"`
	MinStock   int             `gorm:"not null;default:0" json:"min_stock"`
	MaxStock   int             `gorm:"not null;default:0" json:"max_stock"`
	CategoryID uint            `gorm:"not null;index" json:"category_id"`
	Category   Category        `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ==========================================
// ORDERS
// ==========================================

type OrderStatus string

const (
	// OrderPending accepts item merges; it is the only mergeable status.
	OrderPending OrderStatus = "pending"
	// OrderPreparing means the kitchen/bar has picked the order up.
	OrderPreparing OrderStatus = "preparing"
	// OrderReady means the order is ready to be served.
	OrderReady OrderStatus = "ready"
	// OrderCompleted is terminal: the order was served and settled.
	OrderCompleted OrderStatus = "completed"
	// OrderCancelled is terminal: the order was abandoned and its stock returned.
	OrderCancelled OrderStatus = "cancelled"
)

// Terminal reports whether the status ends the order's lifecycle.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderPreparing, OrderReady, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// CanTransitionTo encodes the order status machine:
// pending -> preparing -> ready -> completed, and any non-terminal
// status -> cancelled. Nothing re-enters pending.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderPending:
		return next == OrderPreparing || next == OrderCancelled
	case OrderPreparing:
		return next == OrderReady || next == OrderCancelled
	case OrderReady:
		return next == OrderCompleted || next == OrderCancelled
	}
	return false
}

type BillingMode string

const (
	// BillingAnonymous is a walk-in order settled at the register.
	BillingAnonymous BillingMode = "anonymous"
	// BillingCredit books the total onto a named credit account.
	BillingCredit BillingMode = "credit"
	// BillingManager is internal free consumption: counted in sales,
	// collected as nothing.
	BillingManager BillingMode = "manager"
)

type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "cash"
	PaymentMobileMoney PaymentMethod = "mobile_money"
)

type Order struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	TableID        uint          `gorm:"not null;index" json:"table_id"`
	Table          Table         `gorm:"foreignKey:TableID" json:"-"`
	Status         OrderStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	BillingMode    BillingMode   `gorm:"type:varchar(20);not null" json:"billing_mode"`
	CreditClientID *uint         `json:"credit_client_id,omitempty"`
	CreditClient   *CreditClient `gorm:"foreignKey:CreditClientID" json:"credit_client,omitempty"`
	ClientName     string        `json:"client_name,omitempty"`
	// PaymentMethod applies to anonymous orders only: cash or mobile money.
	PaymentMethod PaymentMethod `gorm:"type:varchar(20);not null;default:'cash'" json:"payment_method"`
	// TotalAmount is always the sum of item price snapshots times quantity.
	// Catalog price changes never alter it.
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Notes       string          `json:"notes,omitempty"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	CreatedByID uint            `gorm:"not null" json:"created_by_id"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	OrderID   uint    `gorm:"not null;index" json:"order_id"`
	ProductID uint    `gorm:"not null" json:"product_id"`
	Product   Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	// Price is the catalog price at the moment the line was committed.
	Price decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
}

// OrderStatusLog is an append-only audit trail of status transitions.
type OrderStatusLog struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	OrderID     uint        `gorm:"not null;index" json:"order_id"`
	FromStatus  OrderStatus `gorm:"type:varchar(20);not null" json:"from_status"`
	ToStatus    OrderStatus `gorm:"type:varchar(20);not null" json:"to_status"`
	ChangedByID uint        `gorm:"not null" json:"changed_by_id"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ==========================================
// CREDIT ACCOUNTS
// ==========================================

// CreditClient is a named customer the house extends credit to.
// TotalCredit is the outstanding amount they owe.
type CreditClient struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"not null;unique" json:"name"`
	TotalCredit decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total_credit"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreditPayment is an immutable settlement entry against a credit account.
// Entries are never updated or deleted; corrections get inverse entries.
type CreditPayment struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	CreditClientID uint            `gorm:"not null;index" json:"credit_client_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Method         PaymentMethod   `gorm:"type:varchar(20);not null" json:"method"`
	RecordedByID   uint            `gorm:"not null" json:"recorded_by_id"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
}

// ==========================================
// SHIFT SESSIONS
// ==========================================

type ShiftType string

const (
	ShiftMorning   ShiftType = "morning"
	ShiftAfternoon ShiftType = "afternoon"
)

type SessionStatus string

const (
	SessionOpen   SessionStatus = "open"
	SessionClosed SessionStatus = "closed"
)

// Session is one cash-register shift. At most one session is open at a
// time, enforced by a partial unique index over rows with status 'open'.
type Session struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	ShiftType  ShiftType     `gorm:"type:varchar(20);not null" json:"shift_type"`
	Status     SessionStatus `gorm:"type:varchar(20);not null;default:'open';index:one_open_session,unique,where:status = 'open'" json:"status"`
	StartTime  time.Time     `gorm:"not null" json:"start_time"`
	EndTime    *time.Time    `json:"end_time,omitempty"`
	OpenedByID uint          `gorm:"not null" json:"opened_by_id"`
}

// ==========================================
// AUTH & USERS
// ==========================================

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
)

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"not null;unique" json:"username"`
	// The column stays password_hash in the DB; json:"-" keeps the hash out
	// of every response.
	Password string `gorm:"column:password_hash;not null" json:"-"`
	Role     Role   `gorm:"type:varchar(20);not null" json:"role"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Role  Role   `json:"role"`
}
