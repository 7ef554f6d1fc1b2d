package service

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Isba24ha/Barliberty-vultr/internal/models"
)

// Actor identifies the authenticated staff member performing an operation.
// It is always passed in explicitly; the engine never reads ambient state.
type Actor struct {
	UserID uint
	Role   models.Role
}

// CartLine is one submitted (product, quantity) pair. On merge the quantity
// is the new absolute quantity for that product, not a delta.
type CartLine struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// StartOrderInput carries everything needed to open an order on a table.
type StartOrderInput struct {
	TableID        uint
	BillingMode    models.BillingMode
	CreditClientID *uint
	ClientName     string
	PaymentMethod  models.PaymentMethod
	Notes          string
	Cart           []CartLine
}

// EventPublisher receives order lifecycle notifications after the
// surrounding transaction has committed. Implementations must not block the
// request path; a nil publisher disables notifications.
type EventPublisher interface {
	OrderCreated(order *models.Order)
	OrderStatusChanged(order *models.Order, from models.OrderStatus)
}

// OrderService owns order creation, item merging and status transitions.
type OrderService struct {
	db     *gorm.DB
	events EventPublisher
}

func NewOrderService(db *gorm.DB, events EventPublisher) *OrderService {
	return &OrderService{db: db, events: events}
}

// activeStatuses are the non-terminal order statuses; a table with an order
// in any of them counts as occupied.
var activeStatuses = []models.OrderStatus{
	models.OrderPending,
	models.OrderPreparing,
	models.OrderReady,
}

// StartOrder opens a new pending order on a free table. The order, its
// items, the stock decrements and the table flip persist atomically or not
// at all.
func (s *OrderService) StartOrder(actor Actor, in StartOrderInput) (*models.Order, error) {
	if len(in.Cart) == 0 {
		return nil, &ValidationError{Reason: "cart is empty"}
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = models.PaymentCash
	}
	if err := validateBilling(actor, in); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var table models.Table
		if err := lockForUpdate(tx).First(&table, in.TableID).Error; err != nil {
			return err
		}

		// The free check and the insert below are one check-then-act pair;
		// the table row lock keeps two concurrent carts for the same table
		// from both passing it.
		var active int64
		if err := tx.Model(&models.Order{}).
			Where("table_id = ? AND status IN ?", table.ID, activeStatuses).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 || table.Status != models.TableFree {
			return &ConflictError{Reason: "table is not free"}
		}

		if in.BillingMode == models.BillingCredit {
			var client models.CreditClient
			if err := tx.First(&client, *in.CreditClientID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return validationf("credit client %d does not exist", *in.CreditClientID)
				}
				return err
			}
		}

		items, err := commitCartLines(tx, normalizeCart(in.Cart))
		if err != nil {
			return err
		}

		order = &models.Order{
			TableID:       table.ID,
			Status:        models.OrderPending,
			BillingMode:   in.BillingMode,
			PaymentMethod: in.PaymentMethod,
			Notes:         in.Notes,
			TotalAmount:   sumItems(items),
			CreatedByID:   actor.UserID,
		}
		switch in.BillingMode {
		case models.BillingCredit:
			order.CreditClientID = in.CreditClientID
		case models.BillingAnonymous:
			order.ClientName = in.ClientName
		}

		if err := tx.Omit("Items").Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}
		order.Items = items

		return tx.Model(&models.Table{}).Where("id = ?", table.ID).
			Update("status", models.TableOccupied).Error
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.OrderCreated(order)
	}
	return order, nil
}

// MergeItems folds a cart into an existing pending order. Per cart line:
// a product not yet on the order is appended at the cart quantity; a product
// already on the order has its quantity REPLACED by the cart quantity, the
// cart value being the new absolute quantity; a quantity of zero or less
// removes the line. A cart identical to the current items returns
// ErrNothingToMerge and writes nothing.
func (s *OrderService) MergeItems(orderID uint, cart []CartLine) (*models.Order, error) {
	if len(cart) == 0 {
		return nil, &ValidationError{Reason: "cart is empty"}
	}

	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Preload("Items").First(&order, orderID).Error; err != nil {
			return err
		}
		if order.Status != models.OrderPending {
			return &ConflictError{Reason: "only pending orders accept new items"}
		}

		existing := make(map[uint]*models.OrderItem, len(order.Items))
		for i := range order.Items {
			existing[order.Items[i].ProductID] = &order.Items[i]
		}

		changed := false
		for _, line := range normalizeCart(cart) {
			item, present := existing[line.ProductID]
			switch {
			case present && line.Quantity <= 0:
				// Existing line driven to zero: remove it and return its
				// stock.
				if err := adjustStock(tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
				if err := tx.Delete(&models.OrderItem{}, item.ID).Error; err != nil {
					return err
				}
				changed = true
			case present:
				if line.Quantity == item.Quantity {
					continue
				}
				// Existing line: the cart quantity overwrites, it is never
				// added to.
				if err := adjustStock(tx, item.ProductID, item.Quantity-line.Quantity); err != nil {
					return err
				}
				if err := tx.Model(&models.OrderItem{}).Where("id = ?", item.ID).
					Update("quantity", line.Quantity).Error; err != nil {
					return err
				}
				changed = true
			case line.Quantity > 0:
				// Brand-new line: append at the cart quantity with a fresh
				// price snapshot.
				items, err := commitCartLines(tx, []CartLine{line})
				if err != nil {
					return err
				}
				items[0].OrderID = order.ID
				if err := tx.Create(&items[0]).Error; err != nil {
					return err
				}
				changed = true
			}
		}

		if !changed {
			return ErrNothingToMerge
		}

		if err := tx.Where("order_id = ?", order.ID).Order("id").
			Find(&order.Items).Error; err != nil {
			return err
		}
		order.TotalAmount = sumItems(order.Items)
		return tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("total_amount", order.TotalAmount).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// SetStatus moves an order along pending -> preparing -> ready -> completed,
// or into cancelled from any non-terminal status. Terminal transitions free
// the table; completion of a credit order posts the total to the client's
// account; cancellation returns committed stock. Everything commits in one
// transaction.
func (s *OrderService) SetStatus(actor Actor, orderID uint, next models.OrderStatus) (*models.Order, error) {
	if !next.Valid() {
		return nil, validationf("unknown order status %q", next)
	}

	var order models.Order
	var from models.OrderStatus
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Preload("Items").First(&order, orderID).Error; err != nil {
			return err
		}
		from = order.Status
		if !from.CanTransitionTo(next) {
			return &InvalidTransitionError{From: from, To: next}
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("status", next).Error; err != nil {
			return err
		}
		order.Status = next

		if err := tx.Create(&models.OrderStatusLog{
			OrderID:     order.ID,
			FromStatus:  from,
			ToStatus:    next,
			ChangedByID: actor.UserID,
		}).Error; err != nil {
			return err
		}

		if next == models.OrderCompleted && order.BillingMode == models.BillingCredit {
			if err := chargeCredit(tx, *order.CreditClientID, order.TotalAmount); err != nil {
				return err
			}
		}
		if next == models.OrderCancelled {
			for _, it := range order.Items {
				if err := adjustStock(tx, it.ProductID, it.Quantity); err != nil {
					return err
				}
			}
		}
		if next.Terminal() {
			return tx.Model(&models.Table{}).Where("id = ?", order.TableID).
				Update("status", models.TableFree).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.OrderStatusChanged(&order, from)
	}
	return &order, nil
}

func validateBilling(actor Actor, in StartOrderInput) error {
	switch in.BillingMode {
	case models.BillingAnonymous:
		if in.PaymentMethod != models.PaymentCash && in.PaymentMethod != models.PaymentMobileMoney {
			return validationf("unknown payment method %q", in.PaymentMethod)
		}
	case models.BillingCredit:
		if in.CreditClientID == nil {
			return &ValidationError{Reason: "credit billing requires a credit client"}
		}
	case models.BillingManager:
		if actor.Role != models.RoleManager && actor.Role != models.RoleAdmin {
			return &ValidationError{Reason: "manager billing requires the manager or admin role"}
		}
	default:
		return validationf("unknown billing mode %q", in.BillingMode)
	}
	return nil
}

// commitCartLines snapshots prices and takes stock for each line, returning
// the order items to persist. Every line must reference a product with
// enough stock.
func commitCartLines(tx *gorm.DB, cart []CartLine) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(cart))
	for _, line := range cart {
		if line.Quantity <= 0 {
			return nil, validationf("quantity for product %d must be positive", line.ProductID)
		}
		var product models.Product
		if err := lockForUpdate(tx).First(&product, line.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, validationf("product %d does not exist", line.ProductID)
			}
			return nil, err
		}
		if product.Stock <= 0 {
			return nil, validationf("%s is out of stock", product.Name)
		}
		if product.Stock < line.Quantity {
			return nil, validationf("insufficient stock for %s: %d left", product.Name, product.Stock)
		}
		if err := adjustStock(tx, product.ID, -line.Quantity); err != nil {
			return nil, err
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Quantity:  line.Quantity,
			Price:     product.Price,
		})
	}
	return items, nil
}

// adjustStock applies a stock delta; positive deltas return stock, negative
// ones take it. Increases in an existing line's quantity must not exceed the
// remaining stock.
func adjustStock(tx *gorm.DB, productID uint, delta int) error {
	if delta == 0 {
		return nil
	}
	if delta < 0 {
		var product models.Product
		if err := lockForUpdate(tx).First(&product, productID).Error; err != nil {
			return err
		}
		if product.Stock < -delta {
			return validationf("insufficient stock for %s: %d left", product.Name, product.Stock)
		}
	}
	return tx.Model(&models.Product{}).Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", delta)).Error
}

// normalizeCart keeps the last entry per product: the cart states absolute
// quantities, so the last edit of a line wins. Lines come back sorted by
// product id, which keeps every stock walk locking product rows in one
// deterministic order; two concurrent carts sharing products then cannot
// hold locks the other one waits for.
func normalizeCart(cart []CartLine) []CartLine {
	idx := make(map[uint]int, len(cart))
	out := make([]CartLine, 0, len(cart))
	for _, line := range cart {
		if i, ok := idx[line.ProductID]; ok {
			out[i].Quantity = line.Quantity
			continue
		}
		idx[line.ProductID] = len(out)
		out = append(out, line)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func sumItems(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// lockForUpdate takes a row lock where the dialect supports it. The sqlite
// driver used by the test suite has no FOR UPDATE; there, writes serialize
// on the database write lock.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
