package service

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Isba24ha/Barliberty-vultr/internal/models"
)

// SessionStats is the reconciliation read model for one shift session.
// TotalSales counts every qualifying order regardless of how it pays;
// CashInRegister counts only what physically landed in the drawer. The two
// figures diverge whenever credit or manager orders exist, so both are
// always reported.
type SessionStats struct {
	TotalSales          decimal.Decimal `json:"total_sales"`
	CashInRegister      decimal.Decimal `json:"cash_in_register"`
	CreditPayments      decimal.Decimal `json:"credit_payments"`
	MobileMoneyPayments decimal.Decimal `json:"mobile_money_payments"`
	ManagerConsumption  decimal.Decimal `json:"manager_consumption"`
	TransactionCount    int64           `json:"transaction_count"`
	ActiveCredits       decimal.Decimal `json:"active_credits"`
	OccupiedTables      int             `json:"occupied_tables"`
	TotalTables         int             `json:"total_tables"`
}

// SessionService opens and closes shift sessions and aggregates orders into
// per-payment-method totals.
type SessionService struct {
	db     *gorm.DB
	tables *TableService
}

func NewSessionService(db *gorm.DB, tables *TableService) *SessionService {
	return &SessionService{db: db, tables: tables}
}

// Open starts a shift session. At most one session may be open system-wide;
// a second open attempt is a conflict.
func (s *SessionService) Open(actor Actor, shift models.ShiftType) (*models.Session, error) {
	if shift != models.ShiftMorning && shift != models.ShiftAfternoon {
		return nil, validationf("unknown shift type %q", shift)
	}
	var session *models.Session
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// The existence check gives the common case a clear answer; it
		// cannot serialize two concurrent opens, because FOR UPDATE over
		// zero rows locks nothing. The one_open_session partial unique
		// index is what holds the invariant under that race.
		var open []models.Session
		if err := lockForUpdate(tx).Where("status = ?", models.SessionOpen).
			Find(&open).Error; err != nil {
			return err
		}
		if len(open) > 0 {
			return &ConflictError{Reason: "a session is already open"}
		}
		session = &models.Session{
			ShiftType:  shift,
			Status:     models.SessionOpen,
			StartTime:  time.Now().UTC(),
			OpenedByID: actor.UserID,
		}
		if err := tx.Create(session).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &ConflictError{Reason: "a session is already open"}
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Active returns the currently open session, or gorm.ErrRecordNotFound.
func (s *SessionService) Active() (*models.Session, error) {
	var session models.Session
	if err := s.db.Where("status = ?", models.SessionOpen).
		First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// Get loads any session by id, open or closed.
func (s *SessionService) Get(id uint) (*models.Session, error) {
	var session models.Session
	if err := s.db.First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// Close ends the open session. Its stats freeze: recomputing them afterwards
// is a pure historical query over the fixed time window.
func (s *SessionService) Close(actor Actor) (*models.Session, error) {
	var session models.Session
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Where("status = ?", models.SessionOpen).
			First(&session).Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		session.EndTime = &now
		session.Status = models.SessionClosed
		return tx.Model(&models.Session{}).Where("id = ?", session.ID).
			Updates(map[string]any{"end_time": now, "status": models.SessionClosed}).Error
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ComputeStats aggregates every non-cancelled order created inside the
// session window into payment-method buckets. Anonymous orders land in cash
// or mobile money by their payment method; credit orders count as owed, not
// collected; manager consumption counts toward sales with zero cash impact.
// Credit settlements recorded during the window add to the drawer (or the
// mobile money total) because that money was actually received.
func (s *SessionService) ComputeStats(session *models.Session) (*SessionStats, error) {
	end := time.Now().UTC()
	if session.EndTime != nil {
		end = *session.EndTime
	}

	var orders []models.Order
	if err := s.db.
		Where("created_at >= ? AND created_at <= ? AND status <> ?",
			session.StartTime, end, models.OrderCancelled).
		Find(&orders).Error; err != nil {
		return nil, err
	}

	stats := &SessionStats{
		TotalSales:          decimal.Zero,
		CashInRegister:      decimal.Zero,
		CreditPayments:      decimal.Zero,
		MobileMoneyPayments: decimal.Zero,
		ManagerConsumption:  decimal.Zero,
		ActiveCredits:       decimal.Zero,
	}
	for _, o := range orders {
		stats.TotalSales = stats.TotalSales.Add(o.TotalAmount)
		stats.TransactionCount++
		switch o.BillingMode {
		case models.BillingCredit:
			stats.CreditPayments = stats.CreditPayments.Add(o.TotalAmount)
		case models.BillingManager:
			stats.ManagerConsumption = stats.ManagerConsumption.Add(o.TotalAmount)
		default:
			if o.PaymentMethod == models.PaymentMobileMoney {
				stats.MobileMoneyPayments = stats.MobileMoneyPayments.Add(o.TotalAmount)
			} else {
				stats.CashInRegister = stats.CashInRegister.Add(o.TotalAmount)
			}
		}
	}

	var settlements []models.CreditPayment
	if err := s.db.
		Where("created_at >= ? AND created_at <= ?", session.StartTime, end).
		Find(&settlements).Error; err != nil {
		return nil, err
	}
	for _, p := range settlements {
		if p.Method == models.PaymentMobileMoney {
			stats.MobileMoneyPayments = stats.MobileMoneyPayments.Add(p.Amount)
		} else {
			stats.CashInRegister = stats.CashInRegister.Add(p.Amount)
		}
	}

	var clients []models.CreditClient
	if err := s.db.Find(&clients).Error; err != nil {
		return nil, err
	}
	for _, c := range clients {
		stats.ActiveCredits = stats.ActiveCredits.Add(c.TotalCredit)
	}

	snapshot, err := s.tables.Snapshot()
	if err != nil {
		return nil, err
	}
	stats.TotalTables = len(snapshot.Tables)
	for _, v := range snapshot.Views {
		if v.Status == models.TableOccupied {
			stats.OccupiedTables++
		}
	}
	return stats, nil
}
