package rollup

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vendasys/backend/internal/domain/shared"
)

// Event types emitted by the expense and sales collaborators. The rollup
// engine consumes them; it never emits events of its own.
const (
	EventTypeExpenseCreated         = "expense.created"
	EventTypeExpenseInstallmentPaid = "expense.installment_paid"
	EventTypeExpenseReclassified    = "expense.reclassified"
	EventTypeExpenseRemoved         = "expense.removed"
	EventTypeExpenseClassified      = "expense.classified"
	EventTypeExpenseClassifRemoved  = "expense.classification_removed"
	EventTypeSaleConfirmed          = "sale.confirmed"
	EventTypeSaleReverted           = "sale.reverted"
)

const (
	aggregateTypeExpense = "expense"
	aggregateTypeSale    = "sale"
)

// ExpenseCreatedEvent signals a new expense. Future expenses accrue into
// to-pay, the rest into realized.
type ExpenseCreatedEvent struct {
	shared.BaseDomainEvent
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Future bool            `json:"future"`
}

// NewExpenseCreatedEvent creates an ExpenseCreatedEvent.
func NewExpenseCreatedEvent(partnerID, expenseID uuid.UUID, date time.Time, amount decimal.Decimal, future bool) *ExpenseCreatedEvent {
	return &ExpenseCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseCreated, aggregateTypeExpense, expenseID, partnerID),
		Date:            date,
		Amount:          amount,
		Future:          future,
	}
}

// ExpenseInstallmentPaidEvent signals an installment moving from pending to
// paid within the same period.
type ExpenseInstallmentPaidEvent struct {
	shared.BaseDomainEvent
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// NewExpenseInstallmentPaidEvent creates an ExpenseInstallmentPaidEvent.
func NewExpenseInstallmentPaidEvent(partnerID, expenseID uuid.UUID, date time.Time, amount decimal.Decimal) *ExpenseInstallmentPaidEvent {
	return &ExpenseInstallmentPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseInstallmentPaid, aggregateTypeExpense, expenseID, partnerID),
		Date:            date,
		Amount:          amount,
	}
}

// ExpenseReclassifiedEvent signals an expense moving between the to-pay and
// realized buckets.
type ExpenseReclassifiedEvent struct {
	shared.BaseDomainEvent
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	WasFuture bool            `json:"was_future"`
	IsFuture  bool            `json:"is_future"`
}

// NewExpenseReclassifiedEvent creates an ExpenseReclassifiedEvent.
func NewExpenseReclassifiedEvent(partnerID, expenseID uuid.UUID, date time.Time, amount decimal.Decimal, wasFuture, isFuture bool) *ExpenseReclassifiedEvent {
	return &ExpenseReclassifiedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseReclassified, aggregateTypeExpense, expenseID, partnerID),
		Date:            date,
		Amount:          amount,
		WasFuture:       wasFuture,
		IsFuture:        isFuture,
	}
}

// ExpenseRemovedEvent signals the deletion of an expense; the rollup effect
// is the symmetric inverse of the matching creation.
type ExpenseRemovedEvent struct {
	shared.BaseDomainEvent
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	WasFuture bool            `json:"was_future"`
}

// NewExpenseRemovedEvent creates an ExpenseRemovedEvent.
func NewExpenseRemovedEvent(partnerID, expenseID uuid.UUID, date time.Time, amount decimal.Decimal, wasFuture bool) *ExpenseRemovedEvent {
	return &ExpenseRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseRemoved, aggregateTypeExpense, expenseID, partnerID),
		Date:            date,
		Amount:          amount,
		WasFuture:       wasFuture,
	}
}

// ExpenseClassifiedEvent signals that a realized amount was attributed to one
// or more classification shapes (legacy category tree, chart of accounts).
type ExpenseClassifiedEvent struct {
	shared.BaseDomainEvent
	Date            time.Time        `json:"date"`
	Amount          decimal.Decimal  `json:"amount"`
	Classifications []Classification `json:"classifications"`
}

// NewExpenseClassifiedEvent creates an ExpenseClassifiedEvent.
func NewExpenseClassifiedEvent(partnerID, expenseID uuid.UUID, date time.Time, amount decimal.Decimal, classifications []Classification) *ExpenseClassifiedEvent {
	return &ExpenseClassifiedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseClassified, aggregateTypeExpense, expenseID, partnerID),
		Date:            date,
		Amount:          amount,
		Classifications: classifications,
	}
}

// ExpenseClassificationRemovedEvent is the symmetric inverse of
// ExpenseClassifiedEvent.
type ExpenseClassificationRemovedEvent struct {
	shared.BaseDomainEvent
	Date            time.Time        `json:"date"`
	Amount          decimal.Decimal  `json:"amount"`
	Classifications []Classification `json:"classifications"`
}

// NewExpenseClassificationRemovedEvent creates an ExpenseClassificationRemovedEvent.
func NewExpenseClassificationRemovedEvent(partnerID, expenseID uuid.UUID, date time.Time, amount decimal.Decimal, classifications []Classification) *ExpenseClassificationRemovedEvent {
	return &ExpenseClassificationRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseClassifRemoved, aggregateTypeExpense, expenseID, partnerID),
		Date:            date,
		Amount:          amount,
		Classifications: classifications,
	}
}

// SaleConfirmedEvent signals a confirmed sale.
type SaleConfirmedEvent struct {
	shared.BaseDomainEvent
	Date          time.Time       `json:"date"`
	SaleType      SaleType        `json:"tipo"`
	TotalAmount   decimal.Decimal `json:"valor_total"`
	DiscountTotal decimal.Decimal `json:"desconto_total"`
}

// NewSaleConfirmedEvent creates a SaleConfirmedEvent.
func NewSaleConfirmedEvent(partnerID, saleID uuid.UUID, date time.Time, saleType SaleType, totalAmount, discountTotal decimal.Decimal) *SaleConfirmedEvent {
	return &SaleConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleConfirmed, aggregateTypeSale, saleID, partnerID),
		Date:            date,
		SaleType:        saleType,
		TotalAmount:     totalAmount,
		DiscountTotal:   discountTotal,
	}
}

// SaleRevertedEvent signals the reversal of a previously confirmed sale.
// Its fields mirror the confirmation exactly; the rollup applies the
// negation.
type SaleRevertedEvent struct {
	shared.BaseDomainEvent
	Date          time.Time       `json:"date"`
	SaleType      SaleType        `json:"tipo"`
	TotalAmount   decimal.Decimal `json:"valor_total"`
	DiscountTotal decimal.Decimal `json:"desconto_total"`
}

// NewSaleRevertedEvent creates a SaleRevertedEvent.
func NewSaleRevertedEvent(partnerID, saleID uuid.UUID, date time.Time, saleType SaleType, totalAmount, discountTotal decimal.Decimal) *SaleRevertedEvent {
	return &SaleRevertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleReverted, aggregateTypeSale, saleID, partnerID),
		Date:            date,
		SaleType:        saleType,
		TotalAmount:     totalAmount,
		DiscountTotal:   discountTotal,
	}
}
