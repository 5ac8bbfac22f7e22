package csvimport

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/commercive/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Column names expected in commission uploads. These match the header row of
// the spreadsheet template merchants download from the dashboard.
const (
	ColOrderDate      = "order_date"
	ColCustomerCode   = "customer_code"
	ColAffiliateName  = "affiliate_name"
	ColAffiliateID    = "affiliate_id"
	ColCommissionRate = "commission_per_order"
	ColCommissionType = "commission_type"
	ColOrderRef       = "order_number_range"
	ColOrderQuantity  = "quantity_of_orders"
	ColInvoiceTotal   = "invoice_total"
	ColCurrency       = "currency"
)

// RequiredColumns are the headers an upload must carry to be processable.
// affiliate_id, customer_code and invoice_total are optional per row.
var RequiredColumns = []string{
	ColOrderDate,
	ColAffiliateName,
	ColCommissionRate,
	ColCommissionType,
	ColOrderRef,
	ColOrderQuantity,
}

// CommissionType determines how the per-row commission is computed
type CommissionType string

const (
	// CommissionPerOrder pays rate multiplied by order quantity
	CommissionPerOrder CommissionType = "per_order"
	// CommissionPercentage pays rate percent of the invoice total
	CommissionPercentage CommissionType = "percentage"
)

// ParseCommissionType normalizes and validates a commission type value
func ParseCommissionType(s string) (CommissionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "per_order", "per order", "perorder", "flat":
		return CommissionPerOrder, nil
	case "percentage", "percent", "pct":
		return CommissionPercentage, nil
	default:
		return "", fmt.Errorf("unknown commission type %q", s)
	}
}

// ImportRow is a validated upload row ready for matching and merging
type ImportRow struct {
	Line           int
	OrderDate      time.Time
	CustomerCode   string
	AffiliateName  string
	AffiliateRef   string
	OrderID        string
	OrderCount     int64
	CommissionRate decimal.Decimal
	CommissionType CommissionType
	InvoiceTotal   decimal.Decimal
	Gross          decimal.Decimal
	Currency       string
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"02-Jan-2006",
	time.RFC3339,
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	return decimal.NewFromString(cleaned)
}

// MapRow validates a parsed row and computes its gross commission. A nil
// error means the row is importable; otherwise the returned RowRejection
// explains the first problem found.
func MapRow(row *Row) (*ImportRow, *RowRejection) {
	out := &ImportRow{Line: row.LineNumber}

	for _, col := range RequiredColumns {
		if row.Get(col) == "" {
			return nil, &RowRejection{
				Line:    row.LineNumber,
				Column:  col,
				Reason:  ReasonMissingField,
				Message: fmt.Sprintf("required field %q is empty", col),
			}
		}
	}

	date, err := parseDate(row.Get(ColOrderDate))
	if err != nil {
		return nil, &RowRejection{
			Line:    row.LineNumber,
			Column:  ColOrderDate,
			Reason:  ReasonMissingField,
			Message: err.Error(),
			Value:   row.Get(ColOrderDate),
		}
	}
	out.OrderDate = date

	out.CustomerCode = row.Get(ColCustomerCode)
	out.AffiliateName = row.Get(ColAffiliateName)
	out.AffiliateRef = row.Get(ColAffiliateID)
	out.OrderID = row.Get(ColOrderRef)

	qty, err := strconv.ParseInt(row.Get(ColOrderQuantity), 10, 64)
	if err != nil || qty <= 0 {
		return nil, &RowRejection{
			Line:    row.LineNumber,
			Column:  ColOrderQuantity,
			Reason:  ReasonUnparsableAmount,
			Message: "order quantity must be a positive integer",
			Value:   row.Get(ColOrderQuantity),
		}
	}
	out.OrderCount = qty

	rate, err := parseAmount(row.Get(ColCommissionRate))
	if err != nil || rate.IsNegative() {
		return nil, &RowRejection{
			Line:    row.LineNumber,
			Column:  ColCommissionRate,
			Reason:  ReasonUnparsableAmount,
			Message: "commission rate must be a non-negative amount",
			Value:   row.Get(ColCommissionRate),
		}
	}
	out.CommissionRate = rate

	ctype, err := ParseCommissionType(row.Get(ColCommissionType))
	if err != nil {
		return nil, &RowRejection{
			Line:    row.LineNumber,
			Column:  ColCommissionType,
			Reason:  ReasonMissingField,
			Message: err.Error(),
			Value:   row.Get(ColCommissionType),
		}
	}
	out.CommissionType = ctype

	if raw := row.Get(ColInvoiceTotal); raw != "" {
		total, err := parseAmount(raw)
		if err != nil || total.IsNegative() {
			return nil, &RowRejection{
				Line:    row.LineNumber,
				Column:  ColInvoiceTotal,
				Reason:  ReasonUnparsableAmount,
				Message: "invoice total must be a non-negative amount",
				Value:   raw,
			}
		}
		out.InvoiceTotal = total
	} else if ctype == CommissionPercentage {
		return nil, &RowRejection{
			Line:    row.LineNumber,
			Column:  ColInvoiceTotal,
			Reason:  ReasonMissingField,
			Message: "invoice total is required for percentage commissions",
		}
	}

	if raw := row.Get(ColCurrency); raw != "" {
		currency, err := valueobject.ParseCurrency(strings.ToUpper(strings.TrimSpace(raw)))
		if err != nil {
			return nil, &RowRejection{
				Line:    row.LineNumber,
				Column:  ColCurrency,
				Reason:  ReasonMissingField,
				Message: err.Error(),
				Value:   raw,
			}
		}
		out.Currency = string(currency)
	}

	switch ctype {
	case CommissionPerOrder:
		out.Gross = rate.Mul(decimal.NewFromInt(qty)).Round(2)
	case CommissionPercentage:
		out.Gross = out.InvoiceTotal.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
	}

	return out, nil
}

// BatchDeduper tracks order ids seen within one upload so a repeated line
// in the same file is rejected before it reaches the ledger
type BatchDeduper struct {
	seen map[string]int
}

// NewBatchDeduper creates an empty deduper
func NewBatchDeduper() *BatchDeduper {
	return &BatchDeduper{seen: make(map[string]int)}
}

// Check records the order id and returns a rejection if it was already seen
// in this batch. The rejection names the line that first used the id.
func (d *BatchDeduper) Check(row *ImportRow) *RowRejection {
	if first, dup := d.seen[row.OrderID]; dup {
		return &RowRejection{
			Line:    row.Line,
			Column:  ColOrderRef,
			Reason:  ReasonDuplicateInBatch,
			Message: fmt.Sprintf("order %q already appears on line %d of this file", row.OrderID, first),
			Value:   row.OrderID,
		}
	}
	d.seen[row.OrderID] = row.Line
	return nil
}
