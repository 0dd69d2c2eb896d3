package broker

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/iho/tradebook/internal/domain"
)

const (
	exportDateLayout = "1/2/2006"
	usd              = "USD"
)

// WriteRobinhoodCSV writes transactions in the Robinhood activity layout.
// Re-importing the output with the Robinhood provider yields the same
// fingerprints.
func WriteRobinhoodCSV(w io.Writer, txs []*domain.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RobinhoodHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, tx := range txs {
		record := []string{
			tx.ActivityDate.Format(exportDateLayout),
			formatOptionalDate(tx.ProcessDate),
			formatOptionalDate(tx.SettleDate),
			tx.Instrument,
			tx.Description,
			tx.TransCode,
			formatQuantity(tx.Quantity),
			formatOptionalMoney(tx.Price),
			FormatMoney(tx.Amount),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write transaction %s: %w", tx.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// FormatMoney renders d the way brokers do: "$1,234.56" or "($1,234.56)".
// Sub-cent values keep their full precision.
func FormatMoney(d decimal.Decimal) string {
	abs := d.Abs()
	var s string
	if abs.Equal(abs.Round(2)) {
		s = money.New(abs.Shift(2).IntPart(), usd).Display()
	} else {
		s = "$" + abs.String()
	}
	if d.IsNegative() {
		return "(" + s + ")"
	}
	return s
}

func formatOptionalMoney(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return FormatMoney(d.Decimal)
}

func formatQuantity(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(exportDateLayout)
}
