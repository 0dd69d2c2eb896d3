package broker

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/tradebook/internal/domain"
)

func row(fields map[string]string) domain.RawRow {
	return domain.RawRow{Line: 2, Fields: fields}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRegistry_Resolve(t *testing.T) {
	r := DefaultRegistry()

	for _, name := range []domain.Provider{
		domain.ProviderRobinhood, domain.ProviderFidelity, domain.ProviderSchwab, domain.ProviderWebull,
	} {
		p, err := r.Resolve(name, nil)
		require.NoError(t, err)
		assert.Equal(t, name, p.Name())
	}

	_, err := r.Resolve("etrade", nil)
	assert.ErrorIs(t, err, domain.ErrUnsupportedProvider)
	assert.Contains(t, err.Error(), `"etrade" (known: [fidelity robinhood schwab webull])`)

	_, err = r.Resolve(domain.ProviderGeneric, nil)
	assert.ErrorIs(t, err, domain.ErrUnsupportedProvider)

	p, err := r.Resolve(domain.ProviderGeneric, &domain.ColumnMapping{ActivityDate: "Date", Amount: "Net"})
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderGeneric, p.Name())
}

func TestRegistry_RegisterDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&Robinhood{})
	assert.Panics(t, func() { r.Register(&Robinhood{}) })
}

func TestRobinhood_Normalize(t *testing.T) {
	p := &Robinhood{}
	tx, err := p.Normalize(row(map[string]string{
		"Activity Date": "6/3/2024",
		"Process Date":  "6/3/2024",
		"Settle Date":   "6/4/2024",
		"Instrument":    "aapl",
		"Description":   "AAPL 6/21/2024 Call $190.00",
		"Trans Code":    "sto",
		"Quantity":      "1",
		"Price":         "$2.50",
		"Amount":        "$249.95",
	}))
	require.NoError(t, err)

	assert.True(t, date(2024, 6, 3).Equal(tx.ActivityDate))
	require.NotNil(t, tx.SettleDate)
	assert.True(t, date(2024, 6, 4).Equal(*tx.SettleDate))
	assert.Equal(t, "AAPL", tx.Instrument)
	assert.Equal(t, "STO", tx.TransCode)
	assert.True(t, dec("249.95").Equal(tx.Amount))
	assert.True(t, dec("2.5").Equal(tx.Price.Decimal))
	require.NotNil(t, tx.Option)
	assert.Equal(t, domain.OptionCall, tx.Option.Type)
	assert.True(t, tx.SignConsistent())
}

func TestRobinhood_CashRowHasNoQuantity(t *testing.T) {
	tx, err := (&Robinhood{}).Normalize(row(map[string]string{
		"Activity Date": "1/2/2024",
		"Description":   "Interest Payment",
		"Trans Code":    "INT",
		"Amount":        "$0.42",
	}))
	require.NoError(t, err)
	assert.Equal(t, "", tx.Instrument)
	assert.False(t, tx.Quantity.Valid)
	assert.False(t, tx.Price.Valid)
	assert.Nil(t, tx.Option)
}

func TestRobinhood_FieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		field  string
		err    error
	}{
		{"bad date", map[string]string{"Activity Date": "02/30/2024", "Amount": "1"}, "Activity Date", domain.ErrInvalidDate},
		{"blank amount", map[string]string{"Activity Date": "1/2/2024", "Amount": ""}, "Amount", domain.ErrInvalidAmount},
		{"bad quantity", map[string]string{"Activity Date": "1/2/2024", "Quantity": "x", "Amount": "1"}, "Quantity", domain.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&Robinhood{}).Normalize(row(tt.fields))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			var fe *FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestFidelityCode(t *testing.T) {
	tests := []struct{ action, want string }{
		{"YOU BOUGHT APPLE INC (AAPL) (CASH)", "BUY"},
		{"YOU SOLD APPLE INC (AAPL) (CASH)", "SELL"},
		{"YOU BOUGHT OPENING TRANSACTION PUT (TGT) TARGET", "BTO"},
		{"YOU SOLD OPENING TRANSACTION PUT (TGT) TARGET", "STO"},
		{"YOU BOUGHT CLOSING TRANSACTION PUT (TGT) TARGET", "BTC"},
		{"YOU SOLD CLOSING TRANSACTION CALL (AAPL) APPLE INC", "STC"},
		{"DIVIDEND RECEIVED APPLE INC (AAPL) (CASH)", "DIV"},
		{"REINVESTMENT FIDELITY GOVERNMENT MONEY MARKET", "REINV"},
		{"INTEREST EARNED", "INT"},
		{"EXPIRED PUT (TGT) TARGET", "OEXP"},
		{"ELECTRONIC FUNDS TRANSFER RECEIVED", "ELECTRONIC FUNDS TRANSFER RECEIVED"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fidelityCode(tt.action), tt.action)
	}
}

func TestFidelity_Normalize(t *testing.T) {
	tx, err := (&Fidelity{}).Normalize(row(map[string]string{
		"Run Date":        "06/10/2025",
		"Action":          "YOU SOLD OPENING TRANSACTION PUT (TGT) TARGET",
		"Symbol":          "-TGT250620P90",
		"Description":     "PUT (TGT) TARGET CORP JUN 20 25 $90",
		"Quantity":        "-1",
		"Price ($)":       "1.25",
		"Amount ($)":      "124.34",
		"Settlement Date": "06/11/2025",
	}))
	require.NoError(t, err)

	assert.Equal(t, "TGT", tx.Instrument)
	assert.Equal(t, "STO", tx.TransCode)
	assert.True(t, dec("-1").Equal(tx.Quantity.Decimal), "quantity keeps reported sign")
	assert.True(t, dec("124.34").Equal(tx.Amount))
	assert.Equal(t, "YOU SOLD OPENING TRANSACTION PUT (TGT) TARGET - PUT (TGT) TARGET CORP JUN 20 25 $90", tx.Description)
	require.NotNil(t, tx.Option)
	assert.Equal(t, domain.OptionPut, tx.Option.Type)
	assert.True(t, dec("90").Equal(tx.Option.Strike))
	require.NotNil(t, tx.SettleDate)
}

func TestSchwab_Normalize(t *testing.T) {
	p := &Schwab{}

	tx, err := p.Normalize(row(map[string]string{
		"Date":        "10/14/2025 as of 10/13/2025",
		"Action":      "Qualified Dividend",
		"Symbol":      "MSFT",
		"Description": "MICROSOFT CORP",
		"Quantity":    "",
		"Price":       "",
		"Amount":      "$12.30",
	}))
	require.NoError(t, err)
	assert.True(t, date(2025, 10, 14).Equal(tx.ActivityDate))
	assert.Equal(t, "DIV", tx.TransCode)
	assert.Equal(t, "MSFT", tx.Instrument)

	tx, err = p.Normalize(row(map[string]string{
		"Date":        "01/10/2024",
		"Action":      "Buy to Open",
		"Symbol":      "AAPL 01/19/2024 150.00 C",
		"Description": "CALL APPLE INC $150 EXP 01/19/24",
		"Quantity":    "2",
		"Price":       "$3.10",
		"Amount":      "-$621.32",
	}))
	require.NoError(t, err)
	assert.Equal(t, "BTO", tx.TransCode)
	assert.Equal(t, "AAPL", tx.Instrument)
	require.NotNil(t, tx.Option)
	assert.True(t, dec("150").Equal(tx.Option.Strike))
	assert.True(t, tx.SignConsistent())

	tx, err = p.Normalize(row(map[string]string{
		"Date": "02/01/2024", "Action": "Journal", "Symbol": "", "Description": "", "Amount": "10",
	}))
	require.NoError(t, err)
	assert.Equal(t, "JOURNAL", tx.TransCode, "unknown actions are preserved")
}

func TestWebull_Normalize(t *testing.T) {
	p := &Webull{}

	tx, err := p.Normalize(row(map[string]string{
		"Symbol":      "NVDA",
		"Name":        "NVIDIA Corp",
		"Side":        "Buy",
		"Status":      "Filled",
		"Filled":      "3",
		"Avg Price":   "120.50",
		"Filled Time": "03/05/2024 09:31:12 EST",
	}))
	require.NoError(t, err)
	assert.Equal(t, "BUY", tx.TransCode)
	assert.True(t, dec("-361.5").Equal(tx.Amount), "got %s", tx.Amount)
	assert.True(t, date(2024, 3, 5).Equal(tx.ActivityDate))
	assert.Equal(t, "NVIDIA Corp", tx.Description)
	assert.True(t, tx.SignConsistent())

	tx, err = p.Normalize(row(map[string]string{
		"Symbol":      "NVDA240315C00900000",
		"Side":        "Sell",
		"Filled":      "1",
		"Avg Price":   "4.00",
		"Filled Time": "03/06/2024 10:00:00 EST",
		"Amount":      "399.35",
	}))
	require.NoError(t, err)
	assert.Equal(t, "SELL", tx.TransCode)
	assert.Equal(t, "NVDA", tx.Instrument)
	assert.True(t, dec("399.35").Equal(tx.Amount))
	require.NotNil(t, tx.Option)
}

func TestWebull_SkipsUnfilledOrders(t *testing.T) {
	_, err := (&Webull{}).Normalize(row(map[string]string{
		"Symbol": "NVDA", "Side": "Buy", "Status": "Cancelled",
		"Filled": "0", "Avg Price": "", "Filled Time": "",
	}))
	assert.ErrorIs(t, err, domain.ErrSkipRow)
}

func TestWebull_MissingPriceWithoutAmount(t *testing.T) {
	_, err := (&Webull{}).Normalize(row(map[string]string{
		"Symbol": "NVDA", "Side": "Buy", "Filled": "1", "Avg Price": "", "Filled Time": "03/05/2024",
	}))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestGeneric(t *testing.T) {
	_, err := NewGeneric(domain.ColumnMapping{ActivityDate: "Date"})
	assert.ErrorIs(t, err, domain.ErrSchemaMismatch)

	p, err := NewGeneric(domain.ColumnMapping{
		ActivityDate: "Date",
		Amount:       "Net",
		Instrument:   "Ticker",
		TransCode:    "Type",
		Quantity:     "Qty",
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Date", "Net", "Ticker", "Type", "Qty"}, p.Schema().Required)

	tx, err := p.Normalize(row(map[string]string{"Date": "2024-01-05", "Net": "-100", "Ticker": "vti", "Type": "buy", "Qty": "0.5"}))
	require.NoError(t, err)
	assert.Equal(t, "VTI", tx.Instrument)
	assert.Equal(t, "BUY", tx.TransCode)
	assert.True(t, dec("0.5").Equal(tx.Quantity.Decimal))

	tx, err = p.Normalize(row(map[string]string{"Date": "2024-01-05", "Net": "3", "Type": ""}))
	require.NoError(t, err)
	assert.Equal(t, "UNK", tx.TransCode)
}
