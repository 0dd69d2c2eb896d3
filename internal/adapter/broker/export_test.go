package broker

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/tradebook/internal/adapter/csvfile"
	"github.com/iho/tradebook/internal/domain"
)

func TestFormatMoney(t *testing.T) {
	tests := map[string]string{
		"1234.56":  "$1,234.56",
		"-1234.5":  "($1,234.50)",
		"0":        "$0.00",
		"0.0042":   "$0.0042",
		"-0.00001": "($0.00001)",
		"1000000":  "$1,000,000.00",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatMoney(decimal.RequireFromString(in)), in)
	}
}

func TestWriteRobinhoodCSV_RoundTrip(t *testing.T) {
	settle := date(2024, 6, 4)
	original := []*domain.Transaction{
		{
			AccountID:    "acct-1",
			ActivityDate: date(2024, 6, 3),
			SettleDate:   &settle,
			Instrument:   "AAPL",
			Description:  "AAPL 6/21/2024 Call $190.00",
			TransCode:    "STO",
			Quantity:     decimal.NewNullDecimal(dec("1")),
			Price:        decimal.NewNullDecimal(dec("2.50")),
			Amount:       dec("249.95"),
		},
		{
			AccountID:    "acct-1",
			ActivityDate: date(2024, 6, 5),
			Instrument:   "VTI",
			Description:  "Vanguard, \"Total\" Market",
			TransCode:    "BUY",
			Quantity:     decimal.NewNullDecimal(dec("0.123456")),
			Amount:       dec("-1234.5"),
		},
		{
			AccountID:    "acct-1",
			ActivityDate: date(2024, 6, 6),
			Description:  "Interest Payment",
			TransCode:    "INT",
			Amount:       dec("0.0042"),
		},
	}
	for _, tx := range original {
		tx.Seal()
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRobinhoodCSV(&buf, original))
	assert.True(t, strings.HasPrefix(buf.String(), strings.Join(RobinhoodHeader, ",")+"\n"))

	p := &Robinhood{}
	r, err := csvfile.NewReader(&buf, p.Schema())
	require.NoError(t, err)

	var got []*domain.Transaction
	for {
		raw, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		tx, err := p.Normalize(raw)
		require.NoError(t, err)
		tx.AccountID = "acct-1"
		tx.Seal()
		got = append(got, tx)
	}

	require.Len(t, got, len(original))
	for i := range original {
		assert.Equal(t, original[i].Fingerprint, got[i].Fingerprint, "row %d", i)
		assert.Equal(t, original[i].Description, got[i].Description)
	}
	assert.False(t, got[2].Price.Valid)
}
