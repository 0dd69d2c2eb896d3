package broker

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/tradebook/internal/domain"
)

const (
	wbSymbol     = "Symbol"
	wbName       = "Name"
	wbSide       = "Side"
	wbStatus     = "Status"
	wbFilled     = "Filled"
	wbAvgPrice   = "Avg Price"
	wbFilledTime = "Filled Time"
	wbAmount     = "Amount"
)

// Webull normalizes Webull order history exports. Only filled orders carry
// ledger activity; cancelled and pending ones are skipped.
type Webull struct{}

func (p *Webull) Name() domain.Provider { return domain.ProviderWebull }

func (p *Webull) Schema() domain.CSVSchema {
	return domain.CSVSchema{Required: []string{wbSymbol, wbSide, wbFilled, wbAvgPrice, wbFilledTime}}
}

func (p *Webull) Normalize(row domain.RawRow) (*domain.Transaction, error) {
	if row.Has(wbStatus) && !strings.EqualFold(row.Get(wbStatus), "Filled") {
		return nil, domain.ErrSkipRow
	}

	activity, err := ParseDate(row.Get(wbFilledTime))
	if err != nil {
		return nil, fieldErr(wbFilledTime, row.Get(wbFilledTime), err)
	}
	qty, err := ParseQuantity(row.Get(wbFilled))
	if err != nil {
		return nil, fieldErr(wbFilled, row.Get(wbFilled), err)
	}
	price, err := ParseOptionalAmount(row.Get(wbAvgPrice))
	if err != nil {
		return nil, fieldErr(wbAvgPrice, row.Get(wbAvgPrice), err)
	}

	side := strings.ToUpper(row.Get(wbSide))
	code := domain.NormalizeTransCode(side)
	switch side {
	case "BUY", "B":
		code = "BUY"
	case "SELL", "S", "SHORT":
		code = "SELL"
	}

	var amount decimal.Decimal
	if row.Get(wbAmount) != "" {
		amount, err = ParseAmount(row.Get(wbAmount))
		if err != nil {
			return nil, fieldErr(wbAmount, row.Get(wbAmount), err)
		}
	} else {
		if !qty.Valid || !price.Valid {
			return nil, fieldErr(wbAmount, "", domain.ErrInvalidAmount)
		}
		amount = qty.Decimal.Abs().Mul(price.Decimal)
		if code == "BUY" {
			amount = amount.Neg()
		}
	}

	symbol := strings.ToUpper(row.Get(wbSymbol))
	instrument := symbol
	option := ParseOptionSymbol(symbol)
	if option != nil {
		instrument = option.Underlying
	}

	description := row.Get(wbName)
	if description == "" {
		description = symbol
	}

	return &domain.Transaction{
		ActivityDate: activity,
		Instrument:   instrument,
		Description:  description,
		TransCode:    code,
		Quantity:     qty,
		Price:        price,
		Amount:       amount,
		Option:       option,
	}, nil
}
