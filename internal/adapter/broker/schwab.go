package broker

import (
	"strings"

	"github.com/iho/tradebook/internal/domain"
)

const (
	schDate        = "Date"
	schAction      = "Action"
	schSymbol      = "Symbol"
	schDescription = "Description"
	schQuantity    = "Quantity"
	schPrice       = "Price"
	schAmount      = "Amount"
)

var schwabCodes = map[string]string{
	"BUY":                  "BUY",
	"SELL":                 "SELL",
	"BUY TO OPEN":          "BTO",
	"SELL TO OPEN":         "STO",
	"BUY TO CLOSE":         "BTC",
	"SELL TO CLOSE":        "STC",
	"CASH DIVIDEND":        "CDIV",
	"QUALIFIED DIVIDEND":   "DIV",
	"NON-QUALIFIED DIV":    "DIV",
	"SPECIAL DIVIDEND":     "DIV",
	"BANK INTEREST":        "INT",
	"CREDIT INTEREST":      "INT",
	"REINVEST SHARES":      "REINV",
	"REINVEST DIVIDEND":    "REINV",
	"EXPIRED":              "OEXP",
	"MONEYLINK TRANSFER":   "ACH",
	"MONEYLINK DEPOSIT":    "ACH",
	"ADR MGMT FEE":         "AFEE",
	"SERVICE FEE":          "AFEE",
	"FOREIGN TAX PAID":     "FTAX",
	"JOURNALED SHARES":     "JNLS",
	"STOCK PLAN ACTIVITY":  "SPA",
	"SECURITY TRANSFER":    "ACATI",
	"INTERNAL TRANSFER":    "ACH",
	"WIRE FUNDS":           "ACH",
	"WIRE FUNDS RECEIVED":  "ACH",
	"PRIOR YEAR CASH DIV":  "CDIV",
	"QUAL DIV REINVEST":    "REINV",
	"PR YR DIV REINVEST":   "REINV",
	"CASH IN LIEU":         "CIL",
	"ASSIGNED":             "OASGN",
	"EXCHANGE OR EXERCISE": "OEXCS",
}

// Schwab normalizes Charles Schwab transaction history exports.
type Schwab struct{}

func (p *Schwab) Name() domain.Provider { return domain.ProviderSchwab }

func (p *Schwab) Schema() domain.CSVSchema {
	return domain.CSVSchema{
		Required:     []string{schDate, schAction, schSymbol, schDescription, schQuantity, schPrice, schAmount},
		HeaderMarker: schDate,
		MinFields:    4,
	}
}

func (p *Schwab) Normalize(row domain.RawRow) (*domain.Transaction, error) {
	// "10/14/2025 as of 10/13/2025": the first date is when the activity posted.
	activity, err := ParseDate(row.Get(schDate))
	if err != nil {
		return nil, fieldErr(schDate, row.Get(schDate), err)
	}

	qty, err := ParseQuantity(row.Get(schQuantity))
	if err != nil {
		return nil, fieldErr(schQuantity, row.Get(schQuantity), err)
	}
	price, err := ParseOptionalAmount(row.Get(schPrice))
	if err != nil {
		return nil, fieldErr(schPrice, row.Get(schPrice), err)
	}
	amount, err := ParseAmount(row.Get(schAmount))
	if err != nil {
		return nil, fieldErr(schAmount, row.Get(schAmount), err)
	}

	action := strings.ToUpper(row.Get(schAction))
	code, ok := schwabCodes[action]
	if !ok {
		code = domain.NormalizeTransCode(action)
	}

	symbol := strings.ToUpper(row.Get(schSymbol))
	instrument := symbol
	option := ParseOptionSymbol(symbol)
	if option != nil {
		instrument = option.Underlying
	}

	return &domain.Transaction{
		ActivityDate: activity,
		Instrument:   instrument,
		Description:  row.Get(schDescription),
		TransCode:    code,
		Quantity:     qty,
		Price:        price,
		Amount:       amount,
		Option:       option,
	}, nil
}
