package broker

import (
	"strings"

	"github.com/iho/tradebook/internal/domain"
)

const (
	fidRunDate     = "Run Date"
	fidAction      = "Action"
	fidSymbol      = "Symbol"
	fidDescription = "Description"
	fidQuantity    = "Quantity"
	fidPrice       = "Price ($)"
	fidAmount      = "Amount ($)"
	fidSettleDate  = "Settlement Date"
)

// Fidelity normalizes Fidelity account history downloads. The file starts
// with free-text preamble and ends with a disclaimer block.
type Fidelity struct{}

func (p *Fidelity) Name() domain.Provider { return domain.ProviderFidelity }

func (p *Fidelity) Schema() domain.CSVSchema {
	return domain.CSVSchema{
		Required:     []string{fidRunDate, fidAction, fidSymbol, fidDescription, fidQuantity, fidAmount},
		HeaderMarker: fidRunDate,
		MinFields:    6,
	}
}

func (p *Fidelity) Normalize(row domain.RawRow) (*domain.Transaction, error) {
	activity, err := ParseDate(row.Get(fidRunDate))
	if err != nil {
		return nil, fieldErr(fidRunDate, row.Get(fidRunDate), err)
	}
	settle, err := ParseOptionalDate(row.Get(fidSettleDate))
	if err != nil {
		return nil, fieldErr(fidSettleDate, row.Get(fidSettleDate), err)
	}

	qty, err := ParseQuantity(row.Get(fidQuantity))
	if err != nil {
		return nil, fieldErr(fidQuantity, row.Get(fidQuantity), err)
	}
	price, err := ParseOptionalAmount(row.Get(fidPrice))
	if err != nil {
		return nil, fieldErr(fidPrice, row.Get(fidPrice), err)
	}
	amount, err := ParseAmount(row.Get(fidAmount))
	if err != nil {
		return nil, fieldErr(fidAmount, row.Get(fidAmount), err)
	}

	action := strings.ToUpper(row.Get(fidAction))
	description := row.Get(fidDescription)
	symbol := strings.ToUpper(row.Get(fidSymbol))

	option := ParseOptionSymbol(symbol)
	instrument := symbol
	if option != nil {
		instrument = option.Underlying
	} else {
		option = ParseOptionDescription(description)
	}

	if description != "" {
		description = action + " - " + description
	} else {
		description = action
	}

	return &domain.Transaction{
		ActivityDate: activity,
		SettleDate:   settle,
		Instrument:   instrument,
		Description:  description,
		TransCode:    fidelityCode(action),
		Quantity:     qty,
		Price:        price,
		Amount:       amount,
		Option:       option,
	}, nil
}

// fidelityCode maps Fidelity's free-text action to a transaction code.
// Unrecognized actions are kept verbatim.
func fidelityCode(action string) string {
	switch {
	case strings.Contains(action, "REINVESTMENT"):
		return "REINV"
	case strings.Contains(action, "DIVIDEND"):
		return "DIV"
	case strings.Contains(action, "INTEREST"):
		return "INT"
	case strings.Contains(action, "OPENING"):
		if strings.Contains(action, "BOUGHT") {
			return "BTO"
		}
		return "STO"
	case strings.Contains(action, "CLOSING"):
		if strings.Contains(action, "BOUGHT") {
			return "BTC"
		}
		return "STC"
	case strings.Contains(action, "BOUGHT"), strings.Contains(action, "BUY"):
		return "BUY"
	case strings.Contains(action, "SOLD"), strings.Contains(action, "SELL"):
		return "SELL"
	case strings.Contains(action, "EXPIRED"):
		return "OEXP"
	default:
		return domain.NormalizeTransCode(action)
	}
}
