package broker

import (
	"strings"

	"github.com/iho/tradebook/internal/domain"
)

// Robinhood column names.
const (
	rhActivityDate = "Activity Date"
	rhProcessDate  = "Process Date"
	rhSettleDate   = "Settle Date"
	rhInstrument   = "Instrument"
	rhDescription  = "Description"
	rhTransCode    = "Trans Code"
	rhQuantity     = "Quantity"
	rhPrice        = "Price"
	rhAmount       = "Amount"
)

// RobinhoodHeader is the column order of a Robinhood activity export.
var RobinhoodHeader = []string{
	rhActivityDate, rhProcessDate, rhSettleDate, rhInstrument, rhDescription,
	rhTransCode, rhQuantity, rhPrice, rhAmount,
}

// Robinhood normalizes Robinhood account activity exports.
type Robinhood struct{}

func (p *Robinhood) Name() domain.Provider { return domain.ProviderRobinhood }

func (p *Robinhood) Schema() domain.CSVSchema {
	return domain.CSVSchema{Required: RobinhoodHeader}
}

func (p *Robinhood) Normalize(row domain.RawRow) (*domain.Transaction, error) {
	activity, err := ParseDate(row.Get(rhActivityDate))
	if err != nil {
		return nil, fieldErr(rhActivityDate, row.Get(rhActivityDate), err)
	}
	process, err := ParseOptionalDate(row.Get(rhProcessDate))
	if err != nil {
		return nil, fieldErr(rhProcessDate, row.Get(rhProcessDate), err)
	}
	settle, err := ParseOptionalDate(row.Get(rhSettleDate))
	if err != nil {
		return nil, fieldErr(rhSettleDate, row.Get(rhSettleDate), err)
	}

	qty, err := ParseQuantity(row.Get(rhQuantity))
	if err != nil {
		return nil, fieldErr(rhQuantity, row.Get(rhQuantity), err)
	}
	price, err := ParseOptionalAmount(row.Get(rhPrice))
	if err != nil {
		return nil, fieldErr(rhPrice, row.Get(rhPrice), err)
	}
	amount, err := ParseAmount(row.Get(rhAmount))
	if err != nil {
		return nil, fieldErr(rhAmount, row.Get(rhAmount), err)
	}

	description := row.Get(rhDescription)

	return &domain.Transaction{
		ActivityDate: activity,
		ProcessDate:  process,
		SettleDate:   settle,
		Instrument:   strings.ToUpper(row.Get(rhInstrument)),
		Description:  description,
		TransCode:    domain.NormalizeTransCode(row.Get(rhTransCode)),
		Quantity:     qty,
		Price:        price,
		Amount:       amount,
		Option:       ParseOptionDescription(description),
	}, nil
}
