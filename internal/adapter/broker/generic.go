package broker

import (
	"fmt"
	"strings"

	"github.com/iho/tradebook/internal/domain"
)

const unknownTransCode = "UNK"

// Generic normalizes an arbitrary CSV through a caller supplied column mapping.
type Generic struct {
	mapping domain.ColumnMapping
}

// NewGeneric validates mapping and builds a provider from it.
func NewGeneric(mapping domain.ColumnMapping) (*Generic, error) {
	if strings.TrimSpace(mapping.ActivityDate) == "" || strings.TrimSpace(mapping.Amount) == "" {
		return nil, fmt.Errorf("%w: mapping needs activity_date and amount columns", domain.ErrSchemaMismatch)
	}
	return &Generic{mapping: mapping}, nil
}

func (p *Generic) Name() domain.Provider { return domain.ProviderGeneric }

func (p *Generic) Schema() domain.CSVSchema {
	required := []string{p.mapping.ActivityDate, p.mapping.Amount}
	for _, col := range []string{
		p.mapping.SettleDate, p.mapping.Instrument, p.mapping.Description,
		p.mapping.TransCode, p.mapping.Quantity, p.mapping.Price,
	} {
		if col != "" {
			required = append(required, col)
		}
	}
	return domain.CSVSchema{Required: required}
}

func (p *Generic) Normalize(row domain.RawRow) (*domain.Transaction, error) {
	m := p.mapping

	activity, err := ParseDate(row.Get(m.ActivityDate))
	if err != nil {
		return nil, fieldErr(m.ActivityDate, row.Get(m.ActivityDate), err)
	}
	amount, err := ParseAmount(row.Get(m.Amount))
	if err != nil {
		return nil, fieldErr(m.Amount, row.Get(m.Amount), err)
	}

	tx := &domain.Transaction{
		ActivityDate: activity,
		Amount:       amount,
		TransCode:    unknownTransCode,
	}

	if m.SettleDate != "" {
		if tx.SettleDate, err = ParseOptionalDate(row.Get(m.SettleDate)); err != nil {
			return nil, fieldErr(m.SettleDate, row.Get(m.SettleDate), err)
		}
	}
	if m.Quantity != "" {
		if tx.Quantity, err = ParseQuantity(row.Get(m.Quantity)); err != nil {
			return nil, fieldErr(m.Quantity, row.Get(m.Quantity), err)
		}
	}
	if m.Price != "" {
		if tx.Price, err = ParseOptionalAmount(row.Get(m.Price)); err != nil {
			return nil, fieldErr(m.Price, row.Get(m.Price), err)
		}
	}
	if m.TransCode != "" {
		if code := domain.NormalizeTransCode(row.Get(m.TransCode)); code != "" {
			tx.TransCode = code
		}
	}
	if m.Instrument != "" {
		tx.Instrument = strings.ToUpper(row.Get(m.Instrument))
	}
	if m.Description != "" {
		tx.Description = row.Get(m.Description)
		tx.Option = ParseOptionDescription(tx.Description)
	}

	return tx, nil
}
