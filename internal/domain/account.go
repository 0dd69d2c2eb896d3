package domain

import (
	"strings"
	"time"
)

// Provider identifies the broker an account exports its history from.
type Provider string

const (
	ProviderRobinhood Provider = "robinhood"
	ProviderFidelity  Provider = "fidelity"
	ProviderSchwab    Provider = "schwab"
	ProviderWebull    Provider = "webull"
	ProviderGeneric   Provider = "generic"
)

// ParseProvider normalizes a provider name.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case ProviderRobinhood, ProviderFidelity, ProviderSchwab, ProviderWebull, ProviderGeneric:
		return p, nil
	default:
		return "", ErrUnsupportedProvider
	}
}

// Account is a brokerage account whose trade history is kept in the ledger.
type Account struct {
	ID        string
	Name      string
	Provider  Provider
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AcceptsImports reports whether new history may be written to the account.
func (a *Account) AcceptsImports() error {
	if !a.IsActive {
		return ErrAccountInactive
	}
	return nil
}
