package domain

import (
	"errors"
	"testing"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		input   string
		want    Provider
		wantErr bool
	}{
		{"robinhood", ProviderRobinhood, false},
		{"  Fidelity ", ProviderFidelity, false},
		{"SCHWAB", ProviderSchwab, false},
		{"webull", ProviderWebull, false},
		{"generic", ProviderGeneric, false},
		{"etrade", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseProvider(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedProvider) {
					t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseProvider(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestAccount_AcceptsImports(t *testing.T) {
	active := &Account{ID: "acc-1", IsActive: true}
	if err := active.AcceptsImports(); err != nil {
		t.Fatalf("expected active account to accept imports, got %v", err)
	}

	inactive := &Account{ID: "acc-2"}
	if err := inactive.AcceptsImports(); !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
}
