package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateAccountName(t *testing.T) {
	t.Parallel()

	t.Run("valid name", func(t *testing.T) {
		if err := ValidateAccountName("Robinhood IRA"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("empty name rejected", func(t *testing.T) {
		err := ValidateAccountName("   ")
		if !errors.Is(err, ErrInvalidAccountName) {
			t.Fatalf("expected ErrInvalidAccountName, got %v", err)
		}
	})

	t.Run("name too long", func(t *testing.T) {
		tooLong := strings.Repeat("a", MaxAccountNameLength+1)
		err := ValidateAccountName(tooLong)
		if !errors.Is(err, ErrInvalidAccountName) {
			t.Fatalf("expected ErrInvalidAccountName, got %v", err)
		}
	})
}

func TestValidateID(t *testing.T) {
	t.Parallel()

	if err := ValidateID("01ARZ3NDEKTSV4RRFFQ69G5FAV"); err != nil {
		t.Fatalf("expected valid ULID, got %v", err)
	}

	if err := ValidateID("not-an-id"); !errors.Is(err, ErrInvalidIDFormat) {
		t.Fatalf("expected ErrInvalidIDFormat, got %v", err)
	}
}

func TestValidateTransaction(t *testing.T) {
	t.Parallel()

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		tx      Transaction
		wantErr error
	}{
		{
			name: "valid trade",
			tx:   Transaction{ActivityDate: date, Instrument: "AAPL", TransCode: "buy"},
		},
		{
			name: "cash row without instrument",
			tx:   Transaction{ActivityDate: date, TransCode: "INT"},
		},
		{
			name:    "missing date",
			tx:      Transaction{Instrument: "AAPL", TransCode: "BUY"},
			wantErr: ErrInvalidDate,
		},
		{
			name:    "bad instrument",
			tx:      Transaction{ActivityDate: date, Instrument: "AAPL;--", TransCode: "BUY"},
			wantErr: ErrInvalidInstrument,
		},
		{
			name:    "missing code",
			tx:      Transaction{ActivityDate: date, Instrument: "AAPL"},
			wantErr: ErrInvalidTransCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransaction(&tt.tx)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNormalizePage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		limit, offset, max    int
		wantLimit, wantOffset int
	}{
		{0, -5, MaxPageSize, DefaultPageSize, 0},
		{5000, 10, MaxPageSize, MaxPageSize, 10},
		{30, 0, 100, 30, 0},
		{0, 0, 20, 20, 0},
	}

	for _, tt := range tests {
		limit, offset := NormalizePage(tt.limit, tt.offset, tt.max)
		if limit != tt.wantLimit || offset != tt.wantOffset {
			t.Errorf("NormalizePage(%d, %d, %d) = %d, %d; want %d, %d",
				tt.limit, tt.offset, tt.max, limit, offset, tt.wantLimit, tt.wantOffset)
		}
	}
}
