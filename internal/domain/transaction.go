package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical calendar date encoding used for storage and hashing.
const DateLayout = "2006-01-02"

// ImportSource records how a transaction entered the ledger.
type ImportSource string

const (
	ImportSourceCSV ImportSource = "csv"
	ImportSourceAPI ImportSource = "api"
)

// TransCodeKind groups transaction codes.
type TransCodeKind string

const (
	KindTrade    TransCodeKind = "trade"
	KindIncome   TransCodeKind = "income"
	KindTransfer TransCodeKind = "transfer"
	KindFee      TransCodeKind = "fee"
	KindOther    TransCodeKind = "other"
)

var transCodeKinds = map[string]TransCodeKind{
	"BTO":   KindTrade,
	"STO":   KindTrade,
	"BTC":   KindTrade,
	"STC":   KindTrade,
	"BUY":   KindTrade,
	"SELL":  KindTrade,
	"OEXP":  KindTrade,
	"CDIV":  KindIncome,
	"DIV":   KindIncome,
	"INT":   KindIncome,
	"REINV": KindIncome,
	"SLIP":  KindIncome,
	"ACH":   KindTransfer,
	"ACATI": KindTransfer,
	"ACATO": KindTransfer,
	"GOLD":  KindFee,
	"AFEE":  KindFee,
	"DFEE":  KindFee,
}

// ClassifyTransCode returns the kind of a normalized code. Unknown codes are KindOther.
func ClassifyTransCode(code string) TransCodeKind {
	if kind, ok := transCodeKinds[code]; ok {
		return kind
	}
	return KindOther
}

// NormalizeTransCode upper-cases and trims a raw code.
func NormalizeTransCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// OptionType is call or put.
type OptionType string

const (
	OptionCall OptionType = "call"
	OptionPut  OptionType = "put"
)

// OptionDetail describes the contract behind an option trade.
type OptionDetail struct {
	Underlying string
	Type       OptionType
	Strike     decimal.Decimal
	Expiration time.Time
}

// Transaction is one canonical ledger line.
type Transaction struct {
	ID           string
	AccountID    string
	ImportID     string
	ActivityDate time.Time
	ProcessDate  *time.Time
	SettleDate   *time.Time
	Instrument   string
	Description  string
	TransCode    string
	Quantity     decimal.NullDecimal
	Price        decimal.NullDecimal
	Amount       decimal.Decimal
	Source       ImportSource
	Fingerprint  string
	SignMismatch bool
	Option       *OptionDetail
	ArchivedAt   *time.Time
	CreatedAt    time.Time
}

// Kind classifies the transaction code.
func (t *Transaction) Kind() TransCodeKind {
	return ClassifyTransCode(t.TransCode)
}

// SignConsistent reports whether the amount direction agrees with the code.
// Sells must credit the account and buys must debit it; other codes are unconstrained.
func (t *Transaction) SignConsistent() bool {
	switch t.TransCode {
	case "STO", "STC", "SELL":
		return t.Amount.Sign() > 0
	case "BTO", "BTC", "BUY":
		return t.Amount.Sign() < 0
	default:
		return true
	}
}

// Seal computes the derived fields: fingerprint and sign flag.
func (t *Transaction) Seal() {
	t.Fingerprint = Fingerprint(t.AccountID, t.Instrument, t.ActivityDate, t.TransCode, t.Quantity, t.Amount)
	t.SignMismatch = !t.SignConsistent()
}

// Fingerprint derives the duplicate-detection key of a transaction.
// Decimals are hashed in canonical form so 2 and 2.00 collide; an absent
// quantity hashes differently from zero.
func Fingerprint(accountID, instrument string, activityDate time.Time, transCode string, quantity decimal.NullDecimal, amount decimal.Decimal) string {
	h := sha256.New()

	writeField(h, accountID)
	writeField(h, strings.ToUpper(strings.TrimSpace(instrument)))
	writeField(h, activityDate.Format(DateLayout))
	writeField(h, NormalizeTransCode(transCode))
	if quantity.Valid {
		writeField(h, "q:"+quantity.Decimal.String())
	} else {
		writeField(h, "q:absent")
	}
	writeField(h, amount.String())

	return hex.EncodeToString(h.Sum(nil))
}

func writeField(h hash.Hash, s string) {
	fmt.Fprintf(h, "%d:%s;", len(s), s)
}

// TransactionFilter selects ledger lines for listing.
type TransactionFilter struct {
	AccountID       string
	Instrument      string
	From            *time.Time
	To              *time.Time
	IncludeArchived bool
	Limit           int
	Offset          int
}
