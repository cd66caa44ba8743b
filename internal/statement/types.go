// Package statement holds the domain model for one German bank statement
// period (Kontoauszug): balance snapshots, classified ledger entries and the
// defensive mapping from the untrusted draft extraction a language model
// produces.
package statement

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is the closed classification of a ledger entry. The values are
// the German labels used on the report wire format.
type Category string

const (
	CategorySecurityPurchase  Category = "Wertpapierkauf"
	CategorySecuritySale      Category = "Wertpapierverkauf"
	CategorySecurityStatement Category = "Wertpapierabrechnung"
	CategoryTransferOutgoing  Category = "Überweisung ausgehend"
	CategoryTransferIncoming  Category = "Überweisung eingehend"
	CategoryCredit            Category = "Gutschrift"
	CategoryDirectDebit       Category = "Lastschrift"
	CategoryFee               Category = "Gebühren"
	CategoryCustodyFee        Category = "Verwahrentgelt"
	CategorySettlement        Category = "Abrechnung"
	CategoryInterest          Category = "Zinsen"
	CategoryInflow            Category = "Eingang"
	CategoryOutflow           Category = "Ausgang"
)

// DateLayout is the day.month.year form German statements use.
const DateLayout = "02.01.2006"

// SecurityRef identifies a security mentioned in an entry description.
// All fields are best-effort annotations; absence is not an error.
type SecurityRef struct {
	WKN  string `json:"wkn,omitempty"`
	ISIN string `json:"isin,omitempty"`
	Name string `json:"name,omitempty"`
}

// BalanceSnapshot is an extracted "Kontostand am ..." fact, the opening or
// closing balance of one statement period. Snapshots are always sourced from
// the document, never computed; the reconciliation engine derives its own
// value for comparison only and never overwrites this one.
type BalanceSnapshot struct {
	Amount       decimal.Decimal
	OriginalText string // amount exactly as printed in the document
	Date         string // dd.mm.yyyy
	Time         string // hh:mm, closing snapshots only
	StatementRef string // referenced statement number, opening snapshots only
	Description  string
}

// LedgerEntry is one dated, signed monetary movement within a statement
// period. Debits are negative, credits positive. Balance declaration lines
// are a distinct entity and never appear as entries.
type LedgerEntry struct {
	BookingDate  string // dd.mm.yyyy as printed
	ValueDate    string // dd.mm.yyyy, empty when the document states none
	Description  string
	Amount       decimal.Decimal
	OriginalText string
	Category     Category
	Security     *SecurityRef
}

// BookingTime parses the booking date; the zero time signals an absent or
// malformed date.
func (e *LedgerEntry) BookingTime() time.Time {
	t, err := time.Parse(DateLayout, e.BookingDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Period is one statement period: its document-sourced opening and closing
// snapshots and the ordered ledger entries between them.
type Period struct {
	Sequence int    // Auszug number, orders periods for continuity checks
	Source   string // originating file
	Opening  BalanceSnapshot
	Closing  BalanceSnapshot
	Entries  []LedgerEntry
}
