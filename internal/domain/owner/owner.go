package owner

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrOwnerNotFound = errors.New("owner: not found")

// PayoutMethod is the owner-selected settlement destination kind.
type PayoutMethod string

const (
	PayoutUnset       PayoutMethod = ""
	PayoutBank        PayoutMethod = "BANK"
	PayoutMobileMoney PayoutMethod = "MOBILE_MONEY"
)

// Machine-readable reasons carried by PayoutIncompleteError for UI display.
const (
	ReasonMethodUnset          = "payout_method_unset"
	ReasonBankDetailsMissing   = "bank_details_missing"
	ReasonWalletDetailsMissing = "wallet_details_missing"
)

// PayoutIncompleteError blocks invoice approval until the owner finishes
// their payout profile.
type PayoutIncompleteError struct {
	Reason string
}

func (e *PayoutIncompleteError) Error() string {
	return fmt.Sprintf("owner: payout profile incomplete (%s)", e.Reason)
}

type BankAccount struct {
	BankName      string `bson:"bank_name"`
	AccountNumber string `bson:"account_number"`
	AccountName   string `bson:"account_name"`
}

type MobileWallet struct {
	Provider string `bson:"provider"`
	Number   string `bson:"number"`
}

// PayoutProfile is a tagged union keyed by Preferred: only the variant
// matching the selected method is consulted.
type PayoutProfile struct {
	Preferred PayoutMethod `bson:"preferred"`
	Bank      BankAccount  `bson:"bank"`
	Wallet    MobileWallet `bson:"wallet"`
}

// Validate is the payout eligibility gate. It returns nil only when the
// selected method has complete destination details.
func (p PayoutProfile) Validate() error {
	switch p.Preferred {
	case PayoutBank:
		if blank(p.Bank.BankName) || blank(p.Bank.AccountNumber) {
			return &PayoutIncompleteError{Reason: ReasonBankDetailsMissing}
		}
		return nil
	case PayoutMobileMoney:
		if blank(p.Wallet.Provider) || blank(p.Wallet.Number) {
			return &PayoutIncompleteError{Reason: ReasonWalletDetailsMissing}
		}
		return nil
	default:
		return &PayoutIncompleteError{Reason: ReasonMethodUnset}
	}
}

// Owner is the property owner receiving settlements. The engine reads the
// payout profile; owner self-service mutates it elsewhere.
type Owner struct {
	ID     string
	Name   string
	Phone  string
	Payout PayoutProfile
}

type Repository interface {
	ByID(ctx context.Context, id string) (*Owner, error)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
