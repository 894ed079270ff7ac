package owner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayoutProfileValidate(t *testing.T) {
	cases := []struct {
		name    string
		profile PayoutProfile
		reason  string
	}{
		{
			name:    "method unset",
			profile: PayoutProfile{},
			reason:  ReasonMethodUnset,
		},
		{
			name:    "bank without account",
			profile: PayoutProfile{Preferred: PayoutBank, Bank: BankAccount{BankName: "CRDB"}},
			reason:  ReasonBankDetailsMissing,
		},
		{
			name:    "bank without name",
			profile: PayoutProfile{Preferred: PayoutBank, Bank: BankAccount{AccountNumber: "0152-00334"}},
			reason:  ReasonBankDetailsMissing,
		},
		{
			name:    "wallet without number",
			profile: PayoutProfile{Preferred: PayoutMobileMoney, Wallet: MobileWallet{Provider: "MPESA"}},
			reason:  ReasonWalletDetailsMissing,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.profile.Validate()
			var incomplete *PayoutIncompleteError
			require.ErrorAs(t, err, &incomplete)
			assert.Equal(t, tc.reason, incomplete.Reason)
		})
	}
}

func TestPayoutProfileValidate_Complete(t *testing.T) {
	bank := PayoutProfile{
		Preferred: PayoutBank,
		Bank:      BankAccount{BankName: "NMB", AccountNumber: "2041-11982", AccountName: "J. Mushi"},
	}
	assert.NoError(t, bank.Validate())

	wallet := PayoutProfile{
		Preferred: PayoutMobileMoney,
		Wallet:    MobileWallet{Provider: "TIGOPESA", Number: "+255713000111"},
	}
	assert.NoError(t, wallet.Validate())
}

func TestPayoutProfileValidate_IgnoresUnselectedVariant(t *testing.T) {
	// Stale bank details must not satisfy a mobile-money selection.
	p := PayoutProfile{
		Preferred: PayoutMobileMoney,
		Bank:      BankAccount{BankName: "NMB", AccountNumber: "2041-11982"},
	}
	var incomplete *PayoutIncompleteError
	require.ErrorAs(t, p.Validate(), &incomplete)
	assert.Equal(t, ReasonWalletDetailsMissing, incomplete.Reason)
}
