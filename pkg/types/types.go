package types

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// AccountType is a kind of a customer account
type AccountType string

const (
	// AccountTypeChecking is a checking (current) account
	AccountTypeChecking AccountType = "Checking"

	// AccountTypeSavings is a savings account
	AccountTypeSavings AccountType = "Savings"
)

// ErrUnknownAccountType is returned when account type can not be recognized
var ErrUnknownAccountType = errors.New("Unknown account type")

// ParseAccountType parses account type in a case insensitive way,
// so "checking" and "Checking" are both accepted
func ParseAccountType(val string) (AccountType, error) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "checking":
		return AccountTypeChecking, nil
	case "savings":
		return AccountTypeSavings, nil
	}
	return "", errors.Wrapf(ErrUnknownAccountType, "%q", val)
}

// AccountNumber is an account number token
type AccountNumber string

var recipientAccountNumberRe = regexp.MustCompile(`^\d{8,12}$`)

// Value is an underlying string
func (n AccountNumber) Value() string {
	return string(n)
}

// IsValidRecipient checks if the number is acceptable as a recipient
// account number (8-12 digits)
func (n AccountNumber) IsValidRecipient() bool {
	return recipientAccountNumberRe.MatchString(n.Value())
}

// LastFour returns last four digits of the number
func (n AccountNumber) LastFour() string {
	digits := make([]rune, 0, len(n))
	for _, r := range n.Value() {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) <= 4 {
		return string(digits)
	}
	return string(digits[len(digits)-4:])
}

// Masked returns the number with all but the last four digits hidden
func (n AccountNumber) Masked() string {
	return "**** **** **** " + n.LastFour()
}
