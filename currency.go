package tracker

import "github.com/Rhymond/go-money"

// ValidateCurrency checks that a currency code is a known ISO-4217 code.
func ValidateCurrency(code string) error {
	if code == "" {
		return &ValidationError{Field: "currency", Message: "currency code is missing"}
	}
	if money.GetCurrency(code) == nil {
		return &ValidationError{Field: "currency", Message: "unknown currency code " + code}
	}
	return nil
}
