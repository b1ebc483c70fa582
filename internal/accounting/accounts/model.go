package accounts

import "errors"

// ErrNotFound indicates the code is not in the chart of accounts.
var ErrNotFound = errors.New("accounts: account not found")

// Account is the directory entry used to label voucher lines.
type Account struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// Label renders "code - description", or the bare code when unknown.
func (a Account) Label() string {
	if a.Description == "" {
		return a.Code
	}
	return a.Code + " - " + a.Description
}
