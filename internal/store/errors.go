package store

import "errors"

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrDuplicateAccount  = errors.New("duplicate account")
	ErrInsufficientFunds = errors.New("insufficient funds")
)
