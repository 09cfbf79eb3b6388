package service

import "errors"

var (
	ErrFeePolicy         = errors.New("unknown fee payer policy")
	ErrSelfTransfer      = errors.New("self transactions are not allowed")
	ErrExecWindow        = errors.New("execution time outside the three day window")
	ErrSenderNotFound    = errors.New("sender does not exist")
	ErrRecipientNotFound = errors.New("recipient does not exist")
	ErrNotRegistered     = errors.New("party not registered at execution time")
	ErrNotLoggedIn       = errors.New("account is not logged in")
	ErrUnauthorized      = errors.New("session is not authorized")
	ErrEmptyInterval     = errors.New("empty time interval")
)
