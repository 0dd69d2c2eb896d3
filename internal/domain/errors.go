package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountInactive = errors.New("account is inactive")

	// Ledger errors
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrStorageFailure      = errors.New("storage failure")

	// Import errors
	ErrSchemaMismatch      = errors.New("csv header does not match provider schema")
	ErrMalformedRow        = errors.New("malformed row")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrImportInProgress    = errors.New("another import is running for this account")
	ErrFileTooLarge        = errors.New("upload exceeds size limit")
	ErrImportNotFound      = errors.New("import not found")
	ErrSkipRow             = errors.New("row carries no activity")

	// Auth errors
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)
