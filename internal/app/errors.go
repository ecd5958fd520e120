package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound            = errors.New("not found")
	ErrUnknownFormat       = errors.New("unknown format")
	ErrUnsupportedLanguage = errors.New("unsupported language")
)
