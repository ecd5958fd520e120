package domain

import "errors"

var (
	ErrInvalidNodeSpec = errors.New("invalid node spec")
)
