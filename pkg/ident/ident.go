// Package ident converts int64 record identities to and from their
// decimal string form. Identities can exceed the 2^53 range that
// JSON numbers survive in most clients, so they travel as strings.
package ident

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrEmpty    = errors.New("identity is empty")
	ErrInvalid  = errors.New("identity is not a decimal integer")
	ErrRange    = errors.New("identity is out of range")
	ErrNegative = errors.New("identity must be positive")
)

// Format renders id as a decimal string.
func Format(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Parse decodes a decimal string into a positive int64 identity.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrEmpty
	}

	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return 0, ErrRange
		}
		return 0, ErrInvalid
	}

	if id <= 0 {
		return 0, ErrNegative
	}

	return id, nil
}
