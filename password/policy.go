package password

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

var (
	ErrTooShort      = errors.New("password is too short")
	ErrTooLong       = errors.New("password is too long")
	ErrMissingUpper  = errors.New("password needs an uppercase letter")
	ErrMissingLower  = errors.New("password needs a lowercase letter")
	ErrMissingDigit  = errors.New("password needs a digit")
	ErrMissingSymbol = errors.New("password needs a symbol")
)

// Policy is the strength rule applied to user-chosen passwords. Federated
// accounts get a synthetic password and never pass through it.
type Policy struct {
	MinLength     int
	MaxLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
}

// DefaultPolicy: 8..128 characters with upper, lower, digit and symbol.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:     8,
		MaxLength:     128,
		RequireUpper:  true,
		RequireLower:  true,
		RequireDigit:  true,
		RequireSymbol: true,
	}
}

// DefaultConfig is the production Argon2id cost (64 MiB, 3 passes).
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Check returns the first rule pw violates, or nil. Length counts runes.
func (p Policy) Check(pw string) error {
	n := utf8.RuneCountInString(pw)
	if n < p.MinLength {
		return ErrTooShort
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		return ErrTooLong
	}

	var upper, lower, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r) || r == ' ':
			symbol = true
		}
	}

	switch {
	case p.RequireUpper && !upper:
		return ErrMissingUpper
	case p.RequireLower && !lower:
		return ErrMissingLower
	case p.RequireDigit && !digit:
		return ErrMissingDigit
	case p.RequireSymbol && !symbol:
		return ErrMissingSymbol
	}
	return nil
}
