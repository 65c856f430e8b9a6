// Package provider defines the identity shape returned by external sign-in
// providers. Concrete verifiers live in sub-packages.
package provider

import "errors"

const (
	Google = "google"
	GitHub = "github"
)

// ErrEmailRequired means the provider authenticated the user but returned no
// usable, verified email address.
var ErrEmailRequired = errors.New("provider: email address required")

// Identity is a verified external identity.
type Identity struct {
	Provider string
	Subject  string
	Email    string
	Name     string
	Picture  string
}
