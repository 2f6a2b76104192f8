//go:build race

package accounts

import "golang.org/x/crypto/bcrypt"

// The race detector slows bcrypt enough to time out test suites, so we
// fall back to the library default cost when it is enabled.
func passwordHashCost() int {
	return bcrypt.DefaultCost
}
