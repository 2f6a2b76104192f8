package accounts

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes attached to rich errors so API clients can branch on a
// stable identifier instead of the human readable message.
const (
	TextCodeInvalidCreds      = "INVALID_CREDENTIALS"
	TextCodeEmailRegistered   = "EMAIL_REGISTERED"
	TextCodeResetTokenInvalid = "RESET_TOKEN_INVALID"
	TextCodeTokenExpired      = "TOKEN_EXPIRED"
	TextCodeTokenMalformed    = "TOKEN_MALFORMED"
	TextCodeEmptyPassword     = "EMPTY_PASSWORD"
	TextCodeSessionNotFound   = "SESSION_NOT_FOUND"
	TextCodeSessionDecodeErr  = "SESSION_DECODE_ERROR"
	TextCodeClaimsMappingErr  = "CLAIMS_MAPPING_ERROR"
	TextCodeDataParseErr      = "DATA_PARSE_ERROR"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrMismatchedHashAndPassword is returned for any credential failure,
// including unknown identifiers, so callers cannot probe for accounts.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCreds)

// ErrNoEmptyString is returned when asked to hash an empty password
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeEmptyPassword)

// ErrEmailRegistered signals a signup against an email that already has an account
var ErrEmailRegistered = errors.New("Email already exists", errors.CategoryConflict).
	WithCode(errors.CodeConflict).
	WithTextCode(TextCodeEmailRegistered)

// ErrResetTokenInvalid covers unknown, consumed, and expired reset tokens alike
var ErrResetTokenInvalid = errors.New("Invalid or expired reset token", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeResetTokenInvalid)

// ErrTokenExpired is returned when a session token is past its exp claim
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed is returned for tokens we cannot parse or verify
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrUnableToFindSession is the error when our request carries no token
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeSessionNotFound)

// ErrUnableToDecodeSession unable to decode JWT claims
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeSessionDecodeErr)

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = errors.New("unable to map claims", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeClaimsMappingErr)

// ErrUnableToParseData parse error
var ErrUnableToParseData = errors.New("unable to parse data", errors.CategoryInternal).
	WithCode(errors.CodeInternal).
	WithTextCode(TextCodeDataParseErr)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}

	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}

	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
