package accounts

import (
	"context"

	"github.com/goliatone/go-accounts/middleware/jwtware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// APIAuthenticator guards JSON routes with bearer-token sessions.
type APIAuthenticator struct {
	auth         Authenticator
	validator    TokenValidator
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther *Auther, cfg Config) (*APIAuthenticator, error) {
	a := &APIAuthenticator{
		cfg:       cfg,
		auth:      auther,
		validator: auther.TokenService(),
		Logger:    defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

// WithLogger overrides the logger used by the authenticator.
func (a *APIAuthenticator) WithLogger(logger Logger) *APIAuthenticator {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

// ProtectedRoute builds the middleware enforcing a valid session token.
// Claims land in router locals under the configured context key and in
// the request's standard context.
func (a *APIAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return jwtware.New(jwtware.Config{
			ErrorHandler:   errorHandler,
			AuthScheme:     cfg.GetAuthScheme(),
			ContextKey:     cfg.GetContextKey(),
			TokenLookup:    cfg.GetTokenLookup(),
			TokenValidator: tokenValidatorAdapter{validator: a.validator},
			ContextEnricher: func(ctx context.Context, claims jwtware.AuthClaims) context.Context {
				if ac, ok := claims.(AuthClaims); ok {
					return WithClaimsContext(ctx, ac)
				}
				return ctx
			},
		})(hf)
	}
}

// MakeAPIAuthErrorHandler normalizes guard failures into 401 JSON
// responses. With optional set, failures fall through to the handler
// without a session.
func (a *APIAuthenticator) MakeAPIAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding", "error", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

func (a *APIAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "An unexpected authentication error").
			WithCode(errors.CodeUnauthorized)
	}

	a.Logger.Info(
		"Authentication error",
		"error", richErr.Message,
		"text_code", richErr.TextCode,
		"path", c.OriginalURL(),
	)

	return RenderError(c, richErr)
}

// RenderError maps a rich error to a JSON response, exposing only the
// public message and text code.
func RenderError(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		status = statusFromCategory(richErr.Category)
	}

	message := richErr.Message
	if status >= router.StatusInternalServerError {
		message = "An unexpected server error occurred"
	}

	body := map[string]any{
		"error": message,
	}
	if richErr.TextCode != "" {
		body["code"] = richErr.TextCode
	}

	return c.JSON(status, body)
}

func statusFromCategory(category errors.Category) int {
	switch category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return router.StatusUnauthorized
	case errors.CategoryValidation, errors.CategoryBadInput:
		return router.StatusBadRequest
	case errors.CategoryConflict:
		return router.StatusConflict
	case errors.CategoryNotFound:
		return router.StatusNotFound
	default:
		return router.StatusInternalServerError
	}
}

// tokenValidatorAdapter bridges the package validator into the mirror
// interface jwtware declares to avoid an import cycle.
type tokenValidatorAdapter struct {
	validator TokenValidator
}

func (t tokenValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := t.validator.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
