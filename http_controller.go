package accounts

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

var fullnamePattern = regexp.MustCompile(`^[a-zA-Z ]+$`)

const passwordSpecialChars = "@$!%*?&"

// passwordComplexity enforces the signup and reset password rules: at
// least one lowercase letter, one uppercase letter, one digit, and one
// of @$!%*?&, with no characters outside that set.
func passwordComplexity(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	var lower, upper, digit, special bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecialChars, r):
			special = true
		default:
			return errors.New("must contain only letters, numbers, and @$!%*?& characters")
		}
	}

	if !lower || !upper || !digit || !special {
		return errors.New("must contain at least one uppercase letter, one lowercase letter, one number, and one special character")
	}

	return nil
}

// GenericResetMessage is returned by the forgot-password endpoint for
// known and unknown emails alike.
const GenericResetMessage = "If the email exists, a reset link has been sent"

// RegisterAuthRoutes mounts the account endpoints on the given router.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Signup, controller.SignUp).SetName("auth.signup")
	app.Post(controller.Routes.Login, controller.Login).SetName("auth.login")
	app.Post(controller.Routes.ForgotPassword, controller.ForgotPassword).SetName("auth.forgot-password")
	app.Post(controller.Routes.ResetPassword, controller.ResetPassword).SetName("auth.reset-password")
	app.Post(controller.Routes.Profile, controller.Profile, controller.Guard).SetName("auth.profile")

	return controller
}

type AuthControllerRoutes struct {
	Signup         string
	Login          string
	ForgotPassword string
	ResetPassword  string
	Profile        string
}

type AuthController struct {
	Debug     bool
	Logger    Logger
	Repo      RepositoryManager
	Auther    *Auther
	Publisher LifecyclePublisher
	Mailer    Mailer
	Guard     router.MiddlewareFunc
	Routes    *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:    defLogger{},
		Publisher: noopLifecyclePublisher{},
		Mailer:    noopMailer{},
		Routes: &AuthControllerRoutes{
			Signup:         "/auth/signup",
			Login:          "/auth/login",
			ForgotPassword: "/auth/forgot-password",
			ResetPassword:  "/auth/reset-password",
			Profile:        "/auth/profile",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Guard == nil {
		panic("Missing session guard in auth controller...")
	}

	return c
}

// WithControllerLogger sets the controller logger.
func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithControllerRepository sets the repository manager.
func WithControllerRepository(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

// WithControllerAuthenticator sets the authenticator.
func WithControllerAuthenticator(auther *Auther) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

// WithControllerPublisher sets the lifecycle event publisher.
func WithControllerPublisher(publisher LifecyclePublisher) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Publisher = normalizeLifecyclePublisher(publisher)
		return c
	}
}

// WithControllerMailer sets the mailer.
func WithControllerMailer(mailer Mailer) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Mailer = normalizeMailer(mailer)
		return c
	}
}

// WithControllerGuard sets the middleware protecting the profile route.
func WithControllerGuard(guard router.MiddlewareFunc) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Guard = guard
		return c
	}
}

// WithControllerDebug toggles request payload debugging.
func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

// SignUpRequest payload
type SignUpRequest struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r SignUpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Fullname,
			validation.Required,
			validation.Length(2, 100),
			validation.Match(fullnamePattern).Error("must contain only letters and spaces"),
		),
		validation.Field(
			&r.Email,
			validation.Required,
			validation.Length(0, 255),
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(8, 128),
			validation.By(passwordComplexity),
		),
	)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

// ForgotPasswordRequest payload
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// Validate will run validation rules
func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
	)
}

// ResetPasswordRequest payload. Expires is part of the request contract
// but plays no role in redemption, the stored expiry decides.
type ResetPasswordRequest struct {
	Token    string `json:"resetPasswordToken"`
	Password string `json:"password"`
	Expires  string `json:"resetPasswordExpires"`
}

// Validate will run validation rules
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Token,
			validation.Required,
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(8, 128),
			validation.By(passwordComplexity),
		),
		validation.Field(
			&r.Expires,
			validation.Required,
			validation.Date(time.RFC3339).Error("must be a valid ISO date string"),
		),
	)
}

func (a *AuthController) SignUp(ctx router.Context) error {
	payload := new(SignUpRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("signup parse payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": "Failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("signup validate payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error":      "Validation failed",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		fmt.Println("======= AUTH SIGNUP ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("==========================")
	}

	var created *User

	msg := RegisterUserMessage{
		Fullname: payload.Fullname,
		Email:    payload.Email,
		Password: payload.Password,
		OnResponse: func(resp *RegisterUserResponse) {
			created = resp.User
		},
	}

	registerUser := NewRegisterUserHandler(a.Repo).
		WithLifecyclePublisher(a.Publisher).
		WithMailer(a.Mailer).
		WithLogger(a.Logger)

	if err := registerUser.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("signup execute error", "error", err)
		return RenderError(ctx, err)
	}

	token, err := a.Auther.TokenService().Generate(NewIdentityFromUser(created))
	if err != nil {
		a.Logger.Error("signup token generation error", "error", err)
		return RenderError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"access_token": token,
		"user":         created.Public(),
	})
}

func (a *AuthController) Login(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": "Failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("login validate payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error":      "Validation failed",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	token, identity, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		// Bad passwords and unknown accounts get the same answer.
		return ctx.JSON(router.StatusUnauthorized, map[string]any{
			"error": "Invalid credentials",
		})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"access_token": token,
		"user": map[string]any{
			"id":       identity.ID(),
			"email":    identity.Email(),
			"fullname": identity.Fullname(),
		},
	})
}

func (a *AuthController) ForgotPassword(ctx router.Context) error {
	payload := new(ForgotPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("forgot password parse payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": "Failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("forgot password validate payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error":      "Validation failed",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	msg := InitializePasswordResetMessage{
		Email: payload.Email,
	}

	initReset := NewInitializePasswordResetHandler(a.Repo).
		WithLifecyclePublisher(a.Publisher).
		WithMailer(a.Mailer).
		WithLogger(a.Logger)

	if err := initReset.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("forgot password execute error", "error", err)
		return RenderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": GenericResetMessage,
	})
}

func (a *AuthController) ResetPassword(ctx router.Context) error {
	payload := new(ResetPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("reset password parse payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": "Failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("reset password validate payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error":      "Validation failed",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	msg := FinalizePasswordResetMessage{
		Token:    payload.Token,
		Password: payload.Password,
	}

	finalizeReset := NewFinalizePasswordResetHandler(a.Repo).
		WithLifecyclePublisher(a.Publisher).
		WithLogger(a.Logger)

	if err := finalizeReset.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("reset password execute error", "error", err)
		return RenderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "Password has been reset successfully",
	})
}

func (a *AuthController) Profile(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, "")
	if !ok {
		return ctx.JSON(router.StatusUnauthorized, map[string]any{
			"error": "Invalid or missing session",
		})
	}

	identity, err := a.Auther.IdentityFromSession(ctx.Context(), &SessionObject{
		UserID: claims.UserID(),
		Email:  claims.Email(),
	})
	if err != nil {
		a.Logger.Error("profile identity lookup error", "error", err)
		return ctx.JSON(router.StatusUnauthorized, map[string]any{
			"error": "Invalid or missing session",
		})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": map[string]any{
			"id":       identity.ID(),
			"email":    identity.Email(),
			"fullname": identity.Fullname(),
		},
	})
}
