package sessions

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/nyaruka/phonenumbers"
)

// RegisterSessionRoutes mounts the JSON session endpoints on the given router.
func RegisterSessionRoutes[T any](app router.Router[T], opts ...SessionControllerOption) {

	controller := NewSessionController(opts...)

	app.
		Post(controller.Routes.Signup, controller.SignupPost).
		SetName("session-signup.post")

	app.
		Post(controller.Routes.Login, controller.LoginPost).
		SetName("session-login.post")

	app.
		Post(controller.Routes.Logout, controller.LogoutPost).
		SetName("session-logout.post")

	app.
		Put(controller.Routes.ChangePassword, controller.ChangePasswordPut).
		SetName("session-change-pass.put")

	app.
		Put(controller.Routes.ResetPassword, controller.ResetPasswordPut).
		SetName("session-reset-pass.put")

	app.
		Get(controller.Routes.Session, controller.SessionGet).
		SetName("session-bootstrap.get")
}

type SessionControllerRoutes struct {
	Signup         string
	Login          string
	Logout         string
	ChangePassword string
	ResetPassword  string
	Session        string
}

type SessionController struct {
	Debug        bool
	Logger       Logger
	Routes       *SessionControllerRoutes
	Sessions     *HTTPSessions
	DefaultPhone string // region used to normalize phone numbers
	ErrorHandler func(c router.Context, err error) error
}

type SessionControllerOption func(*SessionController) *SessionController

func WithControllerSessions(sessions *HTTPSessions) SessionControllerOption {
	return func(c *SessionController) *SessionController {
		c.Sessions = sessions
		return c
	}
}

func WithControllerLogger(logger Logger) SessionControllerOption {
	return func(c *SessionController) *SessionController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerRoutes(routes *SessionControllerRoutes) SessionControllerOption {
	return func(c *SessionController) *SessionController {
		if routes != nil {
			c.Routes = routes
		}
		return c
	}
}

func NewSessionController(opts ...SessionControllerOption) *SessionController {
	c := &SessionController{
		Logger:       defLogger{},
		DefaultPhone: "US",
		Routes: &SessionControllerRoutes{
			Signup:         "/signup",
			Login:          "/login",
			Logout:         "/logout",
			ChangePassword: "/change-pass",
			ResetPassword:  "/reset-pass",
			Session:        "/session",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Sessions == nil {
		panic("Missing HTTPSessions in session controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = c.defaultErrHandler
	}

	return c
}

// SignupPayload is the account creation payload
type SignupPayload struct {
	Email           string `form:"email" json:"email"`
	Phone           string `form:"phone_number" json:"phone_number"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will run validation rules
func (r SignupPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.Length(7, 20)),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *SessionController) SignupPost(ctx router.Context) error {
	payload := new(SignupPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("signup parse payload", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "error parsing body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("signup validate payload", "error", err)
		return a.validationErrHandler(ctx, err)
	}

	var profile []AccountProfile
	if payload.Phone != "" {
		if normalized, err := a.normalizePhone(payload.Phone); err == nil {
			payload.Phone = normalized
		} else {
			a.Logger.Warn("signup phone normalization failed", "error", err)
		}
		profile = append(profile, AccountProfile{Phone: payload.Phone})
	}

	if a.Debug {
		a.Logger.Debug("signup payload", "payload", print.MaybePrettyJSON(payload))
	}

	user, err := a.Sessions.Signup(ctx, payload.Email, payload.Password, profile...)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := ctx.JSON(router.StatusOK, map[string]any{
		"user": user,
	}); err != nil {
		return err
	}

	a.dispatch(ctx, HookEventSignup, user, nil)
	return nil
}

func (a *SessionController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "error parsing body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("login validate payload", "error", err)
		return a.validationErrHandler(ctx, err)
	}

	user, err := a.Sessions.Login(ctx, payload)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := ctx.JSON(router.StatusOK, map[string]any{
		"user": user,
	}); err != nil {
		return err
	}

	a.dispatch(ctx, HookEventLogin, user, nil)
	return nil
}

func (a *SessionController) LogoutPost(ctx router.Context) error {
	if err := a.Sessions.Logout(ctx); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := ctx.JSON(router.StatusOK, map[string]any{
		"ok": true,
	}); err != nil {
		return err
	}

	a.dispatch(ctx, HookEventLogout, nil, nil)
	return nil
}

// ChangePasswordPayload carries the proof of the old password plus the new one
type ChangePasswordPayload struct {
	Identifier      string `form:"identifier" json:"identifier"`
	OldPassword     string `form:"old_password" json:"old_password"`
	NewPassword     string `form:"new_password" json:"new_password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will run validation rules
func (r ChangePasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required),
		validation.Field(&r.OldPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.NewPassword)),
		),
	)
}

func (a *SessionController) ChangePasswordPut(ctx router.Context) error {
	payload := new(ChangePasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("change password parse payload", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "error parsing body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("change password validate payload", "error", err)
		return a.validationErrHandler(ctx, err)
	}

	user, err := a.Sessions.Manager().ChangePassword(
		ctx.Context(),
		payload.Identifier,
		payload.OldPassword,
		payload.NewPassword,
	)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := ctx.JSON(router.StatusOK, map[string]any{
		"user": user,
	}); err != nil {
		return err
	}

	a.dispatch(ctx, HookEventPasswordChange, user, nil)
	return nil
}

// ResetPasswordPayload names the account whose password gets invalidated
type ResetPasswordPayload struct {
	Identifier string `form:"identifier" json:"identifier"`
}

// Validate will run validation rules
func (r ResetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required),
	)
}

func (a *SessionController) ResetPasswordPut(ctx router.Context) error {
	payload := new(ResetPasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("reset password parse payload", "error", err)
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "error parsing body").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("reset password validate payload", "error", err)
		return a.validationErrHandler(ctx, err)
	}

	user, err := a.Sessions.Manager().ResetPassword(ctx.Context(), payload.Identifier)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := ctx.JSON(router.StatusOK, map[string]any{
		"user": user,
	}); err != nil {
		return err
	}

	a.dispatch(ctx, HookEventPasswordReset, user, nil)
	return nil
}

// SessionGet issues a fresh anti-forgery cookie so unauthenticated clients
// can complete the double-submit pair on their first mutating request.
func (a *SessionController) SessionGet(ctx router.Context) error {
	token, err := a.Sessions.IssueAntiForgery(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	ctx.SetHeader("Cache-Control", "no-store, max-age=0")
	ctx.SetHeader("Pragma", "no-cache")
	ctx.SetHeader("Expires", "0")

	return ctx.JSON(router.StatusOK, map[string]any{
		"xsrf_token":  token,
		"header_name": a.Sessions.XSRFHeaderName(),
	})
}

func (a *SessionController) dispatch(ctx router.Context, event HookEventType, user *User, meta map[string]any) {
	hooks := a.Sessions.Manager().Hooks()
	if hooks == nil {
		return
	}
	hooks.Dispatch(ctx.Context(), HookEvent{
		EventType: event,
		User:      user,
		Metadata:  meta,
	})
}

func (a *SessionController) normalizePhone(raw string) (string, error) {
	num, err := phonenumbers.Parse(raw, a.DefaultPhone)
	if err != nil {
		return "", err
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

func (a *SessionController) validationErrHandler(ctx router.Context, err error) error {
	return ctx.JSON(router.StatusBadRequest, map[string]any{
		"error":      "validation failed",
		"validation": FormatValidationErrorToMap(err),
	})
}

func (a *SessionController) defaultErrHandler(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := router.StatusInternalServerError
	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		status = router.StatusUnauthorized
	case errors.CategoryBadInput, errors.CategoryValidation, errors.CategoryConflict:
		status = router.StatusBadRequest
	}

	if richErr.Code > 0 {
		status = richErr.Code
	}

	a.Logger.Info(
		"session controller error",
		"error", richErr.Message,
		"text_code", richErr.TextCode,
		"status", status,
	)

	return ctx.JSON(status, map[string]any{
		"error": richErr.Message,
		"code":  richErr.TextCode,
	})
}
