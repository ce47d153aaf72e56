package users

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// Blank is the empty JSON object some endpoints return on success.
type Blank struct{}

// RegisterAuthRoutes mounts the session lifecycle endpoints under /auth.
func RegisterAuthRoutes(app fiber.Router, opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	auth := app.Group("/auth")
	auth.Post("/sign-in", controller.SignIn)
	auth.Post("/sign-up", controller.SignUp)
	auth.Delete("/sign-out", controller.SignOut)
	auth.Get("/refresh-token", controller.RefreshToken)
	auth.Get("/me", controller.Gate.OptionalUser(), controller.Me)
}

// RegisterUserRoutes mounts the user management endpoints under /user.
// Every route requires an active superuser.
func RegisterUserRoutes(app fiber.Router, opts ...UserControllerOption) {
	controller := NewUserController(opts...)

	user := app.Group("/user", controller.Gate.CurrentSuperUser())
	user.Get("", controller.List)
	user.Post("", controller.Create)
	user.Get("/:id", controller.Show)
	user.Patch("/:id", controller.Update)
	user.Delete("/:id", controller.Remove)
}

type AuthController struct {
	Logger Logger
	Auther Authenticator
	Gate   *Gate
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Gate == nil {
		panic("Missing Gate in auth controller...")
	}

	return c
}

func WithAuthLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithAuther(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithAuthGate(gate *Gate) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Gate = gate
		return c
	}
}

// SignInRequest payload
type SignInRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r SignInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) SignIn(c *fiber.Ctx) error {
	payload := new(SignInRequest)

	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "Error parsing body")
	}

	if err := payload.Validate(); err != nil {
		return asValidationError(err)
	}

	res, err := a.Auther.SignIn(c.Context(), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Info("sign in error", "error", err)
		return err
	}

	return c.JSON(res)
}

// SignUpRequest payload
type SignUpRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Name     string `form:"name" json:"name"`
	Phone    string `form:"phone_number" json:"phone_number"`
}

// Validate will run validation rules
func (r SignUpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 50)),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
	)
}

func (a *AuthController) SignUp(c *fiber.Ctx) error {
	payload := new(SignUpRequest)

	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "Error parsing body")
	}

	if err := payload.Validate(); err != nil {
		return asValidationError(err)
	}

	user, err := a.Auther.SignUp(c.Context(), SignUpPayload{
		Email:    payload.Email,
		Password: payload.Password,
		Name:     payload.Name,
		Phone:    payload.Phone,
	})
	if err != nil {
		a.Logger.Error("sign up error", "error", err)
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

func (a *AuthController) SignOut(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return errors.New("Missing token", errors.CategoryBadInput)
	}

	if err := a.Auther.SignOut(c.Context(), token); err != nil {
		return err
	}

	return c.JSON(Blank{})
}

func (a *AuthController) RefreshToken(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return errors.New("Missing token", errors.CategoryBadInput)
	}

	res, err := a.Auther.Refresh(c.Context(), token)
	if err != nil {
		a.Logger.Info("refresh token error", "error", err)
		return err
	}

	return c.JSON(res)
}

// Me renders the caller's record, or null when the request carries no
// usable access token.
func (a *AuthController) Me(c *fiber.Ctx) error {
	user, ok := UserFromCtx(c)
	if !ok {
		return c.JSON(nil)
	}
	return c.JSON(user)
}

type UserController struct {
	Logger Logger
	Repo   RepositoryManager
	Gate   *Gate
}

type UserControllerOption func(*UserController) *UserController

func NewUserController(opts ...UserControllerOption) *UserController {
	c := &UserController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in user controller...")
	}

	if c.Gate == nil {
		panic("Missing Gate in user controller...")
	}

	return c
}

func WithUserLogger(logger Logger) UserControllerOption {
	return func(c *UserController) *UserController {
		c.Logger = logger
		return c
	}
}

func WithUserRepo(repo RepositoryManager) UserControllerOption {
	return func(c *UserController) *UserController {
		c.Repo = repo
		return c
	}
}

func WithUserGate(gate *Gate) UserControllerOption {
	return func(c *UserController) *UserController {
		c.Gate = gate
		return c
	}
}

// requireSuperuser re-checks the gate's verdict inside the handler so a
// misconfigured route group still refuses non superusers.
func (u *UserController) requireSuperuser(c *fiber.Ctx) (*User, error) {
	caller, ok := UserFromCtx(c)
	if !ok || !caller.IsSuperuser {
		return nil, ErrPermissionDenied
	}
	return caller, nil
}

func (u *UserController) List(c *fiber.Ctx) error {
	if _, err := u.requireSuperuser(c); err != nil {
		return err
	}

	query := UserQuery{}
	if err := c.QueryParser(&query); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "Error parsing query")
	}
	query.ApplyDefaults()

	founds, total, err := u.Repo.Users().List(c.Context(), query)
	if err != nil {
		u.Logger.Error("user list error", "error", err)
		return err
	}

	return c.JSON(NewFindResult(founds, query, total))
}

func (u *UserController) Show(c *fiber.Ctx) error {
	if _, err := u.requireSuperuser(c); err != nil {
		return err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrUserRecordNotFound
	}

	user, err := u.Repo.Users().GetByID(c.Context(), id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUserRecordNotFound
		}
		return err
	}

	return c.JSON(user)
}

// CreateUserRequest payload
type CreateUserRequest struct {
	Email       string `form:"email" json:"email"`
	Password    string `form:"password" json:"password"`
	Name        string `form:"name" json:"name"`
	Phone       string `form:"phone_number" json:"phone_number"`
	IsActive    *bool  `form:"is_active" json:"is_active"`
	IsSuperuser bool   `form:"is_superuser" json:"is_superuser"`
}

// Validate will run validation rules
func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 50)),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
	)
}

func (u *UserController) Create(c *fiber.Ctx) error {
	caller, err := u.requireSuperuser(c)
	if err != nil {
		return err
	}

	payload := new(CreateUserRequest)
	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "Error parsing body")
	}

	if err := payload.Validate(); err != nil {
		return asValidationError(err)
	}

	hash, err := HashPassword(payload.Password)
	if err != nil {
		return err
	}

	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}

	user, err := u.Repo.Users().Register(c.Context(), &User{
		Email:        payload.Email,
		PasswordHash: hash,
		Name:         payload.Name,
		Phone:        payload.Phone,
		IsActive:     active,
		IsSuperuser:  payload.IsSuperuser,
		CreatedBy:    &caller.ID,
	})
	if err != nil {
		u.Logger.Error("user create error", "error", err)
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// UpdateUserRequest payload. Only the fields present in the body change.
type UpdateUserRequest struct {
	Email       *string `form:"email" json:"email"`
	Password    *string `form:"password" json:"password"`
	Name        *string `form:"name" json:"name"`
	Phone       *string `form:"phone_number" json:"phone_number"`
	IsActive    *bool   `form:"is_active" json:"is_active"`
	IsSuperuser *bool   `form:"is_superuser" json:"is_superuser"`
}

// Validate will run validation rules
func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.Password, validation.Length(6, 100)),
		validation.Field(&r.Name, validation.Length(1, 50)),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumberPtr)),
	)
}

func (u *UserController) Update(c *fiber.Ctx) error {
	caller, err := u.requireSuperuser(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrUserRecordNotFound
	}

	payload := new(UpdateUserRequest)
	if err := c.BodyParser(payload); err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "Error parsing body")
	}

	if err := payload.Validate(); err != nil {
		return asValidationError(err)
	}

	patch := &UserPatch{
		Email:       payload.Email,
		Name:        payload.Name,
		Phone:       payload.Phone,
		IsActive:    payload.IsActive,
		IsSuperuser: payload.IsSuperuser,
		UpdatedBy:   &caller.ID,
	}

	if payload.Password != nil {
		hash, err := HashPassword(*payload.Password)
		if err != nil {
			return err
		}
		patch.PasswordHash = &hash
	}

	user, err := u.Repo.Users().Patch(c.Context(), id, patch)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUserRecordNotFound
		}
		u.Logger.Error("user update error", "error", err)
		return err
	}

	return c.JSON(user)
}

func (u *UserController) Remove(c *fiber.Ctx) error {
	if _, err := u.requireSuperuser(c); err != nil {
		return err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrUserRecordNotFound
	}

	if err := u.Repo.Users().Delete(c.Context(), id); err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUserRecordNotFound
		}
		return err
	}

	return c.JSON(Blank{})
}

// ValidatePhoneNumber accepts an empty value or a parseable, valid number.
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	return validatePhone(s)
}

// ValidatePhoneNumberPtr is the optional field variant.
func ValidatePhoneNumberPtr(value any) error {
	s, ok := value.(*string)
	if !ok || s == nil {
		return nil
	}
	return validatePhone(*s)
}

func validatePhone(s string) error {
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, "US")
	if err != nil {
		return validation.NewError("validation_phone", "phone number is invalid")
	}

	if !phonenumbers.IsValidNumber(num) {
		return validation.NewError("validation_phone", "phone number is invalid")
	}

	return nil
}

// asValidationError converts ozzo's field error map into the rich error
// the HTTP error handler knows how to render.
func asValidationError(err error) error {
	fields := map[string]any{}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			fields[field] = ferr.Error()
		}
	}

	return errors.New("Error validating payload", errors.CategoryValidation).
		WithMetadata(fields)
}
