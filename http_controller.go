package crm

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// APIController exposes the CRM resources over JSON. Every handler resolves
// the principal from the request context, asks the Authorizer, and only then
// touches the repositories.
type APIController struct {
	Debug  bool
	Logger Logger
	Repo   RepositoryManager
	Authz  *Authorizer
	Auther *Auther
}

type APIControllerOption func(*APIController) *APIController

func WithControllerLogger(l Logger) APIControllerOption {
	return func(c *APIController) *APIController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

func WithControllerDebug(debug bool) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Debug = debug
		return c
	}
}

func NewAPIController(repo RepositoryManager, authz *Authorizer, auther *Auther, opts ...APIControllerOption) *APIController {
	c := &APIController{
		Logger: defLogger{},
		Repo:   repo,
		Authz:  authz,
		Auther: auther,
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in api controller...")
	}

	if c.Authz == nil {
		panic("Missing Authorizer in api controller...")
	}

	return c
}

// RegisterPublicRoutes mounts the unauthenticated endpoints
func (a *APIController) RegisterPublicRoutes(app RouteRegistrar) {
	app.Post("/login", a.Login)
	app.Post("/register", a.Register)
}

// RegisterRoutes mounts the resource endpoints, the caller wraps the group
// with the authware middleware
func (a *APIController) RegisterRoutes(app RouteRegistrar) {
	app.Get("/profile", a.Profile)

	app.Get("/customers", a.CustomerList)
	app.Post("/customers", a.CustomerCreate)
	app.Get("/customers/:id", a.CustomerShow)
	app.Put("/customers/:id", a.CustomerUpdate)
	app.Delete("/customers/:id", a.CustomerDelete)

	app.Get("/deals", a.DealList)
	app.Post("/deals", a.DealCreate)
	app.Get("/deals/:id", a.DealShow)
	app.Put("/deals/:id", a.DealUpdate)
	app.Delete("/deals/:id", a.DealDelete)

	app.Get("/tasks", a.TaskList)
	app.Post("/tasks", a.TaskCreate)
	app.Get("/tasks/:id", a.TaskShow)
	app.Put("/tasks/:id", a.TaskUpdate)
	app.Delete("/tasks/:id", a.TaskDelete)

	app.Get("/stages", a.StageList)
	app.Post("/stages", a.StageCreate)
	app.Put("/stages/:id", a.StageUpdate)
	app.Delete("/stages/:id", a.StageDelete)

	app.Get("/users", a.UserList)
	app.Post("/users/invite", a.UserInvite)
	app.Put("/users/:id", a.UserUpdate)
	app.Delete("/users/:id", a.UserDelete)
}

// LoginPayload is the credential form
type LoginPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *APIController) Login(ctx router.Context) error {
	payload := new(LoginPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.fail(ctx, ValidationError(err))
	}

	if err := payload.Validate(); err != nil {
		return a.fail(ctx, ValidationError(err))
	}

	artifact, principal, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"token": artifact,
		"user": map[string]any{
			"id":         principal.UserID,
			"account_id": principal.AccountID,
			"role":       principal.Role,
		},
	})
}

// RegisterPayload completes an invitation
type RegisterPayload struct {
	Email    string `form:"email" json:"email"`
	Name     string `form:"name" json:"name"`
	Password string `form:"password" json:"password"`
}

func (a *APIController) Register(ctx router.Context) error {
	payload := new(RegisterPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.fail(ctx, ValidationError(err))
	}

	var activated *User
	msg := RegisterUserMessage{
		Email:    payload.Email,
		Name:     payload.Name,
		Password: payload.Password,
		OnResponse: func(u *User) {
			activated = u
		},
	}

	handler := NewRegisterUserHandler(a.Repo)
	if err := handler.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("register user error", "error", err)
		return a.fail(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= USER ACTIVATED ======")
		fmt.Println(print.MaybePrettyJSON(activated))
		fmt.Println("=============================")
	}

	// activation logs the user straight in, no second round-trip
	artifact, _, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, map[string]any{
		"token": artifact,
		"user":  activated,
	})
}

// Profile returns the caller's own user row
func (a *APIController) Profile(ctx router.Context) error {
	p, err := MustPrincipal(ctx.Context())
	if err != nil {
		return a.fail(ctx, err)
	}

	user, err := a.Repo.GetUserByID(ctx.Context(), p.UserID)
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, user)
}

// CustomerPayload is the create/update form
type CustomerPayload struct {
	Name  string `form:"name" json:"name"`
	Email string `form:"email" json:"email"`
	Phone string `form:"phone" json:"phone"`
}

// Validate will run validation rules
func (r CustomerPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, is.Email),
	)
}

func (a *APIController) CustomerList(ctx router.Context) error {
	p, err := MustPrincipal(ctx.Context())
	if err != nil {
		return a.fail(ctx, err)
	}

	scope, err := a.Authz.ScopeFor(p, KindCustomer)
	if err != nil {
		return a.fail(ctx, err)
	}

	records, err := a.Repo.Customers().ListScoped(ctx.Context(), scope)
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, records)
}

func (a *APIController) CustomerShow(ctx router.Context) error {
	p, id, err := a.principalAndID(ctx)
	if err != nil {
		return a.fail(ctx, err)
	}

	if err := a.Authz.Authorize(ctx.Context(), p, OpRead, KindCustomer, id); err != nil {
		return a.fail(ctx, err)
	}

	record, err := a.Repo.Customers().GetScoped(ctx.Context(), Scope{AccountID: p.AccountID}, id)
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, record)
}

func (a *APIController) CustomerCreate(ctx router.Context) error {
	p, err := MustPrincipal(ctx.Context())
	if err != nil {
		return a.fail(ctx, err)
	}

	if err := a.Authz.Authorize(ctx.Context(), p, OpCreate, KindCustomer, uuid.Nil); err != nil {
		return a.fail(ctx, err)
	}

	payload := new(CustomerPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.fail(ctx, ValidationError(err))
	}
	if err := payload.Validate(); err != nil {
		return a.fail(ctx, ValidationError(err))
	}

	record, err := a.Repo.Customers().Create(ctx.Context(), &Customer{
		AccountID: p.AccountID,
		Name:      payload.Name,
		Email:     payload.Email,
		Phone:     payload.Phone,
	})
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, record)
}

func (a *APIController) CustomerUpdate(ctx router.Context) error {
	p, id, err := a.principalAndID(ctx)
	if err != nil {
		return a.fail(ctx, err)
	}

	if err := a.Authz.Authorize(ctx.Context(), p, OpUpdate, KindCustomer, id); err != nil {
		return a.fail(ctx, err)
	}

	payload := new(CustomerPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.fail(ctx, ValidationError(err))
	}
	if err := payload.Validate(); err != nil {
		return a.fail(ctx, ValidationError(err))
	}

	record, err := a.Repo.Customers().Update(ctx.Context(), &Customer{
		ID:        id,
		AccountID: p.AccountID,
		Name:      payload.Name,
		Email:     payload.Email,
		Phone:     payload.Phone,
	})
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, record)
}

func (a *APIController) CustomerDelete(ctx router.Context) error {
	p, id, err := a.principalAndID(ctx)
	if err != nil {
		return a.fail(ctx, err)
	}

	if err := a.Authz.Authorize(ctx.Context(), p, OpDelete, KindCustomer, id); err != nil {
		return a.fail(ctx, err)
	}

	if err := a.Repo.Customers().DeleteScoped(ctx.Context(), Scope{AccountID: p.AccountID}, id); err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{"status": "deleted"})
}

// DealPayload is the create/update form
type DealPayload struct {
	Name       string  `form:"name" json:"name"`
	Amount     float64 `form:"amount" json:"amount"`
	CustomerID string  `form:"customer_id" json:"customer_id"`
	StageID    string  `form:"stage_id" json:"stage_id"`
	Outcome    string  `form:"outcome" json:"outcome"`
}

// Validate will run validation rules
func (r DealPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.CustomerID, validation.Required, is.UUIDv4),
		validation.Field(&r.StageID, validation.Required, is.UUIDv4),
		validation.Field(&r.Outcome, validation.In(DealOutcomeWon, DealOutcomeLost)),
	)
}

func (a *APIController) DealList(ctx router.Context) error {
	p, err := MustPrincipal(ctx.Context())
	if err != nil {
		return a.fail(ctx, err)
	}

	scope, err := a.Authz.ScopeFor(p, KindDeal)
	if err != nil {
		return a.fail(ctx, err)
	}

	filters := DealFilters{
		Outcome:  ctx.Query("outcome", ""),
		OpenOnly: ctx.Query("open", "") == "true",
	}
	if raw := ctx.Query("stage_id", ""); raw != "" {
		stageID, err := uuid.Parse(raw)
		if err != nil {
			return a.fail(ctx, invalidIDError("stage"))
		}
		filters.StageID = stageID
	}

	records, err := a.Repo.Deals().ListScoped(ctx.Context(), scope, filters)
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, records)
}

func (a *APIController) DealShow(ctx router.Context) error {
	p, id, err := a.principalAndID(ctx)
	if err != nil {
		return a.fail(ctx, err)
	}

	if err := a.Authz.Authorize(ctx.Context(), p, OpRead, KindDeal, id); err != nil {
		return a.fail(ctx, err)
	}

	record, err := a.Repo.Deals().GetScoped(ctx.Context(), Scope{AccountID: p.AccountID}, id)
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, record)
}

func (a *APIController) DealCreate(ctx router.Context) error {
	p, err := MustPrincipal(ctx.Context())
	if err != nil {
		return a.fail(ctx, err)
	}

	if err := a.Authz.Authorize(ctx.Context(), p, OpCreate, KindDeal, uuid.Nil); err != nil {
		return a.fail(ctx, err)
	}

	payload := new(DealPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.fail(ctx, ValidationError(err))
	}
	if err := payload.Validate(); err != nil {
		return a.fail(ctx, ValidationError(err))
	}

	customerID, stageID, err := a.dealReferences(ctx, p, payload)
	if err != nil {
		return a.fail(ctx, err)
	}

	record := &Deal{
		AccountID:  p.AccountID,
		UserID:     p.UserID,
		CustomerID: customerID,
		StageID:    stageID,
		Name:       payload.Name,
		Amount:     payload.Amount,
	}
	if payload.Outcome != "" {
		outcome := payload.Outcome
		record.Outcome = &outcome
	}

	record, err = a.Repo.Deals().Create(ctx.Context(), record)
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, record)
}

func (a *APIController) DealUpdate(ctx router.Context) error {
	p, id, err := a.principalAndID(ctx)
	if err != nil {
		return a.fail(ctx, err)
	}

	if err := a.Authz.Authorize(ctx.Context(), p, OpUpdate, KindDeal, id); err != nil {
		return a.fail(ctx, err)
	}

	payload := new(DealPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.fail(ctx, ValidationError(err))
	}
	if err := payload.Validate(); err != nil {
		return a.fail(ctx, ValidationError(err))
	}

	customerID, stageID, err := a.dealReferences(ctx, p, payload)
	if err != nil {
		return a.fail(ctx, err)
	}

	current, err := a.Repo.Deals().GetScoped(ctx.Context(), Scope{AccountID: p.AccountID}, id)
	if err != nil {
		return a.fail(ctx, err)
	}

	// owner never changes on update
	record := &Deal{
		ID:         id,
		AccountID:  p.AccountID,
		UserID:     current.UserID,
		CustomerID: customerID,
		StageID:    stageID,
		Name:       payload.Name,
		Amount:     payload.Amount,
	}
	if payload.Outcome != "" {
		outcome := payload.Outcome
		record.Outcome = &outcome
	}

	record, err = a.Repo.Deals().Update(ctx.Context(), record)
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, record)
}

func (a *APIController) DealDelete(ctx router.Context) error {
	p, id, err := a.principalAndID(ctx)
	if err != nil {
		return a.fail(ctx, err)
	}

	if err := a.Authz.Authorize(ctx.Context(), p, OpDelete, KindDeal, id); err != nil {
		return a.fail(ctx, err)
	}

	if err := a.Repo.Deals().DeleteScoped(ctx.Context(), Scope{AccountID: p.AccountID}, id); err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{"status": "deleted"})
}

// TaskPayload is the create/update form
type TaskPayload struct {
	DealID  string `form:"deal_id" json:"deal_id"`
	Name    string `form:"name" json:"name"`
	Status  string `form:"status" json:"status"`
	DueDate string `form:"due_date" json:"due_date"`
}

// Validate will run validation rules
func (r TaskPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DealID, validation.Required, is.UUIDv4),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.DueDate, validation.Date(time.RFC3339)),
	)
}

func (a *APIController) TaskList(ctx router.Context) error {
	p, err := MustPrincipal(ctx.Context())
	if err != nil {
		return a.fail(ctx, err)
	}

	scope, err := a.Authz.ScopeFor(p, KindTask)
	if err != nil {
		return a.fail(ctx, err)
	}

	filters := TaskFilters{
		Status: ctx.Query("status", ""),
	}
	if raw := ctx.Query("deal_id", ""); raw != "" {
		dealID, err := uuid.Parse(raw)
		if err != nil {
			return a.fail(ctx, invalidIDError("deal"))
		}
		filters.DealID = dealID
	}

	records, err := a.Repo.Tasks().ListScoped(ctx.Context(), scope, filters)
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, records)
}

func (a *APIController) TaskShow(ctx router.Context) error {
	p, id, err := a.principalAndID(ctx)
	if err != nil {
		return a.fail(ctx, err)
	}

	if err := a.Authz.Authorize(ctx.Context(), p, OpRead, KindTask, id); err != nil {
		return a.fail(ctx, err)
	}

	record, err := a.Repo.Tasks().GetScoped(ctx.Context(), Scope{AccountID: p.AccountID}, id)
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, record)
}

func (a *APIController) TaskCreate(ctx router.Context) error {
	p, err := MustPrincipal(ctx.Context())
	if err != nil {
		return a.fail(ctx, err)
	}

	payload := new(TaskPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.fail(ctx, ValidationError(err))
	}
	if err := payload.Validate(); err != nil {
		return a.fail(ctx, ValidationError(err))
	}

	dealID, err := uuid.Parse(payload.DealID)
	if err != nil {
		return a.fail(ctx, invalidIDError("deal"))
	}

	// the create authorization probes the referenced deal
	if err := a.Authz.Authorize(ctx.Context(), p, OpCreate, KindTask, dealID); err != nil {
		return a.fail(ctx, err)
	}

	record := &Task{
		DealID: dealID,
		UserID: p.UserID,
		Name:   payload.Name,
		Status: payload.Status,
	}
	if payload.DueDate != "" {
		due, err := time.Parse(time.RFC3339, payload.DueDate)
		if err != nil {
			return a.fail(ctx, ValidationError(err))
		}
		record.DueDate = &due
	}

	record, err = a.Repo.Tasks().Create(ctx.Context(), record)
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, record)
}

func (a *APIController) TaskUpdate(ctx router.Context) error {
	p, id, err := a.principalAndID(ctx)
	if err != nil {
		return a.fail(ctx, err)
	}

	if err := a.Authz.Authorize(ctx.Context(), p, OpUpdate, KindTask, id); err != nil {
		return a.fail(ctx, err)
	}

	payload := new(TaskPayload)
	if err := ctx.Bind(payload); err != nil {
		return a.fail(ctx, ValidationError(err))
	}
	if err := payload.Validate(); err != nil {
		return a.fail(ctx, ValidationError(err))
	}

	current, err := a.Repo.Tasks().GetScoped(ctx.Context(), Scope{AccountID: p.AccountID}, id)
	if err != nil {
		return a.fail(ctx, err)
	}

	// tasks never move between deals
	record := &Task{
		ID:     id,
		DealID: current.DealID,
		UserID: current.UserID,
		Name:   payload.Name,
		Status: payload.Status,
	}
	if payload.DueDate != "" {
		due, err := time.Parse(time.RFC3339, payload.DueDate)
		if err != nil {
			return a.fail(ctx, ValidationError(err))
		}
		record.DueDate = &due
	}

	record, err = a.Repo.Tasks().Update(ctx.Context(), record)
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, record)
}

func (a *APIController) TaskDelete(ctx router.Context) error {
	p, id, err := a.principalAndID(ctx)
	if err != nil {
		return a.fail(ctx, err)
	}

	if err := a.Authz.Authorize(ctx.Context(), p, OpDelete, KindTask, id); err != nil {
		return a.fail(ctx, err)
	}

	if err := a.Repo.Tasks().DeleteScoped(ctx.Context(), Scope{AccountID: p.AccountID}, id); err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{"status": "deleted"})
}

// StagePayload is the create/update form
type StagePayload struct {
	Name        string `form:"name" json:"name"`
	Description string `form:"description" json:"description"`
	OrderIndex  int    `form:"order_index" json:"order_index"`
}

// Validate will run validation rules
func (r StagePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.OrderIndex, validation.Min(0)),
	)
}

func (a *APIController) StageList(ctx router.Context) error {
	p, err := MustPrincipal(ctx.Context())
	if err != nil {
		return a.fail(ctx, err)
	}

	scope, err := a.Authz.ScopeFor(p, KindStage)
	if err != nil {
		return a.fail(ctx, err)
	}

	records, err := a.Repo.Stages().ListScoped(ctx.Context(), scope)
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, records)
}

func (a *APIController) StageCreate(ctx router.Context) error {
	p, err := MustPrincipal(ctx.Context())
	if err != nil {
		return a.fail(ctx, err)
	}

	if err := a.Authz.Authorize(ctx.Context(), p, OpCreate, KindStage, uuid.Nil); err != nil {
		return a.fail(ctx, err)
	}

	payload := new(StagePayload)
	if err := ctx.Bind(payload); err != nil {
		return a.fail(ctx, ValidationError(err))
	}
	if err := payload.Validate(); err != nil {
		return a.fail(ctx, ValidationError(err))
	}

	record, err := a.Repo.Stages().Create(ctx.Context(), &Stage{
		AccountID:   p.AccountID,
		Name:        payload.Name,
		Description: payload.Description,
		OrderIndex:  payload.OrderIndex,
	})
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, record)
}

func (a *APIController) StageUpdate(ctx router.Context) error {
	p, id, err := a.principalAndID(ctx)
	if err != nil {
		return a.fail(ctx, err)
	}

	if err := a.Authz.Authorize(ctx.Context(), p, OpUpdate, KindStage, id); err != nil {
		return a.fail(ctx, err)
	}

	payload := new(StagePayload)
	if err := ctx.Bind(payload); err != nil {
		return a.fail(ctx, ValidationError(err))
	}
	if err := payload.Validate(); err != nil {
		return a.fail(ctx, ValidationError(err))
	}

	record, err := a.Repo.Stages().Update(ctx.Context(), &Stage{
		ID:          id,
		AccountID:   p.AccountID,
		Name:        payload.Name,
		Description: payload.Description,
		OrderIndex:  payload.OrderIndex,
	})
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, record)
}

func (a *APIController) StageDelete(ctx router.Context) error {
	p, id, err := a.principalAndID(ctx)
	if err != nil {
		return a.fail(ctx, err)
	}

	if err := a.Authz.Authorize(ctx.Context(), p, OpDelete, KindStage, id); err != nil {
		return a.fail(ctx, err)
	}

	if err := a.Repo.Stages().DeleteScoped(ctx.Context(), Scope{AccountID: p.AccountID}, id); err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{"status": "deleted"})
}

func (a *APIController) UserList(ctx router.Context) error {
	p, err := MustPrincipal(ctx.Context())
	if err != nil {
		return a.fail(ctx, err)
	}

	scope, err := a.Authz.ScopeFor(p, KindUser)
	if err != nil {
		return a.fail(ctx, err)
	}

	records, err := a.Repo.Users().ListByAccount(ctx.Context(), scope.AccountID)
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, records)
}

// InvitePayload is the admin invite form
type InvitePayload struct {
	Email string `form:"email" json:"email"`
	Name  string `form:"name" json:"name"`
	Role  string `form:"role" json:"role"`
}

func (a *APIController) UserInvite(ctx router.Context) error {
	p, err := MustPrincipal(ctx.Context())
	if err != nil {
		return a.fail(ctx, err)
	}

	if err := a.Authz.Authorize(ctx.Context(), p, OpCreate, KindUser, uuid.Nil); err != nil {
		return a.fail(ctx, err)
	}

	payload := new(InvitePayload)
	if err := ctx.Bind(payload); err != nil {
		return a.fail(ctx, ValidationError(err))
	}

	var invited *User
	msg := InviteUserMessage{
		AccountID: p.AccountID,
		Email:     payload.Email,
		Name:      payload.Name,
		Role:      payload.Role,
		OnResponse: func(u *User) {
			invited = u
		},
	}

	handler := NewInviteUserHandler(a.Repo)
	if err := handler.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("invite user error", "error", err)
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, invited)
}

// UserUpdatePayload is the admin edit form
type UserUpdatePayload struct {
	Name string `form:"name" json:"name"`
	Role string `form:"role" json:"role"`
}

// Validate will run validation rules
func (r UserUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(1, 200)),
	)
}

// UserUpdate renames a user or changes their role. Role changes never happen
// implicitly: this is the only write path that touches the role column.
func (a *APIController) UserUpdate(ctx router.Context) error {
	p, id, err := a.principalAndID(ctx)
	if err != nil {
		return a.fail(ctx, err)
	}

	if err := a.Authz.Authorize(ctx.Context(), p, OpUpdate, KindUser, id); err != nil {
		return a.fail(ctx, err)
	}

	payload := new(UserUpdatePayload)
	if err := ctx.Bind(payload); err != nil {
		return a.fail(ctx, ValidationError(err))
	}
	if err := payload.Validate(); err != nil {
		return a.fail(ctx, ValidationError(err))
	}

	user, err := a.Repo.GetUserByID(ctx.Context(), id)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return a.fail(ctx, ErrResourceNotFound)
		}
		return a.fail(ctx, err)
	}

	if payload.Name != "" {
		user.Name = payload.Name
	}

	if payload.Role != "" {
		role, ok := ParseRole(payload.Role)
		if !ok {
			return a.fail(ctx, goerrors.New("invalid role", goerrors.CategoryBadInput).
				WithCode(goerrors.CodeBadRequest))
		}
		user.Role = role
	}

	updated, err := a.Repo.Users().Update(ctx.Context(), user)
	if err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, updated)
}

// UserDelete archives a user row. The self-delete guard lives in the
// authorizer; archived users can no longer authenticate.
func (a *APIController) UserDelete(ctx router.Context) error {
	p, id, err := a.principalAndID(ctx)
	if err != nil {
		return a.fail(ctx, err)
	}

	if err := a.Authz.Authorize(ctx.Context(), p, OpDelete, KindUser, id); err != nil {
		return a.fail(ctx, err)
	}

	user, err := a.Repo.GetUserByID(ctx.Context(), id)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return a.fail(ctx, ErrResourceNotFound)
		}
		return a.fail(ctx, err)
	}

	machine := NewUserStateMachine(a.Repo.Users(), WithStateMachineLogger(a.Logger))
	actor := ActorRef{ID: p.UserID.String(), Type: "user"}
	if _, err := machine.Transition(ctx.Context(), actor, user, UserStatusArchived); err != nil {
		return a.fail(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{"status": "archived"})
}

// dealReferences validates that the payload's customer and stage exist inside
// the principal's account, bad references read as bad input rather than
// leaking cross-account existence
func (a *APIController) dealReferences(ctx router.Context, p Principal, payload *DealPayload) (uuid.UUID, uuid.UUID, error) {
	customerID, err := uuid.Parse(payload.CustomerID)
	if err != nil {
		return uuid.Nil, uuid.Nil, invalidIDError("customer")
	}

	stageID, err := uuid.Parse(payload.StageID)
	if err != nil {
		return uuid.Nil, uuid.Nil, invalidIDError("stage")
	}

	probe, err := a.Repo.Probe(ctx.Context(), KindCustomer, p.AccountID, customerID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	if !probe.Found {
		return uuid.Nil, uuid.Nil, invalidIDError("customer")
	}

	probe, err = a.Repo.Probe(ctx.Context(), KindStage, p.AccountID, stageID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	if !probe.Found {
		return uuid.Nil, uuid.Nil, invalidIDError("stage")
	}

	return customerID, stageID, nil
}

func (a *APIController) principalAndID(ctx router.Context) (Principal, uuid.UUID, error) {
	p, err := MustPrincipal(ctx.Context())
	if err != nil {
		return Principal{}, uuid.Nil, err
	}

	raw := ctx.Param("id", "")
	id, err := uuid.Parse(raw)
	if err != nil {
		return Principal{}, uuid.Nil, invalidIDError("resource")
	}

	return p, id, nil
}

func (a *APIController) fail(ctx router.Context, err error) error {
	return RespondError(ctx, err, a.Logger, a.Debug)
}

func invalidIDError(kind string) error {
	return goerrors.New(fmt.Sprintf("invalid %s id", kind), goerrors.CategoryBadInput).
		WithCode(goerrors.CodeBadRequest)
}
