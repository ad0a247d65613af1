package handler

import (
	"context"
	"net/http"

	"github.com/flathunt/platform/shared/cqrs"
	"github.com/flathunt/platform/shared/middleware"
	"github.com/flathunt/platform/shared/models"
	"github.com/flathunt/platform/shared/result"
	"github.com/gin-gonic/gin"
)

const (
	MsgSignupSuccessful = "Signup successful"
	MsgLoginSuccessful  = "Login successful"
	MsgFavoriteAdded    = "Favorited apartment added successfully."
	MsgUserFound        = "user found"
)

// UserCommander defines the write-side operations used by UserHandler.
type UserCommander interface {
	Register(context.Context, cqrs.RegisterUserCommand) (*models.AuthPayload, error)
	AddFavorite(context.Context, cqrs.AddFavoriteCommand) (*models.UserView, error)
}

// UserQuerier defines the read-side operations used by UserHandler.
type UserQuerier interface {
	Authenticate(context.Context, cqrs.LoginQuery) (*models.AuthPayload, error)
	FindUser(context.Context, cqrs.GetUserQuery) (*models.UserView, error)
}

// UserHandler routes requests to the command or query service as appropriate.
type UserHandler struct {
	commands UserCommander
	queries  UserQuerier
}

type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AddFavoriteRequest is not validated here; the service owns the check
// order, and the token is checked before the id.
type AddFavoriteRequest struct {
	ApartmentID string `json:"apartmentId"`
}

func NewUserHandler(commands UserCommander, queries UserQuerier) *UserHandler {
	return &UserHandler{commands: commands, queries: queries}
}

// RegisterRoutes mounts the handler under /v1.
func (h *UserHandler) RegisterRoutes(v1 *gin.RouterGroup) {
	v1.POST("/users", h.Register)
	v1.GET("/users/:userId", h.FindUser)
	v1.POST("/auth/login", h.Login)
	v1.POST("/favorites", h.AddFavorite)
}

func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, result.BadRequest(result.MsgInvalidRequest))
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	payload, err := h.commands.Register(c.Request.Context(), cqrs.RegisterUserCommand{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	respondAuth(c, result.From(payload, err), http.StatusCreated, MsgSignupSuccessful)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, result.BadRequest(result.MsgInvalidRequest))
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	payload, err := h.queries.Authenticate(c.Request.Context(), cqrs.LoginQuery{
		Email:    req.Email,
		Password: req.Password,
	})
	respondAuth(c, result.From(payload, err), http.StatusOK, MsgLoginSuccessful)
}

func (h *UserHandler) AddFavorite(c *gin.Context) {
	// The service checks the token before the id, so a missing or broken
	// body is passed on as an empty id rather than rejected here.
	var req AddFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = AddFavoriteRequest{}
	}

	view, err := h.commands.AddFavorite(c.Request.Context(), cqrs.AddFavoriteCommand{
		Authorization: c.GetHeader(middleware.AuthorizationHeader),
		ApartmentID:   req.ApartmentID,
	})
	middleware.Respond(c, result.From(view, err), http.StatusOK, MsgFavoriteAdded, "user")
}

func (h *UserHandler) FindUser(c *gin.Context) {
	view, err := h.queries.FindUser(c.Request.Context(), cqrs.GetUserQuery{UserID: c.Param("userId")})
	middleware.Respond(c, result.From(view, err), http.StatusOK, MsgUserFound, "user")
}

// respondAuth renders signup and login, which carry both user and jwt.
func respondAuth(c *gin.Context, r result.Result[*models.AuthPayload], okStatus int, okMessage string) {
	env := r.Envelope(okStatus, okMessage)
	body := middleware.EnvelopeBody(env)
	body["user"] = nil
	body["jwt"] = nil
	if p := r.Value(); r.IsOk() && p != nil {
		body["user"] = p.User
		body["jwt"] = p.JWT
	}
	c.JSON(env.Status(), body)
}
