package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bistroboss/bistro/app/models"
	"github.com/bistroboss/bistro/app/services"
	"github.com/bistroboss/bistro/pkg/bind"
	"github.com/bistroboss/bistro/pkg/response"
)

type UserController struct {
	service *services.UserService
}

func NewUserController(service *services.UserService) *UserController {
	return &UserController{service: service}
}

type registerRequest struct {
	Name  string `json:"name"  validate:"max=120"`
	Email string `json:"email" validate:"required,email"`
	Photo string `json:"photo" validate:"omitempty,max=2048"`
}

// Index handles GET /users.
func (c *UserController) Index(w http.ResponseWriter, r *http.Request) {
	users, err := c.service.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, users)
}

// Store handles POST /users.
func (c *UserController) Store(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	errs, err := bind.JSON(r, &body)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	res, err := c.service.Register(r.Context(), models.User{Name: body.Name, Email: body.Email, Photo: body.Photo})
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Created(w, res)
}

// IsAdmin handles GET /users/admin/{email}. The owner guard has already
// matched the path email against the token.
func (c *UserController) IsAdmin(w http.ResponseWriter, r *http.Request) {
	admin, err := c.service.IsAdmin(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, map[string]bool{"admin": admin})
}

// Promote handles PATCH /users/admin/{id}.
func (c *UserController) Promote(w http.ResponseWriter, r *http.Request) {
	res, err := c.service.Promote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, res)
}
