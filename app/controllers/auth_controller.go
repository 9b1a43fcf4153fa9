package controllers

import (
	"net/http"

	"github.com/bistroboss/bistro/app/services"
	"github.com/bistroboss/bistro/pkg/auth"
	"github.com/bistroboss/bistro/pkg/bind"
	"github.com/bistroboss/bistro/pkg/response"
)

type AuthController struct {
	service *services.AuthService
}

func NewAuthController(service *services.AuthService) *AuthController {
	return &AuthController{service: service}
}

type tokenRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role"`
}

// Token handles POST /jwt.
func (c *AuthController) Token(w http.ResponseWriter, r *http.Request) {
	var body tokenRequest
	errs, err := bind.JSON(r, &body)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	token, err := c.service.IssueToken(auth.Identity{Email: body.Email, Role: body.Role})
	if err != nil {
		fail(w, r, err)
		return
	}

	response.Success(w, map[string]string{"token": token})
}
