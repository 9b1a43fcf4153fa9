package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bistroboss/bistro/app/models"
	"github.com/bistroboss/bistro/app/services"
	"github.com/bistroboss/bistro/pkg/bind"
	"github.com/bistroboss/bistro/pkg/response"
)

type MenuController struct {
	service *services.MenuService
}

func NewMenuController(service *services.MenuService) *MenuController {
	return &MenuController{service: service}
}

type menuItemRequest struct {
	Name     string  `json:"name"     validate:"required,max=200"`
	Recipe   string  `json:"recipe"   validate:"max=4000"`
	Image    string  `json:"image"    validate:"max=2048"`
	Category string  `json:"category" validate:"required,max=100"`
	Price    float64 `json:"price"    validate:"gte=0"`
}

// Index handles GET /menu.
func (c *MenuController) Index(w http.ResponseWriter, r *http.Request) {
	items, err := c.service.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, items)
}

// Reviews handles GET /reviews.
func (c *MenuController) Reviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := c.service.Reviews(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, reviews)
}

// Store handles POST /menu.
func (c *MenuController) Store(w http.ResponseWriter, r *http.Request) {
	var body menuItemRequest
	errs, err := bind.JSON(r, &body)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	res, err := c.service.Create(r.Context(), models.MenuItem{
		Name:     body.Name,
		Recipe:   body.Recipe,
		Image:    body.Image,
		Category: body.Category,
		Price:    body.Price,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Created(w, res)
}

// Destroy handles DELETE /menu/{id}.
func (c *MenuController) Destroy(w http.ResponseWriter, r *http.Request) {
	res, err := c.service.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, res)
}
