package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bistroboss/bistro/app/models"
	"github.com/bistroboss/bistro/app/services"
	"github.com/bistroboss/bistro/pkg/bind"
	"github.com/bistroboss/bistro/pkg/response"
)

type CartController struct {
	service *services.CartService
}

func NewCartController(service *services.CartService) *CartController {
	return &CartController{service: service}
}

type cartRequest struct {
	Email  string  `json:"email"  validate:"required,email"`
	MenuID string  `json:"menuId" validate:"required,objectid"`
	Name   string  `json:"name"   validate:"max=200"`
	Image  string  `json:"image"  validate:"max=2048"`
	Price  float64 `json:"price"  validate:"gte=0"`
}

// Index handles GET /carts?email=. The query email is matched against the
// token before this runs.
func (c *CartController) Index(w http.ResponseWriter, r *http.Request) {
	entries, err := c.service.ForOwner(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, entries)
}

// Store handles POST /carts.
func (c *CartController) Store(w http.ResponseWriter, r *http.Request) {
	var body cartRequest
	errs, err := bind.JSON(r, &body)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	menuID, _ := primitive.ObjectIDFromHex(body.MenuID)
	res, err := c.service.Add(r.Context(), models.CartEntry{
		Email:      body.Email,
		MenuItemID: menuID,
		Name:       body.Name,
		Image:      body.Image,
		Price:      body.Price,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Created(w, res)
}

// Destroy handles DELETE /carts/{id}.
func (c *CartController) Destroy(w http.ResponseWriter, r *http.Request) {
	res, err := c.service.Remove(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, res)
}
