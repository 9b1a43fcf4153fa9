package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bistroboss/bistro/app/services"
	"github.com/bistroboss/bistro/pkg/bind"
	"github.com/bistroboss/bistro/pkg/response"
)

type PaymentController struct {
	service *services.PaymentService
}

func NewPaymentController(service *services.PaymentService) *PaymentController {
	return &PaymentController{service: service}
}

type intentRequest struct {
	Price float64 `json:"price" validate:"gt=0"`
}

type paymentRequest struct {
	Email         string    `json:"email"         validate:"required,email"`
	Price         float64   `json:"price"         validate:"gte=0"`
	TransactionID string    `json:"transactionId" validate:"required,max=255"`
	Date          time.Time `json:"date"`
	CartIDs       []string  `json:"cartIds"       validate:"omitempty,dive,objectid"`
	MenuItemIDs   []string  `json:"menuItemIds"   validate:"omitempty,dive,objectid"`
	Status        string    `json:"status"        validate:"max=50"`
}

// CreateIntent handles POST /create-payment-intent.
func (c *PaymentController) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var body intentRequest
	errs, err := bind.JSON(r, &body)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	secret, err := c.service.CreateIntent(r.Context(), body.Price)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, map[string]string{"clientSecret": secret})
}

// Index handles GET /payments/{email}.
func (c *PaymentController) Index(w http.ResponseWriter, r *http.Request) {
	history, err := c.service.History(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, history)
}

// Store handles POST /payments. A replayed transaction id answers 200 with
// the stored payment; a fresh one answers 201.
func (c *PaymentController) Store(w http.ResponseWriter, r *http.Request) {
	var body paymentRequest
	errs, err := bind.JSON(r, &body)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	res, err := c.service.Record(r.Context(), services.RecordInput{
		Email:         body.Email,
		Price:         body.Price,
		TransactionID: body.TransactionID,
		Date:          body.Date,
		CartIDs:       body.CartIDs,
		MenuItemIDs:   body.MenuItemIDs,
		Status:        body.Status,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	if res.Replayed {
		response.Success(w, res)
		return
	}
	response.Created(w, res)
}
