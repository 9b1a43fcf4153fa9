package services

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bistroboss/bistro/app/models"
)

type CartService struct {
	carts CartStore
}

func NewCartService(carts CartStore) *CartService {
	return &CartService{carts: carts}
}

// ForOwner lists the cart of email. Ownership is checked by the route guard.
func (s *CartService) ForOwner(ctx context.Context, email string) ([]models.CartEntry, error) {
	return s.carts.ByEmail(ctx, email)
}

func (s *CartService) Add(ctx context.Context, entry models.CartEntry) (models.InsertResult, error) {
	entry.Email = strings.TrimSpace(entry.Email)
	if entry.Email == "" {
		return models.InsertResult{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	entry.ID = primitive.NilObjectID

	id, err := s.carts.Create(ctx, &entry)
	if err != nil {
		return models.InsertResult{}, err
	}
	return models.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

// Remove deletes one entry. Removing an entry that is already gone reports
// zero and is not an error.
func (s *CartService) Remove(ctx context.Context, idHex string) (models.DeleteResult, error) {
	id, err := parseID(idHex)
	if err != nil {
		return models.DeleteResult{}, err
	}

	n, err := s.carts.Delete(ctx, id)
	if err != nil {
		return models.DeleteResult{}, err
	}
	return models.DeleteResult{Acknowledged: true, DeletedCount: n}, nil
}
