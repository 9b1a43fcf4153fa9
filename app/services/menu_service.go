package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bistroboss/bistro/app/models"
	"github.com/bistroboss/bistro/pkg/event"
)

// MenuService serves the catalog and the landing-page reviews.
type MenuService struct {
	menu    MenuStore
	reviews ReviewStore
	events  *event.Bus
}

func NewMenuService(menu MenuStore, reviews ReviewStore, events *event.Bus) *MenuService {
	return &MenuService{menu: menu, reviews: reviews, events: events}
}

func (s *MenuService) List(ctx context.Context) ([]models.MenuItem, error) {
	return s.menu.All(ctx)
}

func (s *MenuService) Reviews(ctx context.Context) ([]models.Review, error) {
	return s.reviews.All(ctx)
}

func (s *MenuService) Create(ctx context.Context, item models.MenuItem) (models.InsertResult, error) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return models.InsertResult{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if math.IsNaN(item.Price) || math.IsInf(item.Price, 0) || item.Price < 0 {
		return models.InsertResult{}, fmt.Errorf("%w: price must be a non-negative number", ErrInvalidInput)
	}
	item.ID = primitive.NilObjectID

	id, err := s.menu.Create(ctx, &item)
	if err != nil {
		return models.InsertResult{}, err
	}
	s.events.FireAsync(ctx, event.MenuChanged, id)
	return models.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

// Delete removes one menu item. An unknown id is ErrNotFound.
func (s *MenuService) Delete(ctx context.Context, idHex string) (models.DeleteResult, error) {
	id, err := parseID(idHex)
	if err != nil {
		return models.DeleteResult{}, err
	}

	n, err := s.menu.Delete(ctx, id)
	if err != nil {
		return models.DeleteResult{}, err
	}
	if n == 0 {
		return models.DeleteResult{}, fmt.Errorf("%w: menu item %s", ErrNotFound, id.Hex())
	}
	s.events.FireAsync(ctx, event.MenuChanged, id)
	return models.DeleteResult{Acknowledged: true, DeletedCount: n}, nil
}
