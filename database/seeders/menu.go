package seeders

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bistroboss/bistro/app/models"
	"github.com/bistroboss/bistro/pkg/database"
)

func init() {
	Register("menu", SeedMenu)
	Register("reviews", SeedReviews)
}

var sampleMenu = []models.MenuItem{
	{Name: "Escalope de Veau", Recipe: "Pan-fried veal, lemon butter, capers", Category: "popular", Price: 14.5},
	{Name: "Caesar Salad", Recipe: "Romaine, parmesan, croutons, anchovy dressing", Category: "salad", Price: 9.5},
	{Name: "Margherita", Recipe: "Tomato, mozzarella, basil", Category: "pizza", Price: 12},
	{Name: "Tomato Soup", Recipe: "Roasted tomatoes, cream, thyme", Category: "soup", Price: 6.5},
	{Name: "Chocolate Fondant", Recipe: "Warm chocolate cake, vanilla ice cream", Category: "dessert", Price: 7.25},
	{Name: "Lemonade", Recipe: "Fresh lemons, mint, soda", Category: "drinks", Price: 3.5},
	{Name: "Chef's Special", Recipe: "Ask the kitchen", Category: "offered", Price: 18},
}

var sampleReviews = []models.Review{
	{Name: "Jane Doe", Details: "The soup alone is worth the trip.", Rating: 5},
	{Name: "Sam Lee", Details: "Quick delivery and the pizza was still hot.", Rating: 4.5},
	{Name: "Ana Ruiz", Details: "Lovely desserts, slightly pricey drinks.", Rating: 4},
}

// SeedMenu inserts the sample menu into an empty menu collection.
func SeedMenu(ctx context.Context, db *mongo.Database) error {
	docs := make([]interface{}, len(sampleMenu))
	for i, it := range sampleMenu {
		docs[i] = it
	}
	return seedIfEmpty(ctx, db.Collection(database.Menu), docs)
}

// SeedReviews inserts the sample reviews into an empty reviews collection.
func SeedReviews(ctx context.Context, db *mongo.Database) error {
	docs := make([]interface{}, len(sampleReviews))
	for i, r := range sampleReviews {
		docs[i] = r
	}
	return seedIfEmpty(ctx, db.Collection(database.Reviews), docs)
}

func seedIfEmpty(ctx context.Context, col *mongo.Collection, docs []interface{}) error {
	n, err := col.CountDocuments(ctx, bson.D{})
	if err != nil || n > 0 {
		return err
	}
	_, err = col.InsertMany(ctx, docs)
	return err
}
