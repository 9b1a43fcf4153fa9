package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// CartEntry is a pending, unpaid selection of one menu item by one customer.
type CartEntry struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Email      string             `bson:"email"         json:"email"`
	MenuItemID primitive.ObjectID `bson:"menuId"        json:"menuId"`
	Name       string             `bson:"name"          json:"name"`
	Image      string             `bson:"image"         json:"image"`
	Price      float64            `bson:"price"         json:"price"`
}
