package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const PaymentStatusPending = "pending"

// Payment is the durable proof that a set of cart entries was purchased.
// It is written once; only Reconciled flips, after the cart purge succeeds.
// Date is the checkout time reported by the client; CreatedAt is server time.
type Payment struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Email         string               `bson:"email"         json:"email"`
	Price         float64              `bson:"price"         json:"price"`
	TransactionID string               `bson:"transactionId" json:"transactionId"`
	Date          time.Time            `bson:"date"          json:"date"`
	CreatedAt     time.Time            `bson:"createdAt"     json:"createdAt"`
	CartIDs       []primitive.ObjectID `bson:"cartIds"       json:"cartIds"`
	MenuItemIDs   []primitive.ObjectID `bson:"menuItemIds"   json:"menuItemIds"`
	Status        string               `bson:"status"        json:"status"`
	Reconciled    bool                 `bson:"reconciled"    json:"reconciled"`
}
