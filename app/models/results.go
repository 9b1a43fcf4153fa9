package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// InsertResult mirrors the store's acknowledgement of an insert.
type InsertResult struct {
	Acknowledged bool               `json:"acknowledged"`
	InsertedID   primitive.ObjectID `json:"insertedId"`
}

type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// PaymentRecordResult is what POST /payments answers with. Replayed is set
// when the transaction id had already been recorded.
type PaymentRecordResult struct {
	PaymentResult InsertResult `json:"paymentResult"`
	DeleteResult  DeleteResult `json:"deleteResult"`
	Replayed      bool         `json:"replayed,omitempty"`
}
