package model

import (
	"roamstay/shared/model"
)

const (
	TableName  = "reviews"
	EntityName = "review"

	FieldID        = "id"
	FieldListingID = "listing_id"
	FieldUserID    = "user_id"
	FieldBookingID = "booking_id"
	FieldRating    = "rating"
	FieldComment   = "comment"
)

type Review struct {
	ID        string  `db:"id"`
	ListingID string  `db:"listing_id"`
	UserID    string  `db:"user_id"`
	BookingID *string `db:"booking_id"`
	Rating    int     `db:"rating"`
	Comment   string  `db:"comment"`
	model.Metadata
}
