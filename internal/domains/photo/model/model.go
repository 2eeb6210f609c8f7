package model

import (
	"roamstay/shared/model"

	"github.com/lib/pq"
)

const (
	TableName  = "listing_photos"
	EntityName = "photo"

	FieldID        = "id"
	FieldListingID = "listing_id"
	FieldTitle     = "title"
	FieldImages    = "images"
)

type Photo struct {
	ID        string         `db:"id"`
	ListingID string         `db:"listing_id"`
	Title     string         `db:"title"`
	Images    pq.StringArray `db:"images"`
	model.Metadata
}
