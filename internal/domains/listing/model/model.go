package model

import "roamstay/shared/model"

const (
	TableName  = "listings"
	EntityName = "listing"

	FieldID            = "id"
	FieldHostID        = "host_id"
	FieldName          = "name"
	FieldDescription   = "description"
	FieldLocation      = "location"
	FieldPricePerNight = "price_per_night"
	FieldPropertyType  = "property_type"
	FieldMaxGuests     = "max_guests"
	FieldBedrooms      = "bedrooms"
	FieldBathrooms     = "bathrooms"
	FieldAmenities     = "amenities"
	FieldAvailable     = "available"
)

const (
	PropertyTypeApartment = "apartment"
	PropertyTypeHouse     = "house"
	PropertyTypeVilla     = "villa"
	PropertyTypeCondo     = "condo"
	PropertyTypeStudio    = "studio"
)

type Listing struct {
	ID            string  `db:"id"`
	HostID        string  `db:"host_id"`
	Name          string  `db:"name"`
	Description   string  `db:"description"`
	Location      string  `db:"location"`
	PricePerNight float64 `db:"price_per_night"`
	PropertyType  string  `db:"property_type"`
	MaxGuests     int     `db:"max_guests"`
	Bedrooms      int     `db:"bedrooms"`
	Bathrooms     int     `db:"bathrooms"`
	Amenities     string  `db:"amenities"`
	Available     bool    `db:"available"`
	model.Metadata
}
