package dto

import (
	"roamstay/internal/domains/listing/model"
	"roamstay/shared"
	gDto "roamstay/shared/dto"
	gModel "roamstay/shared/model"
	"roamstay/shared/timezone"

	"github.com/google/uuid"
)

type CreateListingRequest struct {
	Name          string  `json:"name"            validate:"required,max=200"`
	Description   string  `json:"description"     validate:"omitempty"`
	Location      string  `json:"location"        validate:"required,max=200"`
	PricePerNight float64 `json:"price_per_night" validate:"required,gt=0"`
	PropertyType  string  `json:"property_type"   validate:"required,oneof=apartment house villa condo studio"`
	MaxGuests     int     `json:"max_guests"      validate:"required,min=1"`
	Bedrooms      int     `json:"bedrooms"        validate:"omitempty,min=0"`
	Bathrooms     int     `json:"bathrooms"       validate:"omitempty,min=0"`
	Amenities     string  `json:"amenities"       validate:"omitempty"`
	Available     *bool   `json:"available"       validate:"omitempty"`
}

func (c *CreateListingRequest) ToModel(hostID string) model.Listing {
	available := true
	if c.Available != nil {
		available = *c.Available
	}

	return model.Listing{
		ID:            uuid.NewString(),
		HostID:        hostID,
		Name:          c.Name,
		Description:   c.Description,
		Location:      c.Location,
		PricePerNight: c.PricePerNight,
		PropertyType:  c.PropertyType,
		MaxGuests:     c.MaxGuests,
		Bedrooms:      c.Bedrooms,
		Bathrooms:     c.Bathrooms,
		Amenities:     c.Amenities,
		Available:     available,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  hostID,
			ModifiedBy: hostID,
		},
	}
}

type UpdateListingRequest struct {
	Name          string   `db:"name"            json:"name"            validate:"omitempty,max=200"`
	Description   string   `db:"description"     json:"description"     validate:"omitempty"`
	Location      string   `db:"location"        json:"location"        validate:"omitempty,max=200"`
	PricePerNight *float64 `db:"price_per_night" json:"price_per_night" validate:"omitempty,gt=0"`
	PropertyType  string   `db:"property_type"   json:"property_type"   validate:"omitempty,oneof=apartment house villa condo studio"`
	MaxGuests     *int     `db:"max_guests"      json:"max_guests"      validate:"omitempty,min=1"`
	Bedrooms      *int     `db:"bedrooms"        json:"bedrooms"        validate:"omitempty,min=0"`
	Bathrooms     *int     `db:"bathrooms"       json:"bathrooms"       validate:"omitempty,min=0"`
	Amenities     string   `db:"amenities"       json:"amenities"       validate:"omitempty"`
	Available     *bool    `db:"available"       json:"available"       validate:"omitempty"`
}

type ListingResponse struct {
	ID            string  `json:"id"`
	HostID        string  `json:"host_id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Location      string  `json:"location"`
	PricePerNight float64 `json:"price_per_night"`
	PropertyType  string  `json:"property_type"`
	MaxGuests     int     `json:"max_guests"`
	Bedrooms      int     `json:"bedrooms"`
	Bathrooms     int     `json:"bathrooms"`
	Amenities     string  `json:"amenities"`
	Available     bool    `json:"available"`
	gDto.Metadata
}

func (r *ListingResponse) FromModel(model model.Listing) {
	r.ID = model.ID
	r.HostID = model.HostID
	r.Name = model.Name
	r.Description = model.Description
	r.Location = model.Location
	r.PricePerNight = model.PricePerNight
	r.PropertyType = model.PropertyType
	r.MaxGuests = model.MaxGuests
	r.Bedrooms = model.Bedrooms
	r.Bathrooms = model.Bathrooms
	r.Amenities = model.Amenities
	r.Available = model.Available
	r.Metadata.FromModel(model.Metadata)
}

type GetListingsResponse struct {
	Listings  []ListingResponse `json:"listings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetListingsResponse) FromModels(models []model.Listing, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Listings = make([]ListingResponse, len(models))
	for i, mod := range models {
		r.Listings[i].FromModel(mod)
	}
}
