package dto

import (
	"roamstay/internal/domains/photo/model"
	"roamstay/shared"
	gDto "roamstay/shared/dto"
	gModel "roamstay/shared/model"
	"roamstay/shared/timezone"

	"github.com/google/uuid"
)

// CreatePhotoRequest carries images as base64 data URIs. The service uploads
// them to object storage and persists the resulting URLs.
type CreatePhotoRequest struct {
	ListingID string   `json:"listing_id" validate:"required"`
	Title     string   `json:"title"      validate:"omitempty,max=100"`
	Images    []string `json:"images"     validate:"required,min=1,dive,mimetypes=image/png image/jpg image/jpeg,maxfilesize=5"`
}

func (c *CreatePhotoRequest) ToModel(user string, imageURLs []string) model.Photo {
	return model.Photo{
		ID:        uuid.NewString(),
		ListingID: c.ListingID,
		Title:     c.Title,
		Images:    imageURLs,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdatePhotoRequest struct {
	Title *string `db:"title" json:"title,omitempty" validate:"omitempty,max=100"`
}

type PhotoResponse struct {
	ID        string   `json:"id"`
	ListingID string   `json:"listing_id"`
	Title     string   `json:"title"`
	Images    []string `json:"images"`
	gDto.Metadata
}

func (r *PhotoResponse) FromModel(model model.Photo) {
	r.ID = model.ID
	r.ListingID = model.ListingID
	r.Title = model.Title
	r.Images = model.Images
	r.Metadata.FromModel(model.Metadata)
}

type GetPhotosResponse struct {
	Photos    []PhotoResponse `json:"photos"`
	TotalPage int             `json:"total_page"`
	TotalData int             `json:"total_data"`
}

func (r *GetPhotosResponse) FromModels(models []model.Photo, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Photos = make([]PhotoResponse, len(models))
	for i, mod := range models {
		r.Photos[i].FromModel(mod)
	}
}
