package dto

import (
	"roamstay/internal/domains/review/model"
	"roamstay/shared"
	gDto "roamstay/shared/dto"
	gModel "roamstay/shared/model"
	"roamstay/shared/timezone"

	"github.com/google/uuid"
)

type CreateReviewRequest struct {
	ListingID string  `json:"listing_id" validate:"required"`
	BookingID *string `json:"booking_id" validate:"omitempty"`
	Rating    int     `json:"rating"     validate:"required,min=1,max=5"`
	Comment   string  `json:"comment"    validate:"omitempty,max=2000"`
}

func (c *CreateReviewRequest) ToModel(user string) model.Review {
	return model.Review{
		ID:        uuid.NewString(),
		ListingID: c.ListingID,
		UserID:    user,
		BookingID: c.BookingID,
		Rating:    c.Rating,
		Comment:   c.Comment,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdateReviewRequest struct {
	Rating  *int    `json:"rating,omitempty"  db:"rating"  validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment,omitempty" db:"comment" validate:"omitempty,max=2000"`
}

type ReviewResponse struct {
	ID        string `json:"id"`
	ListingID string `json:"listing_id"`
	UserID    string `json:"user_id"`
	BookingID string `json:"booking_id,omitempty"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	gDto.Metadata
}

func (r *ReviewResponse) FromModel(model model.Review) {
	r.ID = model.ID
	r.ListingID = model.ListingID
	r.UserID = model.UserID
	r.Rating = model.Rating
	r.Comment = model.Comment

	if model.BookingID != nil {
		r.BookingID = *model.BookingID
	}

	r.Metadata.FromModel(model.Metadata)
}

type GetReviewsResponse struct {
	Reviews   []ReviewResponse `json:"reviews"`
	TotalPage int              `json:"total_page"`
	TotalData int              `json:"total_data"`
}

func (r *GetReviewsResponse) FromModels(models []model.Review, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Reviews = make([]ReviewResponse, len(models))
	for i, mod := range models {
		r.Reviews[i].FromModel(mod)
	}
}
