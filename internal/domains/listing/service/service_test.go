package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"roamstay/config"
	"roamstay/infras/otel/mocks"
	listingMocks "roamstay/internal/domains/listing/mocks"
	"roamstay/internal/domains/listing/model"
	"roamstay/internal/domains/listing/model/dto"
	"roamstay/internal/domains/listing/service"
	"roamstay/shared/cache"
	cacheMocks "roamstay/shared/cache/mocks"
	"roamstay/shared/constant"
	gDto "roamstay/shared/dto"
	"roamstay/shared/failure"
)

type listingServiceMocks struct {
	repo  *listingMocks.MockListing
	cache *cacheMocks.MockRedisCache
}

func newListingService(t *testing.T) (service.Listing, listingServiceMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := listingServiceMocks{
		repo:  listingMocks.NewMockListing(ctrl),
		cache: cacheMocks.NewMockRedisCache(ctrl),
	}

	cfg := &config.Config{}
	cfg.Cache.TTL = 300

	svc := service.New(m.repo, cfg, m.cache, mocks.NewOtel())

	m.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	return svc, m
}

func userContext(userID, role string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, userID)

	return context.WithValue(ctx, constant.ContextKeyUserRole, role)
}

func TestListingService_Create(t *testing.T) {
	req := dto.CreateListingRequest{
		Name:          "Lakeside Cottage",
		Location:      "Bahir Dar",
		PricePerNight: 1500,
		PropertyType:  model.PropertyTypeHouse,
		MaxGuests:     4,
		Bedrooms:      2,
		Bathrooms:     1,
	}

	t.Run("host creates a listing", func(t *testing.T) {
		svc, m := newListingService(t)

		m.repo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, listing model.Listing) error {
				assert.Equal(t, "host-1", listing.HostID)
				assert.Equal(t, "Lakeside Cottage", listing.Name)
				assert.True(t, listing.Available)
				assert.NotEmpty(t, listing.ID)

				return nil
			})

		err := svc.Create(userContext("host-1", constant.RoleHost), req)

		assert.NoError(t, err)

		time.Sleep(10 * time.Millisecond)
	})

	t.Run("insert failure propagates", func(t *testing.T) {
		svc, m := newListingService(t)

		m.repo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			Return(errors.New("connection refused"))

		err := svc.Create(userContext("host-1", constant.RoleHost), req)

		assert.Error(t, err)
	})
}

func TestListingService_Get(t *testing.T) {
	stored := model.Listing{
		ID:            "listing-1",
		HostID:        "host-1",
		Name:          "Lakeside Cottage",
		Location:      "Bahir Dar",
		PricePerNight: 1500,
		PropertyType:  model.PropertyTypeHouse,
		MaxGuests:     4,
		Available:     true,
	}

	t.Run("cache miss falls back to repository", func(t *testing.T) {
		svc, m := newListingService(t)

		m.cache.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(cache.Nil)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(stored, nil)

		res, err := svc.Get(context.Background(), "listing-1")

		assert.NoError(t, err)
		assert.Equal(t, "listing-1", res.ID)
		assert.Equal(t, "Lakeside Cottage", res.Name)

		time.Sleep(10 * time.Millisecond)
	})

	t.Run("cache hit skips the repository", func(t *testing.T) {
		svc, m := newListingService(t)

		m.cache.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, dest any) error {
				res, ok := dest.(*dto.ListingResponse)
				assert.True(t, ok)

				res.FromModel(stored)

				return nil
			})

		res, err := svc.Get(context.Background(), "listing-1")

		assert.NoError(t, err)
		assert.Equal(t, "listing-1", res.ID)
	})

	t.Run("listing not found", func(t *testing.T) {
		svc, m := newListingService(t)

		m.cache.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(cache.Nil)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Listing{}, nil)

		_, err := svc.Get(context.Background(), "missing")

		assert.Error(t, err)
		assert.Equal(t, 404, failure.GetCode(err))
	})
}

func TestListingService_GetAll(t *testing.T) {
	svc, m := newListingService(t)

	listings := []model.Listing{
		{ID: "listing-1", Name: "Lakeside Cottage"},
		{ID: "listing-2", Name: "City Studio"},
	}

	// one miss for the list, one for the count
	m.cache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(cache.Nil).
		Times(2)

	m.repo.EXPECT().
		Count(gomock.Any(), gomock.Any()).
		Return(2, nil)

	m.repo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(listings, nil)

	res, err := svc.GetAll(context.Background(), gDto.QueryParams{Limit: 10}, gDto.FilterGroup{})

	assert.NoError(t, err)
	assert.Len(t, res.Listings, 2)
	assert.Equal(t, 2, res.TotalData)
	assert.Equal(t, 1, res.TotalPage)

	time.Sleep(10 * time.Millisecond)
}

func TestListingService_Update(t *testing.T) {
	stored := model.Listing{ID: "listing-1", HostID: "host-1"}

	price := 2000.0
	req := dto.UpdateListingRequest{PricePerNight: &price}

	t.Run("host updates own listing", func(t *testing.T) {
		svc, m := newListingService(t)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(stored, nil)

		m.repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		err := svc.Update(userContext("host-1", constant.RoleHost), req, "listing-1")

		assert.NoError(t, err)

		time.Sleep(10 * time.Millisecond)
	})

	t.Run("admin can update any listing", func(t *testing.T) {
		svc, m := newListingService(t)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(stored, nil)

		m.repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		err := svc.Update(userContext("admin-1", constant.RoleAdmin), req, "listing-1")

		assert.NoError(t, err)

		time.Sleep(10 * time.Millisecond)
	})

	t.Run("other host is rejected", func(t *testing.T) {
		svc, m := newListingService(t)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(stored, nil)

		err := svc.Update(userContext("host-2", constant.RoleHost), req, "listing-1")

		assert.Error(t, err)
		assert.Equal(t, 403, failure.GetCode(err))
	})

	t.Run("listing not found", func(t *testing.T) {
		svc, m := newListingService(t)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Listing{}, nil)

		err := svc.Update(userContext("host-1", constant.RoleHost), req, "missing")

		assert.Error(t, err)
		assert.Equal(t, 404, failure.GetCode(err))
	})
}

func TestListingService_Delete(t *testing.T) {
	stored := model.Listing{ID: "listing-1", HostID: "host-1"}

	t.Run("host deletes own listing", func(t *testing.T) {
		svc, m := newListingService(t)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(stored, nil)

		m.repo.EXPECT().
			Delete(gomock.Any(), gomock.Any()).
			Return(nil)

		err := svc.Delete(userContext("host-1", constant.RoleHost), "listing-1")

		assert.NoError(t, err)

		time.Sleep(10 * time.Millisecond)
	})

	t.Run("other host is rejected", func(t *testing.T) {
		svc, m := newListingService(t)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(stored, nil)

		err := svc.Delete(userContext("host-2", constant.RoleHost), "listing-1")

		assert.Error(t, err)
		assert.Equal(t, 403, failure.GetCode(err))
	})
}
