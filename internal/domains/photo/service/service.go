package service

import (
	"context"
	stdBase64 "encoding/base64"
	"errors"
	"fmt"
	"roamstay/config"
	"roamstay/infras/otel"
	"roamstay/infras/s3"
	listingModel "roamstay/internal/domains/listing/model"
	listingRepo "roamstay/internal/domains/listing/repository"
	"roamstay/internal/domains/photo/model"
	"roamstay/internal/domains/photo/model/dto"
	"roamstay/internal/domains/photo/repository"
	"roamstay/shared"
	"roamstay/shared/base64"
	"roamstay/shared/cache"
	"roamstay/shared/constant"
	gDto "roamstay/shared/dto"
	"roamstay/shared/failure"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	cacheGetPhoto    = "photo:get"
	cacheGetAllPhoto = "photo:gets"
	cacheCountPhoto  = "photo:count"
)

var ErrDeleteImagesFromS3 = errors.New("failed to delete images from S3")

var contentTypeExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpg":  ".jpg",
	"image/jpeg": ".jpg",
}

type Photo interface {
	Create(ctx context.Context, req dto.CreatePhotoRequest) (dto.PhotoResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetPhotosResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.PhotoResponse, error)
	Update(ctx context.Context, req dto.UpdatePhotoRequest, id string) error
	Delete(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo        repository.Photo
	listingRepo listingRepo.Listing
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
	s3          s3.S3
}

func New(
	repo repository.Photo,
	listingRepo listingRepo.Listing,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
	s3 s3.S3,
) Photo {
	return &serviceImpl{
		repo:        repo,
		listingRepo: listingRepo,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
		s3:          s3,
	}
}

// Create uploads the base64 images to object storage and stores the photo set
// with the resulting URLs. Only the listing host or an admin may add photos.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreatePhotoRequest) (res dto.PhotoResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	listing, err := s.listingRepo.Get(ctx, shared.FilterByID(req.ListingID, listingModel.FieldID, listingModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get listing")

		return res, fmt.Errorf("failed to get listing: %w", err)
	}

	if listing.ID == constant.Empty {
		return res, failure.NotFound("listing not found") // nolint:wrapcheck
	}

	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)
	if listing.HostID != user && role != constant.RoleAdmin {
		return res, failure.ResourceRestrictedError // nolint:wrapcheck
	}

	imageURLs := make([]string, 0, len(req.Images))

	for _, image := range req.Images {
		url, err := s.uploadBase64Image(ctx, image)
		if err != nil {
			return res, err
		}

		imageURLs = append(imageURLs, url)
	}

	photo := req.ToModel(user, imageURLs)

	if err = s.repo.Insert(ctx, photo); err != nil {
		log.Error().Err(err).Msg("failed to create photo")

		return res, fmt.Errorf("failed to create photo: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllPhoto)
		shared.InvalidateCaches(c, s.cache, cacheCountPhoto)
	}()

	res.FromModel(photo)

	return res, nil
}

func (s *serviceImpl) uploadBase64Image(ctx context.Context, image string) (string, error) {
	contentType := base64.GetContentType(image)

	ext, ok := contentTypeExtensions[contentType]
	if !ok {
		return constant.Empty, failure.BadRequestFromString("unsupported image content type") // nolint:wrapcheck
	}

	marker := ";base64,"

	idx := strings.Index(image, marker)
	if idx == -1 {
		return constant.Empty, failure.BadRequestFromString("image is not a base64 data URI") // nolint:wrapcheck
	}

	data, err := stdBase64.StdEncoding.DecodeString(image[idx+len(marker):])
	if err != nil {
		return constant.Empty, failure.BadRequestFromString("image payload is not valid base64") // nolint:wrapcheck
	}

	fileName := uuid.NewString() + ext
	bucketName := s.cfg.External.S3.BucketName

	url, err := s.s3.UploadFileBytes(ctx, bucketName, model.EntityName, fileName, contentType, data)
	if err != nil {
		log.Error().Err(err).Msg("failed to upload image to S3")

		return constant.Empty, fmt.Errorf("failed to upload image to S3: %w", err)
	}

	return url, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetPhotosResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllPhoto, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for photos")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count photos")

		return res, fmt.Errorf("failed to count photos: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get photos")

		return res, fmt.Errorf("failed to get photos: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save photos to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountPhoto, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for photo count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count photos")

		return res, fmt.Errorf("failed to count photos: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save photo count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.PhotoResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetPhoto, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for photo")

		return res, nil
	}

	photo, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get photo")

		return res, fmt.Errorf("failed to get photo: %w", err)
	}

	if photo.ID == constant.Empty {
		return res, failure.NotFound("photo not found") // nolint:wrapcheck
	}

	res.FromModel(photo)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save photo to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdatePhotoRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	photo, err := s.getManaged(ctx, id)
	if err != nil {
		return err
	}

	updatedFields := shared.TransformFields(req, user)
	if err := s.repo.Update(ctx, updatedFields, shared.FilterByID(photo.ID, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to update photo")

		return fmt.Errorf("failed to update photo: %w", err)
	}

	s.invalidate(ctx, id)

	return nil
}

// Delete removes the photo set and its objects from storage. The S3 cleanup
// runs detached; a failed object delete only logs.
func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	photo, err := s.getManaged(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, shared.FilterByID(photo.ID, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to delete photo")

		return fmt.Errorf("failed to delete photo: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if len(photo.Images) > 0 {
			if err := s.deleteImagesFromS3(c, photo.Images); err != nil {
				log.Error().Err(err).Msg("failed to delete images from S3")
			}
		}
	}()

	s.invalidate(ctx, id)

	return nil
}

func (s *serviceImpl) deleteImagesFromS3(ctx context.Context, imageURLs []string) error {
	bucketName := s.cfg.External.S3.BucketName

	var deleteErrors []error

	for _, imageURL := range imageURLs {
		objectName := s.s3.GetObjectNameFromURL(bucketName, imageURL)
		if objectName == constant.Empty {
			log.Warn().Str("url", imageURL).Msg("failed to extract object name from URL")

			continue
		}

		if err := s.s3.DeleteFile(ctx, bucketName, model.EntityName, objectName); err != nil {
			log.Error().Err(err).Str("objectName", objectName).Msg("failed to delete file from S3")
			deleteErrors = append(deleteErrors, err)
		}
	}

	if len(deleteErrors) > 0 {
		return fmt.Errorf("%w: %d images", ErrDeleteImagesFromS3, len(deleteErrors))
	}

	return nil
}

// getManaged fetches the photo and enforces that the caller hosts the listing
// it belongs to, unless the caller is an admin.
func (s *serviceImpl) getManaged(ctx context.Context, id string) (model.Photo, error) {
	photo, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get photo")

		return photo, fmt.Errorf("failed to get photo: %w", err)
	}

	if photo.ID == constant.Empty {
		return photo, failure.NotFound("photo not found") // nolint:wrapcheck
	}

	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)
	if role == constant.RoleAdmin {
		return photo, nil
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	listing, err := s.listingRepo.Get(ctx, shared.FilterByID(photo.ListingID, listingModel.FieldID, listingModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get listing")

		return photo, fmt.Errorf("failed to get listing: %w", err)
	}

	if listing.HostID != user {
		return photo, failure.ResourceRestrictedError // nolint:wrapcheck
	}

	return photo, nil
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetPhoto, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete photo from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllPhoto)
		shared.InvalidateCaches(c, s.cache, cacheCountPhoto)
	}()
}
