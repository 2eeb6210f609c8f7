package photo

import (
	"net/http"
	"roamstay/infras/otel"
	"roamstay/internal/domains/photo/model"
	"roamstay/internal/domains/photo/model/dto"
	"roamstay/internal/domains/photo/service"
	"roamstay/shared/constant"
	gDto "roamstay/shared/dto"
	"roamstay/shared/validator"
	"roamstay/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Photo
	otel    otel.Otel
}

func New(service service.Photo, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/photos", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreatePhoto)
		routerGroup.Get("/", handler.GetPhotos)
		routerGroup.Get("/{id}", handler.GetPhotoByID)
		routerGroup.Patch("/{id}", handler.UpdatePhoto)
		routerGroup.Delete("/{id}", handler.DeletePhoto)
	})
}

// CreatePhoto uploads a set of photos for a listing.
// @Summary Create listing photos
// @Description Upload base64-encoded images for a listing. Host or admin only.
// @Tags Photo
// @Accept json
// @Produce json
// @Param request body dto.CreatePhotoRequest true "Create Photo Request"
// @Success 201 {object} response.Data[dto.PhotoResponse] "Photos created"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/photos [post]
// @Security BearerAuth
func (handler *Handler) CreatePhoto(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreatePhoto")
	defer scope.End()

	req := dto.CreatePhotoRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create photo")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Photo created successfully by user " + user)

	response.WithJSON(writer, http.StatusCreated, res)
}

// GetPhotos retrieves all photo sets based on query parameters.
// @Summary Get all photos
// @Description Retrieve all listing photos with optional filtering and pagination.
// @Tags Photo
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param listing_id query string false "Filter by listing ID"
// @Success 200 {object} response.Data[dto.PhotoResponse] "List of photos"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/photos [get]
func (handler *Handler) GetPhotos(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetPhotos")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	if listingID := r.URL.Query().Get(model.FieldListingID); listingID != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldListingID,
			Operator: gDto.FilterOperatorEq,
			Value:    listingID,
			Table:    model.TableName,
		})
	}

	photos, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get photos")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Photos retrieved successfully")

	response.WithJSON(w, http.StatusOK, photos)
}

// GetPhotoByID retrieves a photo set by its ID.
// @Summary Get a photo by ID
// @Description Retrieve a photo set by its unique identifier.
// @Tags Photo
// @Accept json
// @Produce json
// @Param id path string true "Photo ID"
// @Success 200 {object} response.Data[dto.PhotoResponse] "Photo details"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/photos/{id} [get]
func (handler *Handler) GetPhotoByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetPhotoByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	photo, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get photo by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Photo retrieved successfully")

	response.WithJSON(w, http.StatusOK, photo)
}

// UpdatePhoto updates an existing photo set by its ID.
// @Summary Update a photo by ID
// @Description Update the title of an existing photo set. Host or admin only.
// @Tags Photo
// @Accept json
// @Produce json
// @Param id path string true "Photo ID"
// @Param request body dto.UpdatePhotoRequest true "Update Photo Request"
// @Success 200 {object} response.Message "Photo updated successfully"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/photos/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdatePhoto")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.UpdatePhotoRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Update(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update photo")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Photo updated successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Photo updated successfully")
}

// DeletePhoto deletes a photo set by its ID.
// @Summary Delete a photo by ID
// @Description Delete a photo set and its stored objects. Host or admin only.
// @Tags Photo
// @Accept json
// @Produce json
// @Param id path string true "Photo ID"
// @Success 200 {object} response.Message "Photo deleted successfully"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/photos/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeletePhoto")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.Delete(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete photo")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Photo deleted successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Photo deleted successfully")
}
