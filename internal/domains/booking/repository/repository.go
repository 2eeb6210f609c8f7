package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"roamstay/infras/otel"
	"roamstay/infras/postgres"
	listingModel "roamstay/internal/domains/listing/model"
	"roamstay/internal/domains/booking/model"
	"roamstay/shared/constant"
	gDto "roamstay/shared/dto"
	"roamstay/shared/logger"
	gRepo "roamstay/shared/repository"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

var (
	ErrListingNotFound    = errors.New("listing not found")
	ErrListingUnavailable = errors.New("listing is not available")
	ErrDatesOverlap       = errors.New("listing already booked for the requested dates")
	ErrTooManyGuests      = errors.New("guest count exceeds listing capacity")
)

type Booking interface {
	Insert(ctx context.Context, model model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	InsertWithAvailabilityCheck(ctx context.Context, booking model.Booking) (model.Booking, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// InsertWithAvailabilityCheck validates the listing and inserts the booking in
// one transaction. The listing row is locked FOR UPDATE so two requests for the
// same listing serialize, making the overlap check race-free. The returned
// booking carries the total price computed from the locked listing row.
func (repo *repositoryImpl) InsertWithAvailabilityCheck(ctx context.Context, booking model.Booking) (model.Booking, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.InsertWithAvailabilityCheck")
	defer scope.End()

	sqltx, err := repo.db.Write.BeginTxx(ctx, nil)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return booking, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err := sqltx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.Debug().Err(err).Msg("booking transaction rollback")
		}
	}()

	listing, err := repo.lockListing(ctx, sqltx, booking.ListingID)
	if err != nil {
		return booking, err
	}

	if !listing.Available {
		return booking, ErrListingUnavailable
	}

	if booking.Guests > listing.MaxGuests {
		return booking, ErrTooManyGuests
	}

	overlap, err := repo.existsOverlap(ctx, sqltx, booking)
	if err != nil {
		return booking, err
	}

	if overlap {
		return booking, ErrDatesOverlap
	}

	booking.TotalPrice = listing.PricePerNight * float64(booking.Nights())

	if err := repo.InsertTx(ctx, sqltx, booking); err != nil {
		return booking, err // nolint:wrapcheck
	}

	if err := sqltx.Commit(); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return booking, fmt.Errorf("failed to commit booking transaction: %w", err)
	}

	return booking, nil
}

func (repo *repositoryImpl) lockListing(ctx context.Context, sqltx *sqlx.Tx, listingID string) (listingModel.Listing, error) {
	_, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.lockListing")
	defer scope.End()

	query := fmt.Sprintf("SELECT %s, %s, %s, %s FROM %s WHERE %s = $1 FOR UPDATE",
		listingModel.FieldID, listingModel.FieldPricePerNight, listingModel.FieldMaxGuests, listingModel.FieldAvailable,
		listingModel.TableName, listingModel.FieldID)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var listing listingModel.Listing

	err := sqltx.GetContext(ctx, &listing, query, listingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return listing, ErrListingNotFound
		}

		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return listing, fmt.Errorf("failed to lock listing row: %w", err)
	}

	return listing, nil
}

func (repo *repositoryImpl) existsOverlap(ctx context.Context, sqltx *sqlx.Tx, booking model.Booking) (bool, error) {
	_, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.existsOverlap")
	defer scope.End()

	query := fmt.Sprintf(`SELECT EXISTS(
		SELECT 1 FROM %s
		WHERE %s = $1
		  AND %s IN ($2, $3, $4)
		  AND %s < $5
		  AND %s > $6
	)`, model.TableName, model.FieldListingID, model.FieldStatus, model.FieldCheckInDate, model.FieldCheckOutDate)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	statuses := model.ActiveStatuses()

	var exists bool

	err := sqltx.GetContext(ctx, &exists, query,
		booking.ListingID, statuses[0], statuses[1], statuses[2],
		booking.CheckOutDate, booking.CheckInDate)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return false, fmt.Errorf("failed to check booking overlap: %w", err)
	}

	return exists, nil
}
