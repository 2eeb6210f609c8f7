//go:build wireinject
// +build wireinject

package di

import (
	"roamstay/config"
	"roamstay/infras/chapa"
	"roamstay/infras/jwt"
	"roamstay/infras/kafka"
	"roamstay/infras/otel"
	"roamstay/infras/postgres"
	"roamstay/infras/redis"
	"roamstay/infras/s3"
	"roamstay/internal/notification"
	"roamstay/permissions"
	"roamstay/shared/cache"
	"roamstay/transport/http"
	"roamstay/transport/http/middleware"
	"roamstay/transport/http/router"

	authService "roamstay/internal/domains/auth/service"
	bookingRepository "roamstay/internal/domains/booking/repository"
	bookingService "roamstay/internal/domains/booking/service"
	listingRepository "roamstay/internal/domains/listing/repository"
	listingService "roamstay/internal/domains/listing/service"
	paymentRepository "roamstay/internal/domains/payment/repository"
	paymentService "roamstay/internal/domains/payment/service"
	photoRepository "roamstay/internal/domains/photo/repository"
	photoService "roamstay/internal/domains/photo/service"
	reviewRepository "roamstay/internal/domains/review/repository"
	reviewService "roamstay/internal/domains/review/service"
	userRepository "roamstay/internal/domains/user/repository"
	userService "roamstay/internal/domains/user/service"

	authHandler "roamstay/internal/handlers/auth"
	bookingHandler "roamstay/internal/handlers/booking"
	listingHandler "roamstay/internal/handlers/listing"
	paymentHandler "roamstay/internal/handlers/payment"
	photoHandler "roamstay/internal/handlers/photo"
	reviewHandler "roamstay/internal/handlers/review"
	userHandler "roamstay/internal/handlers/user"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
	s3.New,
	chapa.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var notifications = wire.NewSet(
	notification.NewDispatcher,
	notification.NewSender,
)

var authDomain = wire.NewSet(
	userRepository.New,
	authService.New,
)

var userDomain = wire.NewSet(
	userService.New,
)

var listingDomain = wire.NewSet(
	listingRepository.New,
	listingService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingService.New,
)

var paymentDomain = wire.NewSet(
	paymentRepository.New,
	paymentService.New,
)

var reviewDomain = wire.NewSet(
	reviewRepository.New,
	reviewService.New,
)

var photoDomain = wire.NewSet(
	photoRepository.New,
	photoService.New,
)

var domains = wire.NewSet(
	authDomain,
	userDomain,
	listingDomain,
	bookingDomain,
	paymentDomain,
	reviewDomain,
	photoDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	userHandler.New,
	listingHandler.New,
	bookingHandler.New,
	paymentHandler.New,
	reviewHandler.New,
	photoHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		notifications,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}

func InitializeWorker() *notification.Worker {
	wire.Build(
		config.Get,
		postgres.New,
		otel.New,
		kafka.New,
		notifications,
		userRepository.New,
		listingRepository.New,
		bookingRepository.New,
		paymentRepository.New,
		notification.NewWorker,
	)

	return &notification.Worker{}
}
