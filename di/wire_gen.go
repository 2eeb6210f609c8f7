// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package di

import (
	"github.com/google/wire"
	"roamstay/config"
	"roamstay/infras/chapa"
	"roamstay/infras/jwt"
	"roamstay/infras/kafka"
	"roamstay/infras/otel"
	"roamstay/infras/postgres"
	"roamstay/infras/redis"
	"roamstay/infras/s3"
	"roamstay/internal/domains/auth/service"
	repository3 "roamstay/internal/domains/booking/repository"
	service5 "roamstay/internal/domains/booking/service"
	repository2 "roamstay/internal/domains/listing/repository"
	service3 "roamstay/internal/domains/listing/service"
	repository4 "roamstay/internal/domains/payment/repository"
	service4 "roamstay/internal/domains/payment/service"
	repository6 "roamstay/internal/domains/photo/repository"
	service7 "roamstay/internal/domains/photo/service"
	repository5 "roamstay/internal/domains/review/repository"
	service6 "roamstay/internal/domains/review/service"
	"roamstay/internal/domains/user/repository"
	service2 "roamstay/internal/domains/user/service"
	"roamstay/internal/handlers/auth"
	"roamstay/internal/handlers/booking"
	"roamstay/internal/handlers/listing"
	"roamstay/internal/handlers/payment"
	"roamstay/internal/handlers/photo"
	"roamstay/internal/handlers/review"
	"roamstay/internal/handlers/user"
	"roamstay/internal/notification"
	"roamstay/permissions"
	"roamstay/shared/cache"
	"roamstay/transport/http"
	"roamstay/transport/http/middleware"
	"roamstay/transport/http/router"
)

// Injectors from wire.go:

func InitializeService() *http.HTTP {
	configConfig := config.Get()
	connection := postgres.New(configConfig)
	otelOtel := otel.New(configConfig)
	repositoryUser := repository.New(connection, otelOtel)
	jwtJWT := jwt.New(configConfig)
	serviceAuth := service.New(repositoryUser, configConfig, otelOtel, jwtJWT)
	handler := auth.New(serviceAuth, otelOtel)
	client := redis.New(configConfig)
	redisCache := cache.NewRedisCache(client, otelOtel)
	serviceUser := service2.New(repositoryUser, configConfig, redisCache, otelOtel)
	userHandler := user.New(serviceUser, otelOtel)
	repositoryListing := repository2.New(connection, otelOtel)
	serviceListing := service3.New(repositoryListing, configConfig, redisCache, otelOtel)
	listingHandler := listing.New(serviceListing, otelOtel)
	repositoryBooking := repository3.New(connection, otelOtel)
	repositoryPayment := repository4.New(connection, otelOtel)
	chapaClient := chapa.New(configConfig, otelOtel)
	kafkaClient := kafka.New(configConfig)
	dispatcher := notification.NewDispatcher(kafkaClient, configConfig, otelOtel)
	servicePayment := service4.New(repositoryPayment, repositoryBooking, repositoryUser, configConfig, chapaClient, dispatcher, otelOtel)
	serviceBooking := service5.New(repositoryBooking, servicePayment, dispatcher, configConfig, redisCache, otelOtel)
	bookingHandler := booking.New(serviceBooking, otelOtel)
	paymentHandler := payment.New(servicePayment, otelOtel)
	repositoryReview := repository5.New(connection, otelOtel)
	serviceReview := service6.New(repositoryReview, repositoryListing, repositoryBooking, configConfig, redisCache, otelOtel)
	reviewHandler := review.New(serviceReview, otelOtel)
	repositoryPhoto := repository6.New(connection, otelOtel)
	s3S3 := s3.New(configConfig, otelOtel)
	servicePhoto := service7.New(repositoryPhoto, repositoryListing, configConfig, redisCache, otelOtel, s3S3)
	photoHandler := photo.New(servicePhoto, otelOtel)
	domainHandlers := router.DomainHandlers{
		Auth:    handler,
		User:    userHandler,
		Listing: listingHandler,
		Booking: bookingHandler,
		Payment: paymentHandler,
		Review:  reviewHandler,
		Photo:   photoHandler,
	}
	routerRouter := router.New(domainHandlers)
	appMiddleware := middleware.NewAppMiddleware(otelOtel, configConfig, redisCache)
	permissionData := permissions.Get()
	authRole := middleware.NewAuthRoleMiddleware(jwtJWT, otelOtel, permissionData, configConfig)
	httpHTTP := http.New(configConfig, routerRouter, appMiddleware, authRole)
	return httpHTTP
}

func InitializeWorker() *notification.Worker {
	configConfig := config.Get()
	client := kafka.New(configConfig)
	otelOtel := otel.New(configConfig)
	dispatcher := notification.NewDispatcher(client, configConfig, otelOtel)
	sender := notification.NewSender(configConfig, otelOtel)
	connection := postgres.New(configConfig)
	repositoryBooking := repository3.New(connection, otelOtel)
	repositoryPayment := repository4.New(connection, otelOtel)
	repositoryListing := repository2.New(connection, otelOtel)
	repositoryUser := repository.New(connection, otelOtel)
	worker := notification.NewWorker(client, dispatcher, sender, repositoryBooking, repositoryPayment, repositoryListing, repositoryUser, configConfig, otelOtel)
	return worker
}

// wire.go:

var configurations = wire.NewSet(config.Get, permissions.Get)

var infrastructures = wire.NewSet(postgres.New, otel.New, redis.New, jwt.New, kafka.New, s3.New, chapa.New)

var middlewares = wire.NewSet(middleware.NewAppMiddleware, middleware.NewAuthRoleMiddleware)

var sharedHelpers = wire.NewSet(cache.NewRedisCache)

var notifications = wire.NewSet(notification.NewDispatcher, notification.NewSender)

var authDomain = wire.NewSet(repository.New, service.New)

var userDomain = wire.NewSet(service2.New)

var listingDomain = wire.NewSet(repository2.New, service3.New)

var bookingDomain = wire.NewSet(repository3.New, service5.New)

var paymentDomain = wire.NewSet(repository4.New, service4.New)

var reviewDomain = wire.NewSet(repository5.New, service6.New)

var photoDomain = wire.NewSet(repository6.New, service7.New)

var domains = wire.NewSet(
	authDomain,
	userDomain,
	listingDomain,
	bookingDomain,
	paymentDomain,
	reviewDomain,
	photoDomain,
)

var routing = wire.NewSet(wire.Struct(new(router.DomainHandlers), "*"), auth.New, user.New, listing.New, booking.New, payment.New, review.New, photo.New, router.New)
