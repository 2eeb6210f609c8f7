package payment

import (
	"io"
	"net/http"
	"roamstay/infras/otel"
	"roamstay/internal/domains/payment/model/dto"
	"roamstay/internal/domains/payment/service"
	"roamstay/shared/constant"
	"roamstay/shared/validator"
	"roamstay/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const maxWebhookBodyBytes = 1 << 20

type Handler struct {
	service service.Payment
	otel    otel.Otel
}

func New(service service.Payment, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/payments", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.InitiatePayment)
		routerGroup.Post("/verify", handler.VerifyPayment)
		routerGroup.Post("/webhook", handler.Webhook)
		routerGroup.Get("/{id}/status", handler.PaymentStatus)
		routerGroup.Get("/booking/{id}", handler.GetPaymentByBooking)
	})
}

// InitiatePayment starts (or restarts) the checkout for a booking.
// @Summary Initiate a payment
// @Description Start a gateway checkout for the booking. Reuses the existing payment when the booking already has one.
// @Tags Payment
// @Accept json
// @Produce json
// @Param request body dto.InitiatePaymentRequest true "Initiate Payment Request"
// @Success 200 {object} response.Data[dto.PaymentResponse] "Payment with checkout URL"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/payments [post]
// @Security BearerAuth
func (handler *Handler) InitiatePayment(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".InitiatePayment")
	defer scope.End()

	req := dto.InitiatePaymentRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.Initiate(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to initiate payment")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Payment initiated successfully")

	response.WithJSON(writer, http.StatusOK, res)
}

// VerifyPayment re-verifies a payment against the gateway.
// @Summary Verify a payment
// @Description Verify the transaction with the gateway and reconcile payment and booking state.
// @Tags Payment
// @Accept json
// @Produce json
// @Param request body dto.VerifyPaymentRequest true "Verify Payment Request"
// @Success 200 {object} response.Data[dto.PaymentResponse] "Reconciled payment"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/payments/verify [post]
// @Security BearerAuth
func (handler *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".VerifyPayment")
	defer scope.End()

	req := dto.VerifyPaymentRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.Verify(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to verify payment")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Payment verified successfully")

	response.WithJSON(w, http.StatusOK, res)
}

// Webhook receives gateway push notifications. The route is unauthenticated;
// the pushed status is never trusted and the transaction is re-verified.
// @Summary Payment gateway webhook
// @Description Receive a payment status push from the gateway.
// @Tags Payment
// @Accept json
// @Produce json
// @Success 200 {object} response.Message "Webhook processed"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/payments/webhook [post]
func (handler *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Webhook")
	defer scope.End()

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to read webhook body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.HandleWebhook(ctx, payload); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to process webhook")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Webhook processed successfully")

	response.WithMessage(w, http.StatusOK, "Webhook processed")
}

// PaymentStatus returns the current payment and booking status, refreshing
// in-flight payments against the gateway first.
// @Summary Get payment status
// @Description Retrieve the payment status together with the booking status.
// @Tags Payment
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Data[dto.PaymentStatusResponse] "Payment status"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/payments/{id}/status [get]
// @Security BearerAuth
func (handler *Handler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".PaymentStatus")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	res, err := handler.service.Status(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get payment status")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Payment status retrieved successfully")

	response.WithJSON(w, http.StatusOK, res)
}

// GetPaymentByBooking retrieves the payment attached to a booking.
// @Summary Get payment by booking
// @Description Retrieve the payment record for the given booking.
// @Tags Payment
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.PaymentResponse] "Payment details"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/payments/booking/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetPaymentByBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetPaymentByBooking")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	res, err := handler.service.GetByBooking(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get payment by booking")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Payment retrieved successfully")

	response.WithJSON(w, http.StatusOK, res)
}
