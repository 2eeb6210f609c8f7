package chapa

//go:generate go run go.uber.org/mock/mockgen -source=./chapa.go -destination=./mocks/chapa_mock.go -package=mocks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"roamstay/config"
	"roamstay/infras/otel"
	"roamstay/shared/constant"
	"time"

	"github.com/rs/zerolog/log"
)

// Gateway-level error kinds. Declined means the gateway processed the request
// and said no; Unavailable covers network failures, timeouts, non-2xx replies
// and malformed payloads alike so callers only ever branch on two conditions.
var (
	ErrGatewayDeclined    = errors.New("payment gateway declined the transaction")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

const (
	statusSuccess = "success"

	initializePath = "/transaction/initialize"
	verifyPath     = "/transaction/verify/"
)

type InitializeRequest struct {
	Amount      float64 `json:"amount,string"`
	Currency    string  `json:"currency"`
	Email       string  `json:"email"`
	FirstName   string  `json:"first_name,omitempty"`
	LastName    string  `json:"last_name,omitempty"`
	PhoneNumber string  `json:"phone_number,omitempty"`
	TxRef       string  `json:"tx_ref"`
	CallbackURL string  `json:"callback_url,omitempty"`
	ReturnURL   string  `json:"return_url,omitempty"`
}

type InitializeResult struct {
	CheckoutURL string
}

type VerifyResult struct {
	Status        string
	TransactionID string
	Method        string
	Amount        float64
	Currency      string
	PaidAt        *time.Time
	FailureReason string
	Raw           json.RawMessage
}

type Client interface {
	Initialize(ctx context.Context, req InitializeRequest) (InitializeResult, error)
	Verify(ctx context.Context, reference string) (VerifyResult, error)
}

type clientImpl struct {
	cfg        *config.Config
	otel       otel.Otel
	httpClient *http.Client
}

func New(cfg *config.Config, otel otel.Otel) Client {
	return &clientImpl{
		cfg:  cfg,
		otel: otel,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.External.Chapa.TimeoutSeconds) * time.Second,
		},
	}
}

type apiEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeData struct {
	CheckoutURL string `json:"checkout_url"`
}

type verifyData struct {
	Status        string  `json:"status"`
	Reference     string  `json:"reference"`
	TxRef         string  `json:"tx_ref"`
	Method        string  `json:"method"`
	Type          string  `json:"type"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
	FailureReason string  `json:"failure_reason"`
}

func (c *clientImpl) Initialize(ctx context.Context, req InitializeRequest) (res InitializeResult, err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelExternalScopeName+".chapa.Initialize")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute("payment.tx_ref", req.TxRef)

	if c.cfg.External.Chapa.WebhookURL != constant.Empty && req.CallbackURL == constant.Empty {
		req.CallbackURL = c.cfg.External.Chapa.WebhookURL
	}

	body, err := json.Marshal(req)
	if err != nil {
		return res, fmt.Errorf("failed to marshal initialize request: %w", err)
	}

	envelope, err := c.do(ctx, http.MethodPost, c.cfg.External.Chapa.BaseURL+initializePath, bytes.NewReader(body))
	if err != nil {
		return res, err
	}

	if envelope.Status != statusSuccess {
		log.Warn().Str("tx_ref", req.TxRef).Str("message", envelope.Message).Msg("gateway declined payment initialization")

		return res, fmt.Errorf("%w: %s", ErrGatewayDeclined, envelope.Message)
	}

	var data initializeData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return res, fmt.Errorf("%w: malformed initialize response", ErrGatewayUnavailable)
	}

	if data.CheckoutURL == constant.Empty {
		return res, fmt.Errorf("%w: missing checkout url", ErrGatewayUnavailable)
	}

	res.CheckoutURL = data.CheckoutURL

	return res, nil
}

func (c *clientImpl) Verify(ctx context.Context, reference string) (res VerifyResult, err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelExternalScopeName+".chapa.Verify")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute("payment.tx_ref", reference)

	envelope, err := c.do(ctx, http.MethodGet, c.cfg.External.Chapa.BaseURL+verifyPath+reference, nil)
	if err != nil {
		return res, err
	}

	if envelope.Status != statusSuccess {
		return res, fmt.Errorf("%w: %s", ErrGatewayDeclined, envelope.Message)
	}

	var data verifyData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return res, fmt.Errorf("%w: malformed verify response", ErrGatewayUnavailable)
	}

	res = VerifyResult{
		Status:        data.Status,
		TransactionID: data.Reference,
		Method:        data.Method,
		Amount:        data.Amount,
		Currency:      data.Currency,
		FailureReason: data.FailureReason,
		Raw:           envelope.Data,
	}

	if res.Method == constant.Empty {
		res.Method = data.Type
	}

	if data.UpdatedAt != constant.Empty {
		if paidAt, parseErr := time.Parse(time.RFC3339, data.UpdatedAt); parseErr == nil {
			res.PaidAt = &paidAt
		}
	}

	return res, nil
}

func (c *clientImpl) do(ctx context.Context, method, url string, body *bytes.Reader) (apiEnvelope, error) {
	var envelope apiEnvelope

	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = body
	}

	request, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return envelope, fmt.Errorf("failed to build gateway request: %w", err)
	}

	request.Header.Set(constant.RequestHeaderAuthorization, "Bearer "+c.cfg.External.Chapa.SecretKey)
	request.Header.Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)

	response, err := c.httpClient.Do(request)
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("gateway request failed")

		return envelope, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusInternalServerError {
		return envelope, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, response.StatusCode)
	}

	if err := json.NewDecoder(response.Body).Decode(&envelope); err != nil {
		log.Error().Err(err).Str("url", url).Msg("failed to decode gateway response")

		return envelope, fmt.Errorf("%w: malformed response body", ErrGatewayUnavailable)
	}

	return envelope, nil
}
