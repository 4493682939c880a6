package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/juriscorrect/juriscorrect-api/internal/config"
	"github.com/juriscorrect/juriscorrect-api/internal/dto"
	"github.com/juriscorrect/juriscorrect-api/internal/models"
	"github.com/juriscorrect/juriscorrect-api/internal/repository"
	"github.com/juriscorrect/juriscorrect-api/internal/router"
	"github.com/juriscorrect/juriscorrect-api/internal/service"
	"github.com/juriscorrect/juriscorrect-api/pkg/ai"
	"github.com/juriscorrect/juriscorrect-api/pkg/payments"
)

type testCorrector struct {
	result ai.CorrectionResult
	err    error
}

func (c *testCorrector) Correct(_ context.Context, _ ai.CorrectionInput) (ai.CorrectionResult, error) {
	if c.err != nil {
		return ai.CorrectionResult{}, c.err
	}
	return c.result, nil
}

type testGateway struct {
	event     payments.Event
	verifyErr error
}

func (g *testGateway) CreateCheckoutSession(_ context.Context, params payments.CheckoutParams) (payments.CheckoutSession, error) {
	return payments.CheckoutSession{
		ID:  "cs_test_" + params.SubmissionID,
		URL: "https://checkout.test/cs_test_" + params.SubmissionID,
	}, nil
}

func (g *testGateway) VerifyEvent(_ []byte, _ string) (payments.Event, error) {
	if g.verifyErr != nil {
		return payments.Event{}, g.verifyErr
	}
	return g.event, nil
}

// syncDispatcher runs the correction inline so handler assertions observe the
// terminal state without polling.
type syncDispatcher struct {
	corrections service.CorrectionService
}

func (d *syncDispatcher) Dispatch(ctx context.Context, submissionID string) {
	_, _ = d.corrections.Generate(ctx, submissionID)
}

func (d *syncDispatcher) Start(_ context.Context) {}

type testEnv struct {
	app     *fiber.App
	db      *gorm.DB
	gateway *testGateway
}

func setupAPI(t *testing.T, corrector ai.Corrector) testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Submission{}, &models.Correction{}, &models.PaymentUnlock{}))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)
	gateway := &testGateway{}

	submissionRepo := repository.NewSubmissionRepository(db)
	correctionRepo := repository.NewCorrectionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	correctionService := service.NewCorrectionService(correctionRepo, submissionRepo, corrector, nil, logger, service.CorrectionConfig{})
	dispatcher := &syncDispatcher{corrections: correctionService}
	submissionService := service.NewSubmissionService(submissionRepo, dispatcher, nil, validate, logger, service.SubmissionConfig{})
	paymentService := service.NewPaymentService(paymentRepo, submissionRepo, gateway, validate, logger, service.PaymentConfig{
		PlanPrices: map[string]string{"standard": "price_std", "premium": "price_prm"},
		SuccessURL: "https://juriscorrect.test/correction?paid=1",
		CancelURL:  "https://juriscorrect.test/correction",
	})

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		Submissions: submissionService,
		Corrections: correctionService,
		Payments:    paymentService,
		Logger:      logger,
	})

	return testEnv{app: app, db: db, gateway: gateway}
}

func decodeResponse(t *testing.T, body io.ReadCloser, target interface{}) {
	t.Helper()
	defer body.Close()
	require.NoError(t, json.NewDecoder(body).Decode(target))
}

func createSubmission(t *testing.T, env testEnv) dto.SubmissionResponse {
	t.Helper()

	body, err := json.Marshal(map[string]string{
		"exercise_kind": "dissertation",
		"subject":       "La hiérarchie des normes",
		"body":          "Un développement construit autour de la pyramide des normes de Kelsen et de son application en droit français.",
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/submissions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		Success bool                   `json:"success"`
		Data    dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, resp.Body, &created)
	require.True(t, created.Success)
	require.NotEmpty(t, created.Data.ID)

	return created.Data
}

func TestSubmissionEndpointCreatesAndCorrects(t *testing.T) {
	env := setupAPI(t, &testCorrector{result: ai.CorrectionResult{
		NormalizedBody: "Un développement construit.",
		GlobalComment:  "Structure correcte.",
		Score:          ai.Score{Overall: 13, OutOf: 20},
	}})

	submission := createSubmission(t, env)
	require.Equal(t, models.SubmissionStatusReceived, submission.Status)

	req := httptest.NewRequest("GET", "/api/v1/corrections/"+submission.ID, nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var status struct {
		Success bool                         `json:"success"`
		Data    dto.CorrectionStatusResponse `json:"data"`
	}
	decodeResponse(t, resp.Body, &status)
	require.True(t, status.Success)
	require.Equal(t, models.CorrectionStatusReady, status.Data.Status)
	require.NotEmpty(t, status.Data.Result)
}

func TestSubmissionEndpointValidation(t *testing.T) {
	env := setupAPI(t, &testCorrector{})

	body, err := json.Marshal(map[string]string{
		"exercise_kind": "essay",
		"subject":       "Sujet",
		"body":          "Un corps de texte suffisamment long pour la validation.",
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/submissions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGenerateEndpointIsIdempotent(t *testing.T) {
	env := setupAPI(t, &testCorrector{result: ai.CorrectionResult{
		NormalizedBody: "Texte corrigé.",
		Score:          ai.Score{Overall: 12, OutOf: 20},
	}})

	submission := createSubmission(t, env)

	first := httptest.NewRequest("POST", "/api/v1/corrections/"+submission.ID+"/generate", nil)
	resp, err := env.app.Test(first)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var firstBody struct {
		Data dto.GenerateResponse `json:"data"`
	}
	decodeResponse(t, resp.Body, &firstBody)
	require.Equal(t, models.CorrectionStatusReady, firstBody.Data.Status)

	second := httptest.NewRequest("POST", "/api/v1/corrections/"+submission.ID+"/generate", nil)
	resp, err = env.app.Test(second)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var secondBody struct {
		Data dto.GenerateResponse `json:"data"`
	}
	decodeResponse(t, resp.Body, &secondBody)
	require.Equal(t, firstBody.Data.CorrectionID, secondBody.Data.CorrectionID)
}

func TestGenerateEndpointUnknownSubmission(t *testing.T) {
	env := setupAPI(t, &testCorrector{})

	req := httptest.NewRequest("POST", "/api/v1/corrections/"+uuid.NewString()+"/generate", nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestStatusEndpointReportsNone(t *testing.T) {
	env := setupAPI(t, &testCorrector{})

	req := httptest.NewRequest("GET", "/api/v1/corrections/"+uuid.NewString(), nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var status struct {
		Data dto.CorrectionStatusResponse `json:"data"`
	}
	decodeResponse(t, resp.Body, &status)
	require.Equal(t, dto.CorrectionStatusNone, status.Data.Status)
}

func TestPaymentEndpointsUnlockFlow(t *testing.T) {
	env := setupAPI(t, &testCorrector{result: ai.CorrectionResult{
		NormalizedBody: "Texte corrigé.",
		Score:          ai.Score{Overall: 12, OutOf: 20},
	}})

	submission := createSubmission(t, env)

	body, err := json.Marshal(dto.CheckoutCreateRequest{SubmissionID: submission.ID, Plan: "standard"})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/payments/checkout", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var checkout struct {
		Data dto.CheckoutResponse `json:"data"`
	}
	decodeResponse(t, resp.Body, &checkout)
	require.NotEmpty(t, checkout.Data.SessionID)
	require.NotEmpty(t, checkout.Data.URL)

	unlockReq := httptest.NewRequest("GET", "/api/v1/payments/"+submission.ID+"/unlock", nil)
	resp, err = env.app.Test(unlockReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var unlock struct {
		Data dto.UnlockStatusResponse `json:"data"`
	}
	decodeResponse(t, resp.Body, &unlock)
	require.False(t, unlock.Data.Unlocked)

	env.gateway.event = payments.Event{
		Type:         payments.EventCheckoutCompleted,
		SessionID:    checkout.Data.SessionID,
		SubmissionID: submission.ID,
		AmountTotal:  990,
	}

	webhookReq := httptest.NewRequest("POST", "/api/v1/payments/webhook", bytes.NewReader([]byte(`{}`)))
	webhookReq.Header.Set("Stripe-Signature", "t=1,v1=test")
	resp, err = env.app.Test(webhookReq)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = env.app.Test(httptest.NewRequest("GET", "/api/v1/payments/"+submission.ID+"/unlock", nil))
	require.NoError(t, err)
	decodeResponse(t, resp.Body, &unlock)
	require.True(t, unlock.Data.Unlocked)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	env := setupAPI(t, &testCorrector{})
	env.gateway.verifyErr = errors.New("signature mismatch")

	req := httptest.NewRequest("POST", "/api/v1/payments/webhook", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Stripe-Signature", "bad")
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	env := setupAPI(t, &testCorrector{})

	resp, err := env.app.Test(httptest.NewRequest("GET", "/api/v1/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var health struct {
		Success bool `json:"success"`
		Data    struct {
			Status  string `json:"status"`
			Service string `json:"service"`
		} `json:"data"`
	}
	decodeResponse(t, resp.Body, &health)
	require.True(t, health.Success)
	require.Equal(t, "ok", health.Data.Status)
	require.Equal(t, "Test", health.Data.Service)
}
