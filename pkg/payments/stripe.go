package payments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
)

// EventCheckoutCompleted is the provider event confirming a paid checkout.
const EventCheckoutCompleted = "checkout.session.completed"

// Config contains the Stripe credentials.
type Config struct {
	SecretKey     string
	WebhookSecret string
}

// CheckoutParams describes the hosted checkout session to open.
type CheckoutParams struct {
	PriceID      string
	SubmissionID string
	UserID       *string
	SuccessURL   string
	CancelURL    string
}

// CheckoutSession is the provider-side session reference returned to callers.
type CheckoutSession struct {
	ID  string
	URL string
}

// Event is a verified webhook notification.
type Event struct {
	Type         string
	SessionID    string
	SubmissionID string
	UserID       string
	AmountTotal  int64
}

// Gateway abstracts the payment provider for services and tests.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (CheckoutSession, error)
	VerifyEvent(payload []byte, signature string) (Event, error)
}

// StripeGateway implements Gateway against the Stripe API.
type StripeGateway struct {
	webhookSecret string
	logger        zerolog.Logger
}

// NewStripeGateway configures the Stripe SDK and returns a gateway.
func NewStripeGateway(cfg Config, logger zerolog.Logger) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}

	stripe.Key = cfg.SecretKey

	return &StripeGateway{
		webhookSecret: cfg.WebhookSecret,
		logger:        logger.With().Str("component", "stripe_gateway").Logger(),
	}, nil
}

// CreateCheckoutSession opens a hosted checkout session for one correction unlock.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (CheckoutSession, error) {
	sessionParams := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(params.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(params.SuccessURL),
		CancelURL:         stripe.String(params.CancelURL),
		ClientReferenceID: stripe.String(params.SubmissionID),
	}
	sessionParams.Context = ctx
	if params.UserID != nil {
		sessionParams.AddMetadata("user_id", *params.UserID)
	}

	created, err := session.New(sessionParams)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}

	g.logger.Info().Str("session_id", created.ID).Str("submission_id", params.SubmissionID).Msg("checkout session created")

	return CheckoutSession{ID: created.ID, URL: created.URL}, nil
}

// VerifyEvent checks the webhook signature and decodes the session payload.
func (g *StripeGateway) VerifyEvent(payload []byte, signature string) (Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return Event{}, fmt.Errorf("verify webhook signature: %w", err)
	}

	verified := Event{Type: string(event.Type)}
	if verified.Type != EventCheckoutCompleted {
		return verified, nil
	}

	var checkout stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &checkout); err != nil {
		return Event{}, fmt.Errorf("decode checkout session: %w", err)
	}

	verified.SessionID = checkout.ID
	verified.SubmissionID = checkout.ClientReferenceID
	verified.AmountTotal = checkout.AmountTotal
	if checkout.Metadata != nil {
		verified.UserID = checkout.Metadata["user_id"]
	}

	return verified, nil
}
