package service

import (
    "context"
    "errors"
    "fmt"

    "github.com/stripe/stripe-go/v79"
    "github.com/stripe/stripe-go/v79/checkout/session"

    "eventia/internal/model"
)

// StripeProvider implements CheckoutProvider on Stripe Checkout.  The
// client URL is the public frontend origin used for the success and
// cancel redirects.
type StripeProvider struct {
    clientURL string
}

// NewStripeProvider sets the global Stripe key and returns a provider.
// Returns nil when secretKey is empty so callers can disable payments.
func NewStripeProvider(secretKey, clientURL string) *StripeProvider {
    if secretKey == "" {
        return nil
    }
    stripe.Key = secretKey
    return &StripeProvider{clientURL: clientURL}
}

// CreateSession opens a payment-mode checkout session for the event.
// The metadata written here (eventId, quantity, userId) is what
// reconciliation reads back, and the client_reference_id ties the
// session to the event/user pair for Stripe-side reporting.
func (p *StripeProvider) CreateSession(ctx context.Context, ev model.Event, quantity int64, userID uint64) (string, error) {
    params := &stripe.CheckoutSessionParams{
        Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
        PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
        LineItems: []*stripe.CheckoutSessionLineItemParams{{
            Quantity: stripe.Int64(quantity),
            PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
                Currency:   stripe.String("usd"),
                UnitAmount: stripe.Int64(ev.PriceCents),
                ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
                    Name:        stripe.String(ev.Title),
                    Description: stripe.String(ev.Location),
                },
            },
        }},
        SuccessURL:        stripe.String(p.clientURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}"),
        CancelURL:         stripe.String(fmt.Sprintf("%s/events/%d?cancelled=1", p.clientURL, ev.ID)),
        ClientReferenceID: stripe.String(fmt.Sprintf("%d:%d", ev.ID, userID)),
    }
    params.Context = ctx
    params.AddMetadata("eventId", fmt.Sprintf("%d", ev.ID))
    params.AddMetadata("quantity", fmt.Sprintf("%d", quantity))
    params.AddMetadata("userId", fmt.Sprintf("%d", userID))

    sess, err := session.New(params)
    if err != nil {
        return "", wrapStripeErr(err)
    }
    return sess.URL, nil
}

// GetSession retrieves a checkout session and maps it to the neutral
// CheckoutSession shape used by reconciliation.
func (p *StripeProvider) GetSession(ctx context.Context, id string) (CheckoutSession, error) {
    params := &stripe.CheckoutSessionParams{}
    params.Context = ctx
    sess, err := session.Get(id, params)
    if err != nil {
        return CheckoutSession{}, wrapStripeErr(err)
    }
    out := CheckoutSession{
        ID:       sess.ID,
        Paid:     sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
        Metadata: sess.Metadata,
    }
    if sess.PaymentIntent != nil {
        out.PaymentIntentID = sess.PaymentIntent.ID
    }
    return out, nil
}

// wrapStripeErr folds Stripe errors into the service taxonomy: a missing
// resource is ErrSessionNotFound, everything else is upstream trouble.
func wrapStripeErr(err error) error {
    var se *stripe.Error
    if errors.As(err, &se) {
        if se.Code == stripe.ErrorCodeResourceMissing || se.HTTPStatusCode == 404 {
            return ErrSessionNotFound
        }
    }
    return fmt.Errorf("%w: %v", ErrUpstream, err)
}
