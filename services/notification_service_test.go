package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flawlessmakeup/backend/models"
	"github.com/flawlessmakeup/backend/sender"
)

type fakeEmailSender struct {
	to      string
	subject string
	body    string
	calls   int
	err     error
}

func (f *fakeEmailSender) SendEmail(ctx context.Context, to, subject, body string) (sender.SendResult, error) {
	f.calls++
	f.to, f.subject, f.body = to, subject, body
	if f.err != nil {
		return sender.SendResult{}, f.err
	}
	return sender.SendResult{MessageID: "msg-1", SentAt: time.Now()}, nil
}

func sampleOrder() *models.Order {
	shade := "Ruby"
	return &models.Order{
		OrderNumber:       "202603150001",
		OrderDate:         fixedNow(),
		ShippingFirstName: "Lina",
		ShippingLastName:  "H",
		ShippingAddress:   "12 Rainbow St",
		ShippingCity:      "Amman",
		ShippingCountry:   "Jordan",
		ShippingPhone:     "+962790000000",
		SubTotal:          price("24.00"),
		Tax:               price("0.00"),
		ShippingCost:      price("3.00"),
		TotalAmount:       price("27.00"),
		PaymentMethod:     "cliq",
		Items: []models.OrderItem{
			{ProductName: "Velvet Lipstick", ProductShadeName: &shade, Quantity: 2, UnitPrice: price("12.00")},
		},
	}
}

func TestNotifyNewOrderRendersRegisteredCustomer(t *testing.T) {
	email := &fakeEmailSender{}
	svc := NewNotificationService(email, "owner@example.com", zap.NewNop())

	uid := "user-1"
	order := sampleOrder()
	order.UserID = &uid

	svc.NotifyNewOrder(context.Background(), order)

	assert.Equal(t, 1, email.calls)
	assert.Equal(t, "owner@example.com", email.to)
	assert.Contains(t, email.subject, "202603150001")
	assert.Contains(t, email.body, "Registered User")
	assert.Contains(t, email.body, "Lina H")
	assert.Contains(t, email.body, "Velvet Lipstick")
	assert.Contains(t, email.body, "Ruby")
	assert.Contains(t, email.body, "27.00")
}

func TestNotifyNewOrderRendersGuestContact(t *testing.T) {
	email := &fakeEmailSender{}
	svc := NewNotificationService(email, "owner@example.com", zap.NewNop())

	guestEmail, guestName := "guest@example.com", "Guest Shopper"
	order := sampleOrder()
	order.GuestEmail = &guestEmail
	order.GuestName = &guestName

	svc.NotifyNewOrder(context.Background(), order)

	require.Equal(t, 1, email.calls)
	assert.Contains(t, email.body, "Guest")
	assert.Contains(t, email.body, "Guest Shopper")
	assert.Contains(t, email.body, "guest@example.com")
	assert.False(t, strings.Contains(email.body, "Registered User"))
}

func TestNotifySkipsWhenUnconfigured(t *testing.T) {
	email := &fakeEmailSender{}

	// No admin address configured.
	svc := NewNotificationService(email, "", zap.NewNop())
	svc.NotifyNewOrder(context.Background(), sampleOrder())
	assert.Zero(t, email.calls)

	// No sender wired at all.
	svc = NewNotificationService(nil, "owner@example.com", zap.NewNop())
	assert.NotPanics(t, func() {
		svc.NotifyNewOrder(context.Background(), sampleOrder())
	})
}

func TestNotifySwallowsSendFailures(t *testing.T) {
	email := &fakeEmailSender{err: errors.New("smtp down")}
	svc := NewNotificationService(email, "owner@example.com", zap.NewNop())

	assert.NotPanics(t, func() {
		svc.NotifyNewOrder(context.Background(), sampleOrder())
	})
	assert.Equal(t, 1, email.calls)
}
