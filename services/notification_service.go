package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"go.uber.org/zap"

	"github.com/flawlessmakeup/backend/models"
	"github.com/flawlessmakeup/backend/sender"
)

const orderEmailTmpl = `<!DOCTYPE html>
<html><head><style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.header { background-color: #ff69b4; color: white; padding: 20px; text-align: center; }
.content { padding: 20px; }
.order-info { background-color: #f9f9f9; padding: 15px; margin: 10px 0; border-radius: 5px; }
table { width: 100%; border-collapse: collapse; margin: 20px 0; }
th, td { padding: 12px; text-align: left; border-bottom: 1px solid #ddd; }
th { background-color: #ff69b4; color: white; }
.total { font-size: 18px; font-weight: bold; text-align: right; margin: 20px 0; }
</style></head><body>
<div class="header"><h1>New Order Received!</h1><p>Order #{{.OrderNumber}}</p></div>
<div class="content">
<div class="order-info">
<h2>Customer Information</h2>
<p><strong>Customer Type:</strong> {{.CustomerType}}</p>
<p><strong>Name:</strong> {{.CustomerName}}</p>
{{if .CustomerEmail}}<p><strong>Email:</strong> {{.CustomerEmail}}</p>{{end}}
<p><strong>Phone:</strong> {{.Phone}}</p>
<p><strong>Order Date:</strong> {{.OrderDate}}</p>
</div>
<div class="order-info">
<h2>Shipping Address</h2>
<p>{{.Address}}</p>
{{if .Address2}}<p>{{.Address2}}</p>{{end}}
<p>{{.City}}, {{.State}} {{.ZipCode}}</p>
<p>{{.Country}}</p>
</div>
<h2>Order Items</h2>
<table>
<tr><th>Product</th><th>Shade</th><th>Quantity</th><th>Unit Price</th><th>Total</th></tr>
{{range .Items}}<tr><td>{{.Name}}</td><td>{{.Shade}}</td><td>{{.Quantity}}</td><td>{{.UnitPrice}}</td><td>{{.Total}}</td></tr>
{{end}}</table>
<p>Subtotal: {{.SubTotal}}<br>Tax: {{.Tax}}<br>Shipping: {{.Shipping}}</p>
<p class="total">Total: {{.Total}}</p>
{{if .PaymentMethod}}<p><strong>Payment Method:</strong> {{.PaymentMethod}}</p>{{end}}
{{if .Notes}}<p><strong>Notes:</strong> {{.Notes}}</p>{{end}}
</div></body></html>`

type orderEmailItem struct {
	Name      string
	Shade     string
	Quantity  int
	UnitPrice string
	Total     string
}

type orderEmailView struct {
	OrderNumber   string
	CustomerType  string
	CustomerName  string
	CustomerEmail string
	Phone         string
	OrderDate     string
	Address       string
	Address2      string
	City          string
	State         string
	ZipCode       string
	Country       string
	Items         []orderEmailItem
	SubTotal      string
	Tax           string
	Shipping      string
	Total         string
	PaymentMethod string
	Notes         string
}

// NotificationService emails new orders to the shop operator. It is a
// strictly best-effort sink: every failure is logged and swallowed, so a
// down mail server can never fail or undo a committed order.
type NotificationService struct {
	email      sender.EmailSender
	adminEmail string
	tmpl       *template.Template
	logger     *zap.Logger
}

func NewNotificationService(email sender.EmailSender, adminEmail string, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		email:      email,
		adminEmail: adminEmail,
		tmpl:       template.Must(template.New("order_email").Parse(orderEmailTmpl)),
		logger:     logger,
	}
}

func (s *NotificationService) NotifyNewOrder(ctx context.Context, order *models.Order) {
	if s.email == nil || s.adminEmail == "" {
		s.logger.Warn("Admin email not configured, skipping order notification",
			zap.String("order_number", order.OrderNumber))
		return
	}

	body, err := s.buildBody(order)
	if err != nil {
		s.logger.Error("Failed to render order notification",
			zap.String("order_number", order.OrderNumber), zap.Error(err))
		return
	}

	subject := fmt.Sprintf("New Order Received - #%s", order.OrderNumber)
	if _, err := s.email.SendEmail(ctx, s.adminEmail, subject, body); err != nil {
		s.logger.Error("Failed to send order notification",
			zap.String("order_number", order.OrderNumber), zap.Error(err))
		return
	}

	s.logger.Info("Order notification sent", zap.String("order_number", order.OrderNumber))
}

func (s *NotificationService) buildBody(order *models.Order) (string, error) {
	view := orderEmailView{
		OrderNumber:   order.OrderNumber,
		CustomerType:  "Registered User",
		CustomerName:  order.ShippingFirstName + " " + order.ShippingLastName,
		Phone:         order.ShippingPhone,
		OrderDate:     order.OrderDate.Format("Mon, 02 Jan 2006 15:04"),
		Address:       order.ShippingAddress,
		Address2:      order.ShippingAddress2,
		City:          order.ShippingCity,
		State:         order.ShippingState,
		ZipCode:       order.ShippingZipCode,
		Country:       order.ShippingCountry,
		SubTotal:      order.SubTotal.StringFixed(2),
		Tax:           order.Tax.StringFixed(2),
		Shipping:      order.ShippingCost.StringFixed(2),
		Total:         order.TotalAmount.StringFixed(2),
		PaymentMethod: order.PaymentMethod,
		Notes:         order.Notes,
	}

	if order.IsGuest() {
		view.CustomerType = "Guest"
		if order.GuestName != nil && *order.GuestName != "" {
			view.CustomerName = *order.GuestName
		}
		if order.GuestEmail != nil {
			view.CustomerEmail = *order.GuestEmail
		}
	}

	for _, item := range order.Items {
		emailItem := orderEmailItem{
			Name:      item.ProductName,
			Shade:     "-",
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Total:     item.TotalPrice().StringFixed(2),
		}
		if item.ProductShadeName != nil {
			emailItem.Shade = *item.ProductShadeName
		}
		view.Items = append(view.Items, emailItem)
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}
