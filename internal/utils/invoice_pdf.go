package utils

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"time"

	"dryfruit_back_end/internal/models"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/skip2/go-qrcode"
)

var ErrPDFDisabled = errors.New("pdf rendering disabled")

// UPIPaymentURI builds the upi://pay link encoded in invoice QR codes.
func UPIPaymentURI(vpa, payee, reference string, amount float64) string {
	q := url.Values{}
	q.Set("pa", vpa)
	q.Set("pn", payee)
	q.Set("am", fmt.Sprintf("%.2f", amount))
	q.Set("cu", "INR")
	q.Set("tn", reference)
	return "upi://pay?" + q.Encode()
}

// GenerateUPIQR returns a PNG data URI ready for an <img src>.
func GenerateUPIQR(vpa, payee, reference string, amount float64) (string, error) {
	png, err := qrcode.Encode(UPIPaymentURI(vpa, payee, reference, amount), qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

type InvoiceRenderer struct {
	chrome    bool
	storeName string
	vpa       string
}

func NewInvoiceRenderer(chromeEnabled bool, storeName, vpa string) *InvoiceRenderer {
	return &InvoiceRenderer{chrome: chromeEnabled, storeName: storeName, vpa: vpa}
}

func (r *InvoiceRenderer) PDFEnabled() bool { return r != nil && r.chrome }

// HTML renders the printable invoice. Unpaid orders carry a UPI QR code.
func (r *InvoiceRenderer) HTML(order *models.Order) ([]byte, error) {
	data := struct {
		StoreName string
		Order     *models.Order
		QR        template.URL
		Date      string
	}{StoreName: r.storeName, Order: order, Date: order.CreatedAt.Format("02 Jan 2006")}

	if r.vpa != "" && !order.IsPaid() {
		qr, err := GenerateUPIQR(r.vpa, r.storeName, order.OrderNumber, order.Total)
		if err != nil {
			return nil, fmt.Errorf("upi qr: %w", err)
		}
		data.QR = template.URL(qr)
	}

	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PDF prints the invoice HTML through headless Chrome.
func (r *InvoiceRenderer) PDF(ctx context.Context, order *models.Order) ([]byte, error) {
	if !r.PDFEnabled() {
		return nil, ErrPDFDisabled
	}
	html, err := r.HTML(order)
	if err != nil {
		return nil, err
	}

	ctx, cancel := chromedp.NewContext(ctx)
	defer cancel()
	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var pdf []byte
	err = chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print invoice: %w", err)
	}
	return pdf, nil
}

var invoiceTemplate = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("₹%.2f", v) },
	"mul":   func(p float64, q int) float64 { return p * float64(q) },
}).Parse(`<!DOCTYPE html>
<html><head><meta charset="UTF-8"><title>Invoice {{.Order.OrderNumber}}</title>
<style>
body{font-family:Arial,sans-serif;color:#222;margin:40px;}
h1{color:#7a5c2e;margin:0;}
table{width:100%;border-collapse:collapse;margin-top:24px;}
th,td{padding:8px;border-bottom:1px solid #ddd;text-align:left;}
td.num,th.num{text-align:right;}
.totals td{border:none;}
.qr{margin-top:30px;text-align:center;}
</style></head>
<body>
<h1>{{.StoreName}}</h1>
<p>Tax invoice <strong>{{.Order.OrderNumber}}</strong><br>Date: {{.Date}}</p>
{{with .Order.ShippingAddress}}<p><strong>Bill to</strong><br>{{.FullName}}<br>{{.Line1}}{{if .Line2}}, {{.Line2}}{{end}}<br>{{.City}}, {{.State}} {{.PostalCode}}<br>{{.Country}}<br>{{.Phone}}</p>{{end}}
<table>
<tr><th>Item</th><th class="num">Qty</th><th class="num">Price</th><th class="num">Amount</th></tr>
{{range .Order.Items}}<tr><td>{{.Name}}{{if .VariantLabel}} ({{.VariantLabel}}){{end}}</td><td class="num">{{.Quantity}}</td><td class="num">{{money .Price}}</td><td class="num">{{money (mul .Price .Quantity)}}</td></tr>
{{end}}
</table>
<table class="totals">
<tr><td class="num">Subtotal</td><td class="num">{{money .Order.Subtotal}}</td></tr>
<tr><td class="num">GST 18%</td><td class="num">{{money .Order.Tax}}</td></tr>
<tr><td class="num">Shipping</td><td class="num">{{money .Order.ShippingCost}}</td></tr>
{{if .Order.Discount}}<tr><td class="num">Discount</td><td class="num">-{{money .Order.Discount}}</td></tr>{{end}}
<tr><td class="num"><strong>Total</strong></td><td class="num"><strong>{{money .Order.Total}}</strong></td></tr>
</table>
<p>Payment: {{.Order.PaymentMethod}} / {{.Order.PaymentStatus}}</p>
{{if .QR}}<div class="qr"><p>Scan to pay with any UPI app</p><img src="{{.QR}}" width="200" height="200" alt="UPI QR"></div>{{end}}
</body></html>`))
