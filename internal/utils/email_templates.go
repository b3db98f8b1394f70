package utils

const emailTemplateSource = `
{{define "header"}}<!DOCTYPE html>
<html lang="en"><head><meta charset="UTF-8"><title>{{.StoreName}}</title></head>
<body style="margin:0;padding:0;font-family:Arial,sans-serif;background-color:#f7f3ec;">
<table role="presentation" style="max-width:600px;margin:0 auto;background:#ffffff;border-radius:12px;">
<tr><td style="background:#7a5c2e;padding:30px;text-align:center;border-radius:12px 12px 0 0;">
<h1 style="margin:0;color:#ffffff;font-size:26px;">{{.StoreName}}</h1></td></tr>
<tr><td style="padding:30px;color:#333333;font-size:15px;line-height:1.6;">{{end}}

{{define "footer"}}</td></tr>
<tr><td style="padding:20px 30px;color:#888888;font-size:12px;text-align:center;">
<a href="{{.FrontendURL}}" style="color:#7a5c2e;">{{.FrontendURL}}</a></td></tr>
</table></body></html>{{end}}

{{define "items"}}<table style="width:100%;border-collapse:collapse;margin:20px 0;">
<tr style="background:#f0e9dc;"><th style="padding:8px;text-align:left;">Product</th><th style="padding:8px;">Qty</th><th style="padding:8px;text-align:right;">Total</th></tr>
{{range .Items}}<tr><td style="padding:8px;border-bottom:1px solid #eee;">{{.Name}}{{if .VariantLabel}} ({{.VariantLabel}}){{end}}</td>
<td style="padding:8px;text-align:center;border-bottom:1px solid #eee;">{{.Quantity}}</td>
<td style="padding:8px;text-align:right;border-bottom:1px solid #eee;">{{money (mul .Price .Quantity)}}</td></tr>{{end}}
<tr><td colspan="2" style="padding:6px 8px;text-align:right;">Subtotal</td><td style="padding:6px 8px;text-align:right;">{{money .Subtotal}}</td></tr>
<tr><td colspan="2" style="padding:6px 8px;text-align:right;">GST (18%)</td><td style="padding:6px 8px;text-align:right;">{{money .Tax}}</td></tr>
<tr><td colspan="2" style="padding:6px 8px;text-align:right;">Shipping</td><td style="padding:6px 8px;text-align:right;">{{money .ShippingCost}}</td></tr>
{{if .Discount}}<tr><td colspan="2" style="padding:6px 8px;text-align:right;">Discount{{if .CouponCode}} ({{.CouponCode}}){{end}}</td><td style="padding:6px 8px;text-align:right;">-{{money .Discount}}</td></tr>{{end}}
<tr><td colspan="2" style="padding:8px;text-align:right;font-weight:bold;">Total</td><td style="padding:8px;text-align:right;font-weight:bold;">{{money .Total}}</td></tr>
</table>{{end}}

{{define "verification"}}{{template "header" .}}
<p>Hello {{.Name}},</p>
<p>Your verification code is:</p>
<p style="font-size:32px;letter-spacing:8px;font-weight:bold;text-align:center;">{{.Code}}</p>
<p>The code expires in 15 minutes.</p>
{{template "footer" .}}{{end}}

{{define "welcome"}}{{template "header" .}}
<p>Hello {{.Name}},</p>
<p>Welcome to {{.StoreName}}. Your account is ready, and our almonds, cashews and dates are waiting for you.</p>
<p><a href="{{.FrontendURL}}/products" style="display:inline-block;padding:12px 28px;background:#7a5c2e;color:#fff;text-decoration:none;border-radius:6px;">Start shopping</a></p>
{{template "footer" .}}{{end}}

{{define "order_confirmation"}}{{template "header" .}}
{{with .Order}}<p>Thank you for your order <strong>{{.OrderNumber}}</strong>.</p>
<p>Payment: {{.PaymentMethod}} ({{.PaymentStatus}})</p>
{{template "items" .}}
<p>Shipping to: {{.ShippingAddress.FullName}}, {{.ShippingAddress.Line1}}, {{.ShippingAddress.City}} {{.ShippingAddress.PostalCode}}</p>{{end}}
{{template "footer" .}}{{end}}

{{define "order_status"}}{{template "header" .}}
{{with .Order}}<p>Your order <strong>{{.OrderNumber}}</strong> has been updated.</p>{{end}}
<p style="font-size:20px;font-weight:bold;">{{.StatusText}}</p>
{{with .Order}}{{if .TrackingNumber}}<p>Tracking: {{.TrackingNumber}}{{if .ShippingProvider}} ({{.ShippingProvider}}){{end}}</p>{{end}}{{end}}
{{template "footer" .}}{{end}}

{{define "refund"}}{{template "header" .}}
{{with .Order}}<p>A refund for order <strong>{{.OrderNumber}}</strong> has been issued.</p>{{end}}
<p>Amount: <strong>{{money .Amount}}</strong>. It usually reaches your account within 5 to 7 business days.</p>
{{template "footer" .}}{{end}}

{{define "contact_ack"}}{{template "header" .}}
<p>Hello {{.Name}},</p>
<p>We received your message and will get back to you shortly.</p>
{{template "footer" .}}{{end}}

{{define "contact_admin"}}{{template "header" .}}
{{with .Message}}<p><strong>{{.Name}}</strong> &lt;{{.Email}}&gt; wrote:</p>
<p><em>{{.Subject}}</em></p>
<p style="white-space:pre-wrap;">{{.Message}}</p>{{end}}
{{template "footer" .}}{{end}}
`
