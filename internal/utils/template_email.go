package utils

import (
	"bytes"
	"fmt"
	"html/template"
)

var emailTemplates = template.Must(template.New("email").Funcs(template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("₹%.2f", v) },
	"mul":   func(p float64, q int) float64 { return p * float64(q) },
}).Parse(emailTemplateSource))

type emailData struct {
	StoreName   string
	FrontendURL string
	Name        string
	Code        string
	Order       interface{}
	Amount      float64
	Message     interface{}
	Status      string
	StatusText  string
}

func renderEmail(name string, data emailData) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
