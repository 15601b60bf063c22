// Package report renders a run's statuses for machines and for people.
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"

	"github.com/hamed0406/statusnotifier/internal/domain"
)

// Compact serialises statuses as a JSON array in input order.
func Compact(statuses []domain.ServiceStatus) (string, error) {
	if statuses == nil {
		statuses = []domain.ServiceStatus{}
	}
	b, err := json.Marshal(statuses)
	if err != nil {
		return "", fmt.Errorf("marshal statuses: %w", err)
	}
	return string(b), nil
}

// ParseCompact is the inverse of Compact.
func ParseCompact(s string) ([]domain.ServiceStatus, error) {
	var out []domain.ServiceStatus
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode statuses: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, errors.New("decode statuses: unexpected data after the list")
	}
	for _, st := range out {
		if err := st.Validate(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

var page = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Status Page</title>
</head>
<body>
<h1>Status Page</h1>
{{- range .}}
<div class="service service-{{.Status}}">
<h2>{{.Name}}</h2>
<p>{{.Status}}{{if eq .Status "error"}} - Code: {{.StatusCode}}{{end}}</p>
</div>
{{- end}}
</body>
</html>
`))

// HTML renders one entry per service. Output depends only on the input.
func HTML(statuses []domain.ServiceStatus) (string, error) {
	var buf bytes.Buffer
	if err := page.Execute(&buf, statuses); err != nil {
		return "", fmt.Errorf("render status page: %w", err)
	}
	return buf.String(), nil
}
