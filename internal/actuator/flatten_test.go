package actuator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlatten(t *testing.T) {
	flat := Flatten(map[string]any{
		"clientApp": map[string]any{"name": "jhipsterApp"},
		"cors": map[string]any{
			"allowedOrigins": []any{"http://localhost:9000", "https://start.jhipster.tech"},
			"maxAge":         float64(1800),
		},
		"mail":    map[string]any{},
		"enabled": true,
		"missing": nil,
	})

	assert.Equal(t, []FlatProperty{
		{Key: "clientApp.name", Value: "jhipsterApp"},
		{Key: "cors.allowedOrigins[0]", Value: "http://localhost:9000"},
		{Key: "cors.allowedOrigins[1]", Value: "https://start.jhipster.tech"},
		{Key: "cors.maxAge", Value: "1800"},
		{Key: "enabled", Value: "true"},
		{Key: "mail", Value: "{}"},
		{Key: "missing", Value: ""},
	}, flat)
}
