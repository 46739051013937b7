package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/config-console/internal/actuator"
)

func TestNewOutputFormatterRejectsUnknownFormat(t *testing.T) {
	_, err := NewOutputFormatter("xml")
	assert.Error(t, err)

	for _, format := range SupportedOutputFormats {
		formatter, err := NewOutputFormatter(format)
		require.NoError(t, err)
		assert.NotNil(t, formatter)
	}
}

func TestColumnCountIsChecked(t *testing.T) {
	formatter, err := NewOutputFormatter("table")
	require.NoError(t, err)

	require.NoError(t, formatter.Header("a", "b"))
	assert.Error(t, formatter.AddRow("1"))
	require.NoError(t, formatter.AddRow("1", "2"))
	assert.Error(t, formatter.Header("a", "b", "c"))
}

func TestJSONRequiresHeader(t *testing.T) {
	formatter, err := NewOutputFormatter("json")
	require.NoError(t, err)
	require.NoError(t, formatter.AddRow("1", "2"))

	assert.ErrorIs(t, formatter.Output(&bytes.Buffer{}), ErrNoHeader)
}

func TestTableOutput(t *testing.T) {
	formatter, err := NewOutputFormatter("table")
	require.NoError(t, err)
	require.NoError(t, formatter.Header("source", "property", "value"))
	require.NoError(t, formatter.AddRow("server.ports", "local.server.port", "8080"))

	var out bytes.Buffer
	require.NoError(t, formatter.Output(&out))
	assert.Contains(t, out.String(), "SOURCE")
	assert.Contains(t, out.String(), "local.server.port")
	assert.Contains(t, out.String(), "8080")
}

func TestPropertySourcesJSON(t *testing.T) {
	sources := []actuator.PropertySource{
		{
			Name: "server.ports",
			Properties: map[string]actuator.Property{
				"local.server.port": {Value: "8080"},
			},
		},
	}

	var out bytes.Buffer
	formatter, err := propertySourcesFormatter("json", sources)
	require.NoError(t, err)
	require.NoError(t, formatter.Output(&out))

	var records []map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &records))
	assert.Equal(t, []map[string]string{
		{"source": "server.ports", "property": "local.server.port", "value": "8080"},
	}, records)
}

func TestBeansYAML(t *testing.T) {
	beans := []actuator.Bean{
		{
			Prefix: "jhipster",
			Properties: map[string]any{
				"clientApp": map[string]any{"name": "jhipsterApp"},
			},
		},
	}

	var out bytes.Buffer
	formatter, err := beansFormatter("yaml", beans)
	require.NoError(t, err)
	require.NoError(t, formatter.Output(&out))

	var records []map[string]string
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &records))
	assert.Equal(t, []map[string]string{
		{"prefix": "jhipster", "property": "jhipster.clientApp.name", "value": "jhipsterApp"},
	}, records)
}

func TestBeansWithoutPropertiesKeepPrefix(t *testing.T) {
	beans := []actuator.Bean{
		{Prefix: "management.info"},
		{Prefix: "server", Properties: map[string]any{"port": "8080"}},
	}

	var out bytes.Buffer
	formatter, err := beansFormatter("json", beans)
	require.NoError(t, err)
	require.NoError(t, formatter.Output(&out))

	var records []map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &records))
	assert.Equal(t, []map[string]string{
		{"prefix": "management.info", "property": "", "value": ""},
		{"prefix": "server", "property": "server.port", "value": "8080"},
	}, records)
}

func TestRenderConfigurationIsOneDocument(t *testing.T) {
	beans := []actuator.Bean{{Prefix: "server", Properties: map[string]any{"port": "8080"}}}
	sources := []actuator.PropertySource{
		{Name: "server.ports", Properties: map[string]actuator.Property{"local.server.port": {Value: "8080"}}},
	}

	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, RenderConfiguration(&out, format, beans, sources))

			var doc struct {
				Beans           []map[string]string `json:"beans" yaml:"beans"`
				PropertySources []map[string]string `json:"propertySources" yaml:"propertySources"`
			}
			if format == "json" {
				require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
			} else {
				require.NoError(t, yaml.Unmarshal(out.Bytes(), &doc))
			}
			assert.Equal(t, []map[string]string{{"prefix": "server", "property": "server.port", "value": "8080"}}, doc.Beans)
			assert.Equal(t, []map[string]string{{"source": "server.ports", "property": "local.server.port", "value": "8080"}}, doc.PropertySources)
		})
	}
}

func TestRenderConfigurationTable(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RenderConfiguration(&out, "table", []actuator.Bean{{Prefix: "server"}}, nil))
	assert.Contains(t, out.String(), "PREFIX")
	assert.Contains(t, out.String(), "SOURCE")
	assert.Contains(t, out.String(), "server")
}
