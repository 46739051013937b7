package actuator

import (
	"encoding/json"
	"strconv"
)

// Bean is one configuration-properties bean: the property prefix it binds and
// the (possibly nested) values bound to it.
type Bean struct {
	Prefix     string         `json:"prefix" yaml:"prefix"`
	Properties map[string]any `json:"properties" yaml:"properties"`
}

// PropertySource is a named origin of configuration values, such as an
// application.yml file, the process environment or command line arguments.
type PropertySource struct {
	Name       string              `json:"name" yaml:"name"`
	Properties map[string]Property `json:"properties" yaml:"properties"`
}

// Property is a single value contributed by a PropertySource.
type Property struct {
	Value  string `json:"value" yaml:"value"`
	Origin string `json:"origin,omitempty" yaml:"origin,omitempty"`
}

// UnmarshalJSON accepts non-string values; the env endpoint reports numbers
// and booleans as JSON scalars.
func (p *Property) UnmarshalJSON(data []byte) error {
	var raw struct {
		Value  any    `json:"value"`
		Origin string `json:"origin"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Value = stringify(raw.Value)
	p.Origin = raw.Origin
	return nil
}

func stringify(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}

// configPropsResponse mirrors the body of the configprops endpoint.
type configPropsResponse struct {
	Contexts map[string]beansContext `json:"contexts"`
}

type beansContext struct {
	Beans    map[string]Bean `json:"beans"`
	ParentID string          `json:"parentId,omitempty"`
}

// envResponse mirrors the body of the env endpoint.
type envResponse struct {
	ActiveProfiles  []string         `json:"activeProfiles"`
	PropertySources []PropertySource `json:"propertySources"`
}
