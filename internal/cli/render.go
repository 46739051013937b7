package cli

import (
	"io"
	"sort"

	"github.com/eugenenazirov/config-console/internal/actuator"
)

// configurationDocument is the single JSON or YAML document printed for a
// whole configuration.
type configurationDocument struct {
	Beans           []map[string]string `json:"beans" yaml:"beans"`
	PropertySources []map[string]string `json:"propertySources" yaml:"propertySources"`
}

// RenderConfiguration writes beans and property sources. Tables are printed one
// after the other; JSON and YAML are combined into one document.
func RenderConfiguration(writer io.Writer, format string, beans []actuator.Bean, sources []actuator.PropertySource) error {
	beanRows, err := beansFormatter(format, beans)
	if err != nil {
		return err
	}
	sourceRows, err := propertySourcesFormatter(format, sources)
	if err != nil {
		return err
	}

	if format == "table" {
		if err := beanRows.Output(writer); err != nil {
			return err
		}
		return sourceRows.Output(writer)
	}

	var doc configurationDocument
	if doc.Beans, err = beanRows.records(); err != nil {
		return err
	}
	if doc.PropertySources, err = sourceRows.records(); err != nil {
		return err
	}
	return encode(writer, format, doc)
}

// beansFormatter has one row per bean property: prefix, dotted key and value.
// A bean without properties gets a single row with only its prefix.
func beansFormatter(format string, beans []actuator.Bean) (*OutputFormatter, error) {
	formatter, err := NewOutputFormatter(format)
	if err != nil {
		return nil, err
	}
	if err := formatter.Header("prefix", "property", "value"); err != nil {
		return nil, err
	}
	for _, bean := range beans {
		properties := actuator.Flatten(bean.Properties)
		if len(properties) == 0 {
			if err := formatter.AddRow(bean.Prefix, "", ""); err != nil {
				return nil, err
			}
			continue
		}
		for _, property := range properties {
			if err := formatter.AddRow(bean.Prefix, bean.Prefix+"."+property.Key, property.Value); err != nil {
				return nil, err
			}
		}
	}
	return formatter, nil
}

// propertySourcesFormatter has one row per property, sources in precedence
// order and keys sorted within a source.
func propertySourcesFormatter(format string, sources []actuator.PropertySource) (*OutputFormatter, error) {
	formatter, err := NewOutputFormatter(format)
	if err != nil {
		return nil, err
	}
	if err := formatter.Header("source", "property", "value"); err != nil {
		return nil, err
	}
	for _, source := range sources {
		keys := make([]string, 0, len(source.Properties))
		for key := range source.Properties {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if err := formatter.AddRow(source.Name, key, source.Properties[key].Value); err != nil {
				return nil, err
			}
		}
	}
	return formatter, nil
}
