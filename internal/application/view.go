package application

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/config-console/internal/actuator"
	"github.com/eugenenazirov/config-console/internal/console"
)

//go:embed templates/configuration.html
var templates embed.FS

var configurationTemplate = template.Must(template.ParseFS(templates, "templates/configuration.html"))

type beanView struct {
	Prefix     string
	Properties []actuator.FlatProperty
}

type propertySourceView struct {
	Name       string
	Properties []actuator.FlatProperty
}

type configurationView struct {
	Beans                []beanView
	PropertySources      []propertySourceView
	BeansFilter          string
	BeansAscending       bool
	BeansError           string
	PropertySourcesError string
	LoadedAt             string
}

func newConfigurationView(s console.Snapshot) configurationView {
	view := configurationView{
		BeansFilter:    s.BeansFilter,
		BeansAscending: s.BeansAscending,
	}
	for _, bean := range s.Beans {
		view.Beans = append(view.Beans, beanView{
			Prefix:     bean.Prefix,
			Properties: actuator.Flatten(bean.Properties),
		})
	}
	for _, source := range s.PropertySources {
		properties := make([]actuator.FlatProperty, 0, len(source.Properties))
		for key, property := range source.Properties {
			properties = append(properties, actuator.FlatProperty{Key: key, Value: property.Value})
		}
		sort.Slice(properties, func(i, j int) bool { return properties[i].Key < properties[j].Key })
		view.PropertySources = append(view.PropertySources, propertySourceView{Name: source.Name, Properties: properties})
	}
	if s.BeansError != nil {
		view.BeansError = s.BeansError.Error()
	}
	if s.PropertySourcesError != nil {
		view.PropertySourcesError = s.PropertySourcesError.Error()
	}
	if !s.LoadedAt.IsZero() {
		view.LoadedAt = s.LoadedAt.Format(time.RFC3339)
	}
	return view
}

// configurationPage renders the component state as HTML.
func configurationPage(comp *console.Component, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		var buf bytes.Buffer
		if err := configurationTemplate.Execute(&buf, newConfigurationView(comp.Snapshot())); err != nil {
			logger.Error("failed to render configuration page", zap.Error(err))
			http.Error(w, "unable to render page", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	})
}
