package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// SupportedOutputFormats lists the values accepted by NewOutputFormatter.
var SupportedOutputFormats = []string{"table", "json", "yaml"}

// ErrNoHeader is returned when rows are serialized before a header was set.
var ErrNoHeader = errors.New("no header defined")

// OutputFormatter collects a header and rows and renders them as a table,
// JSON or YAML.
type OutputFormatter struct {
	header []string
	data   [][]string
	format string
}

// NewOutputFormatter returns a formatter for one of SupportedOutputFormats.
func NewOutputFormatter(format string) (*OutputFormatter, error) {
	for _, supported := range SupportedOutputFormats {
		if supported == format {
			return &OutputFormatter{format: format}, nil
		}
	}
	return nil, fmt.Errorf("output format %q is not supported, choose one of %q",
		format, strings.Join(SupportedOutputFormats, ", "))
}

// Header sets the column names.
func (of *OutputFormatter) Header(header ...string) error {
	for _, row := range of.data {
		if err := columnCheck(len(row), len(header)); err != nil {
			return err
		}
	}
	of.header = header
	return nil
}

// AddRow appends a row; it must have as many columns as the header.
func (of *OutputFormatter) AddRow(row ...string) error {
	if of.header != nil {
		if err := columnCheck(len(row), len(of.header)); err != nil {
			return err
		}
	}
	of.data = append(of.data, row)
	return nil
}

func columnCheck(columns, headers int) error {
	if columns != headers {
		return fmt.Errorf("header count differs from column count: %d != %d", headers, columns)
	}
	return nil
}

// Output writes the collected rows to writer.
func (of *OutputFormatter) Output(writer io.Writer) error {
	if of.format == "table" {
		of.tableOutput(writer)
		return nil
	}
	rows, err := of.records()
	if err != nil {
		return err
	}
	return encode(writer, of.format, rows)
}

func (of *OutputFormatter) tableOutput(writer io.Writer) {
	table := tablewriter.NewWriter(writer)
	table.SetHeader(of.header)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.AppendBulk(of.data)
	table.Render()
}

// encode writes v as indented JSON or as YAML, always ending with a newline.
func encode(writer io.Writer, format string, v any) error {
	var (
		encoded []byte
		err     error
	)
	switch format {
	case "json":
		encoded, err = json.MarshalIndent(v, "", "  ")
	case "yaml":
		encoded, err = yaml.Marshal(v)
	default:
		return fmt.Errorf("output format %q cannot encode documents", format)
	}
	if err != nil {
		return err
	}
	if _, err := writer.Write(encoded); err != nil {
		return err
	}
	if len(encoded) > 0 && encoded[len(encoded)-1] != '\n' {
		_, err = writer.Write([]byte("\n"))
	}
	return err
}

// records turns rows into header-keyed maps.
func (of *OutputFormatter) records() ([]map[string]string, error) {
	if len(of.header) == 0 {
		return nil, ErrNoHeader
	}
	records := make([]map[string]string, 0, len(of.data))
	for _, row := range of.data {
		record := make(map[string]string, len(of.header))
		for i, column := range of.header {
			record[column] = row[i]
		}
		records = append(records, record)
	}
	return records, nil
}
