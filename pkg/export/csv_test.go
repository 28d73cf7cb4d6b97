package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderHeaderDrivenColumns(t *testing.T) {
	exporter := NewCSVExporter()

	payload, err := exporter.Render(Dataset{
		Headers: []string{"Last Name", "First Name"},
		Rows: []map[string]string{
			{"First Name": "Jane", "Last Name": "Doe", "Ignored": "x"},
			{"First Name": "Bob"},
		},
	})
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(payload)).ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"Last Name", "First Name"},
		{"Doe", "Jane"},
		{"", "Bob"},
	}, rows)
}

func TestRenderRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()

	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}

func TestRenderQuotesEmbeddedCommas(t *testing.T) {
	exporter := NewCSVExporter()

	payload, err := exporter.Render(Dataset{
		Headers: []string{"Name"},
		Rows:    []map[string]string{{"Name": "Smith, John"}},
	})
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(payload)).ReadAll()
	require.NoError(t, err)
	require.Equal(t, "Smith, John", rows[1][0])
}
