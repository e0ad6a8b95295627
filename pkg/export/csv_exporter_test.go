package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()

	data := Dataset{
		Headers: []string{"Day", "Subject"},
		Rows: []map[string]string{
			{"Day": "Monday", "Subject": "Maths"},
			{"Day": "Tuesday", "Subject": "Physics, advanced"},
		},
	}

	out, err := exporter.Render(data)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,Subject", lines[0])
	assert.Equal(t, "Monday,Maths", lines[1])
	assert.Equal(t, `Tuesday,"Physics, advanced"`, lines[2])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()
	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()

	out, err := exporter.Render(Dataset{
		Headers: []string{"Day", "Subject"},
		Rows:    []map[string]string{{"Day": "Monday", "Subject": "Maths"}},
	}, "Timetable - Week 1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))

	_, err = exporter.Render(Dataset{}, "")
	require.Error(t, err)
}
