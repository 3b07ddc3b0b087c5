package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Lesson results",
		Summary: []string{"Required score: 60"},
		Headers: []string{"Student", "Score", "Approved"},
		Rows: [][]string{
			{"Ana", "80", "yes"},
			{"Budi, Jr.", "40", "no"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	assert.Equal(t, "Student,Score,Approved\nAna,80,yes\n\"Budi, Jr.\",40,no\n", string(out))
}

func TestCSVExporterRejectsMisalignedRows(t *testing.T) {
	data := sampleDataset()
	data.Rows = append(data.Rows, []string{"short"})

	_, err := NewCSVExporter().Render(data)
	assert.Error(t, err)
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)

	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()
	out, err := exporter.Render(sampleDataset())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Equal(t, "application/pdf", exporter.ContentType())
	assert.Equal(t, "pdf", exporter.Extension())
}
