package admin

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSVFormato(t *testing.T) {
	comentario := "sin novedades"
	actions := []AdminAction{
		{
			ActionID:            2,
			ActionType:          ActionOverrideSubmit,
			AdminNombre:         "Carla Mejía",
			ResponsableAfectado: "Laura Pinzón",
			ReporteNombre:       "Informe Mensual de Riesgos",
			Motivo:              "delegado sin acceso\nal sistema",
			Comentarios:         &comentario,
			FilesCount:          2,
			CreatedAt:           time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC),
		},
		{
			ActionID:            1,
			ActionType:          ActionStatusChange,
			AdminNombre:         "Carla Mejía",
			ResponsableAfectado: "Mario \"Mayo\" Ruiz",
			ReporteNombre:       "Reporte Trimestral",
			Motivo:              "corrección manual",
			FilesCount:          0,
			CreatedAt:           time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, actions))
	out := buf.Bytes()

	require.True(t, bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}), "falta BOM UTF-8")

	body := strings.TrimSuffix(string(out[3:]), "\r\n")
	lines := strings.Split(body, "\r\n")
	require.Len(t, lines, 3, "cabecera + 2 filas")

	assert.Equal(t, `"Fecha","Tipo","Administrador","Responsable Afectado","Reporte","Motivo","Archivos"`, lines[0])

	for _, line := range lines {
		fields := strings.Split(line, `","`)
		assert.Len(t, fields, 7)
		assert.True(t, strings.HasPrefix(line, `"`))
		assert.True(t, strings.HasSuffix(line, `"`))
	}

	// Newlines in motivo collapse to spaces.
	assert.Contains(t, lines[1], `"delegado sin acceso al sistema"`)
	// Embedded quotes double per CSV.
	assert.Contains(t, lines[2], `"Mario ""Mayo"" Ruiz"`)
	// Row order mirrors the slice.
	assert.Contains(t, lines[1], `"Envío por administrador"`)
	assert.Contains(t, lines[2], `"Cambio de estado"`)
	assert.Contains(t, lines[1], `"2025-03-12 09:30"`)
	assert.Contains(t, lines[2], `"0"`)
}

func TestWriteCSVVacio(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	body := strings.TrimSuffix(string(buf.Bytes()[3:]), "\r\n")
	assert.Len(t, strings.Split(body, "\r\n"), 1, "solo cabecera")
}
