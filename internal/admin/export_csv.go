package admin

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

const csvBufferSize = 32 * 1024

// utf8BOM lets Excel detect the encoding instead of mangling accents.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeader = []string{"Fecha", "Tipo", "Administrador", "Responsable Afectado", "Reporte", "Motivo", "Archivos"}

// WriteCSV streams the actions as CSV: UTF-8 with BOM, CRLF line endings,
// every field double-quoted, one row per action in listing order. Newlines
// inside motivo collapse to single spaces so each record stays on one line.
func WriteCSV(w io.Writer, actions []AdminAction) error {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	if _, err := buf.Write(utf8BOM); err != nil {
		return err
	}
	if err := writeQuotedRow(buf, csvHeader); err != nil {
		return err
	}
	for _, a := range actions {
		row := []string{
			a.CreatedAt.Format("2006-01-02 15:04"),
			a.ActionType.Label(),
			a.AdminNombre,
			a.ResponsableAfectado,
			a.ReporteNombre,
			aplanar(a.Motivo),
			strconv.Itoa(a.FilesCount),
		}
		if err := writeQuotedRow(buf, row); err != nil {
			return err
		}
	}
	return buf.Flush()
}

func writeQuotedRow(buf *bufio.Writer, row []string) error {
	for i, field := range row {
		if i > 0 {
			if err := buf.WriteByte(','); err != nil {
				return err
			}
		}
		quoted := `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
		if _, err := buf.WriteString(quoted); err != nil {
			return err
		}
	}
	_, err := buf.WriteString("\r\n")
	return err
}

func aplanar(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}
