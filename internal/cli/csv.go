package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/litikesh/Patient-Record-Management-System/internal/store"
)

// csvTimeLayout matches the created_at default written by the schema.
const csvTimeLayout = "2006-01-02 15:04:05.000"

// writeCSV renders query rows for spreadsheet export. The header row is the
// column names joined by commas. Text cells are always double-quoted with
// embedded quotes doubled, numbers are written bare and NULL is empty.
func writeCSV(w io.Writer, columns []string, rows []store.Row) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(strings.Join(columns, ","))
	bw.WriteByte('\n')

	cells := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			cells[i] = csvValue(row[col])
		}
		bw.WriteString(strings.Join(cells, ","))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func csvValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return quoteCSV(v)
	case []byte:
		return quoteCSV(string(v))
	case time.Time:
		return quoteCSV(v.UTC().Format(csvTimeLayout))
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprint(v)
}

func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
