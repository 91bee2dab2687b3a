package resource

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/strmangle"
)

// ExportColumns are the columns written by WriteCSV, in order.
func (s *Schema) ExportColumns() []Column {
	cols := []Column{{Name: "id", Kind: KindString}}
	cols = append(cols, s.Columns...)
	cols = append(cols,
		Column{Name: "created_at", Kind: KindTime},
		Column{Name: "updated_at", Kind: KindTime},
	)
	return cols
}

// WriteCSV writes rows as CSV, with a title cased header line.
func WriteCSV[E Entity](w io.Writer, schema *Schema, rows []E) error {
	cols := schema.ExportColumns()
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(cols))
	for _, col := range cols {
		header = append(header, strmangle.TitleCase(col.Name))
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "writing header")
	}

	record := make([]string, len(cols))
	for _, row := range rows {
		for i, col := range cols {
			v, err := FieldValue(row, col.Name)
			if err != nil {
				return err
			}
			record[i] = FormatValue(col, v)
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "writing row %s", row.RecordID())
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}

// FormatValue renders a driver value of col as text.
func FormatValue(col Column, v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		if col.Kind == KindDate {
			return x.Format(DateLayout)
		}
		return x.UTC().Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}
