package facts

import (
	"encoding/csv"
	"io"
	"strconv"

	"golang-fact-standardizer/internal/models"
)

// Write writes facts in the joined file layout read by Reader
func Write(w io.Writer, facts []*models.Fact, delimiter rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = delimiter

	if err := writer.Write(Columns); err != nil {
		return err
	}
	for _, f := range facts {
		negating := "0"
		if f.Negating {
			negating = "1"
		}
		record := []string{
			f.Adsh,
			f.Coreg,
			strconv.Itoa(f.Report),
			f.Tag,
			f.Version,
			strconv.Itoa(f.Date),
			f.Unit,
			models.FormatValue(f.Value),
			strconv.Itoa(f.Line),
			negating,
			f.Stmt,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
