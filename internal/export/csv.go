package export

import (
	"encoding/csv"
	"io"
	"strings"
)

// CSVRenderer writes every table as a titled section separated by a blank row.
type CSVRenderer struct{}

func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

func (r *CSVRenderer) SupportedFormat() Format {
	return FormatCSV
}

func (r *CSVRenderer) ContentType() string {
	return "text/csv"
}

func (r *CSVRenderer) Render(w io.Writer, data *PlanData) error {
	writer := csv.NewWriter(w)
	for i, t := range buildTables(data) {
		if i > 0 {
			if err := writer.Write([]string{""}); err != nil {
				return err
			}
		}
		if err := writer.Write([]string{strings.ToUpper(t.name)}); err != nil {
			return err
		}
		if err := writer.Write(t.header); err != nil {
			return err
		}
		if err := writer.WriteAll(t.rows); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
