package event

import (
	"encoding/csv"
	"fmt"
	"io"
)

var csvHeader = []string{"Timestamp", "Source IP", "Event", "Country", "City", "Status"}

// WriteCSV writes the events as CSV with a header row. The export is defined
// over threat events, so every row carries the literal status "Suspicious".
func WriteCSV(w io.Writer, events []Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, ev := range events {
		row := []string{
			ev.Timestamp.Format(TimeLayout),
			ev.SourceIP,
			ev.Description,
			ev.Country,
			ev.City,
			"Suspicious",
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
