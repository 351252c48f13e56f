package linkcheck

import (
	"encoding/csv"
	"io"
	"strconv"

	"gitlab.com/tozd/go/errors"
)

var csvHeader = []string{"path", "status", "url", "error"}

// 📝 WriteCSV writes records with the header path,status,url,error
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.Errorf("writing csv header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write([]string{r.Path, strconv.Itoa(r.Status), r.URL, r.Error}); err != nil {
			return errors.Errorf("writing csv row for %s: %w", r.Path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Errorf("flushing csv: %w", err)
	}
	return nil
}

// 📖 ReadCSV reads a report produced by WriteCSV. Columns are matched by
// header name so reports with extra or reordered columns still load.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Errorf("reading csv header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range []string{"path", "status", "url"} {
		if _, ok := cols[name]; !ok {
			return nil, errors.Errorf("csv header is missing column %q", name)
		}
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Errorf("reading csv line %d: %w", line, err)
		}

		status := 0
		if s := field(row, "status"); s != "" {
			status, err = strconv.Atoi(s)
			if err != nil {
				return nil, errors.Errorf("line %d: invalid status %q: %w", line, s, err)
			}
		}
		records = append(records, Record{
			Path:   field(row, "path"),
			Status: status,
			URL:    field(row, "url"),
			Error:  field(row, "error"),
		})
	}
	return records, nil
}
