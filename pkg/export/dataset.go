package export

import "fmt"

// Dataset is a report table. Footer, when set, is rendered after the rows
// as a summary line; Numeric names the columns holding amounts.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
	Footer  map[string]string
	Numeric []string
}

func (d Dataset) validate(format string) error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("%s requires at least one header", format)
	}
	return nil
}

func (d Dataset) record(row map[string]string) []string {
	record := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		record[i] = row[header]
	}
	return record
}

func (d Dataset) isNumeric(header string) bool {
	for _, name := range d.Numeric {
		if name == header {
			return true
		}
	}
	return false
}
