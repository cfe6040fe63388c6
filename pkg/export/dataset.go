package export

import "fmt"

// Row holds one record keyed by header.
type Row map[string]interface{}

// Dataset defines tabular export content.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []Row
}

// Text renders a cell as display text.
func Text(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case fmt.Stringer:
		return value.String()
	default:
		return fmt.Sprint(value)
	}
}
