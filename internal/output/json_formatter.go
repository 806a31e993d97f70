package output

import (
	json "github.com/goccy/go-json"
)

// JSONFormatter renders the report envelope as JSON
type JSONFormatter struct {
	Pretty bool // If true, format with indentation
}

func (j JSONFormatter) Name() string { return "json" }

func (j JSONFormatter) Format(r *Report) ([]byte, error) {
	var data []byte
	var err error

	if j.Pretty {
		data, err = json.MarshalIndent(r, "", "  ")
	} else {
		data, err = json.Marshal(r)
	}
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
