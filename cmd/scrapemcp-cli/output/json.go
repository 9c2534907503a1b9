// json.go — JSON output formatter.
package output

import "encoding/json"

// JSONFormatter produces JSON output.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(w Writer, result *Result) error {
	out := map[string]any{
		"success": result.Success,
		"tool":    result.Tool,
		"action":  result.Action,
	}
	if result.Error != "" {
		out["error"] = result.Error
	}
	for k, v := range result.Data {
		out[k] = v
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
