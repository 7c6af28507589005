package sawmill

import "strings"

// Encode converts the record into the wire-format mapping expected by the
// ingestion table: each snake_case field name becomes its PascalCase
// counterpart (time_generated -> TimeGenerated, mlflow_url -> MlflowUrl).
// Nested containers are passed through unmodified. Encode is total — it
// succeeds for any record, including the zero value.
func (r *Record) Encode() map[string]any {
	errs := r.ErrorMessage
	if errs == nil {
		errs = []string{}
	}
	details := r.ExecutionDetails
	if details == nil {
		details = map[string]any{}
	}

	fields := map[string]any{
		"time_generated":    strField(r.TimeGenerated),
		"process_name":      strField(r.ProcessName),
		"execution_id":      strField(r.ExecutionID),
		"environment":       string(r.Environment),
		"status":            string(r.Status),
		"start_time":        strField(r.StartTime),
		"end_time":          strField(r.EndTime),
		"error_message":     errs,
		"mlflow_url":        strField(r.MlflowURL),
		"execution_details": details,
	}

	encoded := make(map[string]any, len(fields))
	for k, v := range fields {
		encoded[pascalKey(k)] = v
	}
	return encoded
}

// pascalKey renames a snake_case field to the ingestion table's naming:
// split on underscore, capitalize each word, join without separator.
func pascalKey(name string) string {
	var b strings.Builder
	for _, word := range strings.Split(name, "_") {
		if word == "" {
			continue
		}
		b.WriteString(strings.ToUpper(word[:1]))
		b.WriteString(strings.ToLower(word[1:]))
	}
	return b.String()
}

// strField flattens a nullable string so the encoded map carries a plain
// value or an untyped nil (marshals to JSON null).
func strField(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
