package alchemy

import "encoding/json"

// MaterialFields is the flat view of what a creation request carries.
// The order in which encoders emit them matters only for readability.
type MaterialFields struct {
	TradeName      string
	Category       string
	MaterialStatus string
	ProducedBy     string
	ExternalCode   string
}

// CreatePayload renders fields into the request body for the given API
// version. Version v2 uses the nested field-table shape, v3 a flat field
// map. Unknown versions fall back to v2.
func CreatePayload(version string, materialType int, f MaterialFields) any {
	if version == "v3" {
		return map[string]any{
			"materialTypeId": materialType,
			"fields": map[string]string{
				"TradeName":      f.TradeName,
				"Category":       f.Category,
				"MaterialStatus": f.MaterialStatus,
				"ProducedBy":     f.ProducedBy,
				"ExternalCode":   f.ExternalCode,
			},
		}
	}
	return map[string]any{
		"materialType":              materialType,
		"calculatedPropertiesTable": []any{},
		"formulationTable":          []any{},
		"measuredPropertiesList":    []any{},
		"fields": []fieldEntry{
			tableField("TradeName", f.TradeName),
			tableField("Category", f.Category),
			tableField("MaterialStatus", f.MaterialStatus),
			tableField("ProducedBy", f.ProducedBy),
			tableField("ExternalCode", f.ExternalCode),
		},
	}
}

type fieldEntry struct {
	Identifier string     `json:"identifier"`
	Rows       []fieldRow `json:"rows"`
}

type fieldRow struct {
	Row    int          `json:"row"`
	Values []fieldValue `json:"values"`
}

type fieldValue struct {
	Value string `json:"value"`
}

func tableField(identifier, value string) fieldEntry {
	return fieldEntry{
		Identifier: identifier,
		Rows:       []fieldRow{{Row: 0, Values: []fieldValue{{Value: value}}}},
	}
}

// Record is a read-record response. Fields is kept raw because the API
// answers with either the v2 field-table array or the v3 flat map.
type Record struct {
	Fields json.RawMessage `json:"fields"`
}

// Field returns the first value of the named field. The second return is
// false when the field is absent or empty in either shape.
func (r Record) Field(identifier string) (string, bool) {
	if len(r.Fields) == 0 {
		return "", false
	}

	var table []fieldEntry
	if err := json.Unmarshal(r.Fields, &table); err == nil {
		for _, f := range table {
			if f.Identifier != identifier {
				continue
			}
			if len(f.Rows) == 0 || len(f.Rows[0].Values) == 0 {
				return "", false
			}
			v := f.Rows[0].Values[0].Value
			return v, v != ""
		}
		return "", false
	}

	var flat map[string]string
	if err := json.Unmarshal(r.Fields, &flat); err == nil {
		v, ok := flat[identifier]
		return v, ok && v != ""
	}
	return "", false
}
