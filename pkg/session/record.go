package session

import (
	"encoding/json"
	"fmt"
)

// RecordChunkSize is the server-imposed limit on records per insert or
// update call body.
const RecordChunkSize = 200

// Record is one sObject passed to or returned by the service. Type is
// the sObject type discriminator carried under attributes; ID is the
// stable record identifier required for updates; all remaining fields
// pass through verbatim.
type Record struct {
	Type   string
	ID     string
	Fields map[string]any
}

// Field returns a named field value, or nil.
func (r Record) Field(name string) any {
	return r.Fields[name]
}

// StringField returns a named field as a string when it is one.
func (r Record) StringField(name string) string {
	s, _ := r.Fields[name].(string)
	return s
}

// MarshalJSON flattens the record into the service's wire shape:
// fields at the top level, the type discriminator under attributes, and
// the identifier as Id.
func (r Record) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Fields)+2)
	for key, value := range r.Fields {
		flat[key] = value
	}
	if r.Type != "" {
		flat["attributes"] = map[string]any{"type": r.Type}
	}
	if r.ID != "" {
		flat["Id"] = r.ID
	}
	return json.Marshal(flat)
}

// UnmarshalJSON splits the wire shape back into the tagged form.
func (r *Record) UnmarshalJSON(data []byte) error {
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}

	if attrs, ok := flat["attributes"].(map[string]any); ok {
		r.Type, _ = attrs["type"].(string)
		delete(flat, "attributes")
	}
	if id, ok := flat["Id"].(string); ok {
		r.ID = id
		delete(flat, "Id")
	}
	r.Fields = flat
	return nil
}

// SaveError is one error reported for a record in a save result.
type SaveError struct {
	StatusCode string   `json:"statusCode"`
	Message    string   `json:"message"`
	Fields     []string `json:"fields"`
}

// SaveResult is the per-record outcome of an update call.
type SaveResult struct {
	ID      string      `json:"id"`
	Success bool        `json:"success"`
	Errors  []SaveError `json:"errors"`
}

// InsertResult is the per-record outcome of a composite-tree insert.
type InsertResult struct {
	ID          string      `json:"id"`
	ReferenceID string      `json:"referenceId"`
	Errors      []SaveError `json:"errors"`
}

// validateRecords enforces the submission preconditions before any
// network call: records must be present and the first record must carry
// the type discriminator (records in one call are homogeneous, so type
// is read once from the first). Updates additionally require a stable
// record identifier.
func validateRecords(records []Record, requireID bool) error {
	if len(records) == 0 {
		return fmt.Errorf("%w: no records", ErrInvalidRecords)
	}
	if records[0].Type == "" {
		return fmt.Errorf("%w: missing sObject type", ErrInvalidRecords)
	}
	if requireID && records[0].ID == "" {
		return fmt.Errorf("%w: missing record ID", ErrInvalidRecords)
	}
	return nil
}
