package models

import "encoding/json"

// BucketMetadata describes a bucket row as callers see it. Name is nil when
// the bucket was created without a display name. Created is the
// caller-supplied creation timestamp string, stored verbatim.
type BucketMetadata struct {
	ID       string         `json:"id"`
	Name     *string        `json:"name"`
	Type     string         `json:"type"`
	Client   string         `json:"client"`
	Hostname string         `json:"hostname"`
	Created  string         `json:"created"`
	Data     map[string]any `json:"data"`
}

// DecodeBucketData parses a stored bucket metadata blob. An absent, empty,
// or unparsable blob decodes to an empty map rather than an error.
func DecodeBucketData(raw []byte) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil || data == nil {
		return map[string]any{}
	}
	return data
}
