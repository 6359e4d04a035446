package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
)

// bareInteger matches an unquoted integer value closing a member.
var bareInteger = regexp.MustCompile(`:(\d+)([,}])`)

// identifierPaths are the members that carry 17-digit transaction ids.
var identifierPaths = [][]string{
	{"transaction", "tid"},
	{"transaction", "refund", "tid"},
	{"transaction", "partner_payment_reference"},
	{"transaction", "service_supplier_id"},
	{"event", "tid"},
	{"event", "parent_tid"},
}

// Normalize decodes a raw gateway body without losing precision on long identifiers.
//
// The body is parsed once as-is, then a second time with every bare integer quoted.
// Identifier members of the first document are overwritten with the string values
// of the second before the typed Response is decoded.
func Normalize(raw string) (*Response, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedResponse)
	}

	sources := []map[string]any{quotedDocument(raw), numberDocument(raw)}
	for _, path := range identifierPaths {
		if v, ok := lookup(doc, path...); !ok || v == nil {
			continue
		}
		for _, src := range sources {
			v, ok := lookup(src, path...)
			if !ok {
				continue
			}
			if s, ok := identifierString(v); ok {
				assign(doc, s, path...)
				break
			}
		}
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	resp.doc = doc
	return &resp, nil
}

// quotedDocument parses raw with bare integers quoted. It returns nil when the
// substitution corrupted a string value.
func quotedDocument(raw string) map[string]any {
	var out map[string]any
	if err := json.Unmarshal([]byte(bareInteger.ReplaceAllString(raw, `:"$1"$2`)), &out); err != nil {
		return nil
	}
	return out
}

// numberDocument covers identifiers the substitution cannot reach, such as
// members followed by whitespace.
func numberDocument(raw string) map[string]any {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil
	}
	return out
}

func identifierString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}

func assign(doc map[string]any, value any, path ...string) {
	cur := doc
	for i, key := range path {
		if i == len(path)-1 {
			cur[key] = value
			return
		}
		next, ok := cur[key].(map[string]any)
		if !ok {
			return
		}
		cur = next
	}
}
