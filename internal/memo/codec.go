// Package memo encodes and decodes the flat JSON payloads carried by memo instructions.
//
// A payload reaches us in one of two shapes: the raw JSON text of the memo, or the
// human readable log line emitted by the memo program, where the JSON text is itself
// serialized as a quoted string:
//
//	Program log: Memo (len 30): "{\"cert_pub\":\"AAAA\",\"hotkey\":\"BBBB\"}"
package memo

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
)

// LogMarker is the substring identifying memo program log lines.
const LogMarker = "Memo (len"

var logLinePattern = regexp.MustCompile(`Memo \(len \d+\): "(.*)"`)

// Payload is a flat string-keyed memo payload.
type Payload map[string]string

// JSON returns the canonical JSON text of the payload (keys sorted).
func (p Payload) JSON() string {
	raw, err := json.Marshal(map[string]string(p))
	if err != nil {
		// map[string]string always marshals
		panic(err)
	}
	return string(raw)
}

func (p Payload) Get(key string) string {
	return p[key]
}

func (p Payload) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LogLine renders the payload the way the memo program logs it.
func LogLine(p Payload) string {
	text := p.JSON()
	quoted, _ := json.Marshal(text)
	return fmt.Sprintf("Program log: Memo (len %d): %s", len(text), quoted)
}

// Schema lists the keys a payload must carry to be accepted.
type Schema struct {
	Required []string
}

func NewSchema(required ...string) Schema {
	return Schema{Required: required}
}

// Decode accepts either raw JSON or a memo log line. It never panics; any failure,
// including a missing or empty required key, yields (nil, false).
func (s Schema) Decode(raw string) (Payload, bool) {
	if p, ok := s.DecodeJSON(raw); ok {
		return p, true
	}
	return s.decodeLogLine(raw)
}

// DecodeJSON only accepts the raw JSON object form.
func (s Schema) DecodeJSON(raw string) (Payload, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, false
	}
	return s.accept(obj)
}

func (s Schema) decodeLogLine(raw string) (Payload, bool) {
	m := logLinePattern.FindStringSubmatch(raw)
	if len(m) != 2 {
		return nil, false
	}
	captured := m[1]

	// the log serializer double-encodes the memo, unescape once to recover the JSON text
	var inner string
	if err := json.Unmarshal([]byte(`"`+captured+`"`), &inner); err == nil {
		return s.DecodeJSON(inner)
	}
	return s.DecodeJSON(captured)
}

func (s Schema) accept(obj map[string]any) (Payload, bool) {
	if obj == nil {
		return nil, false
	}
	p := make(Payload, len(obj))
	for k, v := range obj {
		if str, ok := v.(string); ok {
			p[k] = str
		}
	}
	for _, key := range s.Required {
		if p[key] == "" {
			return nil, false
		}
	}
	return p, true
}
