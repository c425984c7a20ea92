package memo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var certSchema = NewSchema("cert_pub", "hotkey")

func TestDecodeLogLine(t *testing.T) {
	line := `Program log: Memo (len 30): "{\"cert_pub\":\"AAAA\",\"hotkey\":\"BBBB\"}"`

	p, ok := certSchema.Decode(line)
	require.True(t, ok)
	require.Equal(t, Payload{"cert_pub": "AAAA", "hotkey": "BBBB"}, p)
}

func TestDecodeLogLineAlreadyUnescaped(t *testing.T) {
	line := `Program log: Memo (len 30): "{"cert_pub":"AAAA","hotkey":"BBBB"}"`

	p, ok := certSchema.Decode(line)
	require.True(t, ok)
	require.Equal(t, "AAAA", p.Get("cert_pub"))
	require.Equal(t, "BBBB", p.Get("hotkey"))
}

func TestDecodeRawJSON(t *testing.T) {
	p, ok := certSchema.Decode(`{"cert_pub":"AAAA","hotkey":"BBBB","extra":"x"}`)
	require.True(t, ok)
	require.Equal(t, []string{"cert_pub", "extra", "hotkey"}, p.Keys())
}

func TestDecodeRejects(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "garbage", raw: "not a memo"},
		{name: "json null", raw: "null"},
		{name: "json array", raw: `["cert_pub","hotkey"]`},
		{name: "missing key", raw: `{"cert_pub":"AAAA"}`},
		{name: "empty value", raw: `{"cert_pub":"AAAA","hotkey":""}`},
		{name: "non string value", raw: `{"cert_pub":"AAAA","hotkey":42}`},
		{name: "nested value", raw: `{"cert_pub":"AAAA","hotkey":{"k":"v"}}`},
		{name: "log line partial", raw: `Program log: Memo (len 19): "{\"cert_pub\":\"AAAA\"}"`},
		{name: "log line broken json", raw: `Program log: Memo (len 12): "{\"cert_pub\":"`},
		{name: "log line without quotes", raw: `Program log: Memo (len 4): AAAA`},
		{name: "other log line", raw: `Program log: Instruction: Transfer`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, ok := certSchema.Decode(tc.raw)
			assert.False(t, ok)
			assert.Nil(t, p)
		})
	}
}

func TestDecodeJSONIgnoresLogLines(t *testing.T) {
	line := LogLine(Payload{"cert_pub": "AAAA", "hotkey": "BBBB"})
	_, ok := certSchema.DecodeJSON(line)
	require.False(t, ok)
}

func TestLogLine(t *testing.T) {
	p := Payload{"cert_pub": "AAAA", "hotkey": "BBBB"}
	require.Equal(t, `{"cert_pub":"AAAA","hotkey":"BBBB"}`, p.JSON())
	require.Equal(t, `Program log: Memo (len 35): "{\"cert_pub\":\"AAAA\",\"hotkey\":\"BBBB\"}"`, LogLine(p))
}

func TestRoundTrip(t *testing.T) {
	p := Payload{"cert_pub": "MIIB\"quoted\"", "hotkey": `back\slash`, "note": "line\nbreak"}

	decoded, ok := certSchema.Decode(p.JSON())
	require.True(t, ok)
	require.Equal(t, p, decoded)

	decoded, ok = certSchema.Decode(LogLine(p))
	require.True(t, ok)
	require.Equal(t, p, decoded)
}
