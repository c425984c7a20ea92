package memo

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genPayload() gopter.Gen {
	return gen.MapOf(gen.Identifier(), gen.AnyString()).Map(func(m map[string]string) Payload {
		if m == nil {
			m = map[string]string{}
		}
		return Payload(m)
	})
}

func TestPayloadRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	schema := NewSchema()

	properties.Property("decode(rawJson(P)) == P", prop.ForAll(
		func(p Payload) bool {
			decoded, ok := schema.Decode(p.JSON())
			return ok && reflect.DeepEqual(p, decoded)
		},
		genPayload(),
	))

	properties.Property("decode(logLine(P)) == P", prop.ForAll(
		func(p Payload) bool {
			decoded, ok := schema.Decode(LogLine(p))
			return ok && reflect.DeepEqual(p, decoded)
		},
		genPayload(),
	))

	properties.TestingRun(t)
}
