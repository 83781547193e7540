package common

import (
	"github.com/fxamacker/cbor/v2"
)

// decMode rejects duplicate map keys, so duplicate claims surface as errors instead of
// silently overwriting each other
var decMode cbor.DecMode

func init() {
	var err error
	decMode, err = cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// isNull reports whether raw is CBOR null or undefined. Unmarshalling either into a string or
// integer leaves the target untouched without an error, so required values check this first.
func isNull(raw cbor.RawMessage) bool {
	return len(raw) == 1 && (raw[0] == 0xf6 || raw[0] == 0xf7)
}
