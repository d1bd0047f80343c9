package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"reflect"

	"github.com/gowebpki/jcs"
	"github.com/modern-go/reflect2"
)

// Optional returns the first non-zero optional argument or the zero value.
func Optional[T any](args ...T) T {
	var _nil T
	return OptionalDefaulted(_nil, args...)
}

// OptionalDefaulted returns the first non-zero optional argument or the
// given default.
func OptionalDefaulted[T any](def T, args ...T) T {
	var _nil T
	for _, e := range args {
		if !reflect.DeepEqual(e, _nil) {
			return e
		}
	}
	return def
}

// HashData calculates a sha256 digest for the given data.
// Structured data is hashed in its canonical JSON form (RFC 8785),
// so the digest does not depend on field order or map iteration.
func HashData(d interface{}) (string, error) {
	if reflect2.IsNil(d) {
		return "", nil
	}
	var data []byte
	switch b := d.(type) {
	case []byte:
		data = b
	case string:
		data = []byte(b)
	default:
		raw, err := json.Marshal(d)
		if err != nil {
			return "", err
		}
		data, err = jcs.Transform(raw)
		if err != nil {
			return "", err
		}
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:]), nil
}
