package util

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Namespace scopes the ids derived by HashUUID.
var Namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/jpfielding/blockdct"))

// HashUUID returns a name-based UUID of value's JSON encoding, so equal
// values share an id across runs. It returns "" if value cannot be encoded.
func HashUUID(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return uuid.NewMD5(Namespace, raw).String()
}
