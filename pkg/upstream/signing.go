package upstream

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Sign computes the request signature the upstream expects: the uppercase
// hex MD5 digest of the timestamp, the request body, and the nonce
// concatenated in that order. The body must be the exact bytes sent on the
// wire; see marshalBody.
func Sign(timestamp string, body []byte, nonce string) string {
	h := md5.New()
	h.Write([]byte(timestamp))
	h.Write(body)
	h.Write([]byte(nonce))
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil)))
}

// marshalBody serializes a request payload into the compact JSON form the
// signature is computed over. HTML escaping is disabled so that angle
// brackets and ampersands in the question text appear verbatim, and the
// trailing newline the encoder appends is stripped. The returned bytes are
// both signed and sent; serializing twice could produce different bytes and
// an invalid signature.
func marshalBody(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
