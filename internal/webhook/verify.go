// Package webhook verifies and reconciles inbound delivery-status events
// from SendGrid-compatible and Twilio-compatible providers against
// DeliveredLead, OptOut, and Bounce rows, grounded on the original
// webhooks.py handler and the teacher's WebhookReceiver HTTP surfaces
// (internal/worker/webhook_receiver.go).
package webhook

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"sort"
)

// VerifySendGrid checks an Ed25519 signature over timestamp||body using
// pub. sig and timestamp are the raw header values (base64 signature,
// decimal timestamp string); both are required for a public-key check to
// be attempted.
func VerifySendGrid(pub ed25519.PublicKey, timestamp, sig, body []byte) bool {
	if len(pub) == 0 || len(timestamp) == 0 || len(sig) == 0 {
		return false
	}
	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(sig)))
	n, err := base64.StdEncoding.Decode(decoded, sig)
	if err != nil {
		return false
	}
	signed := make([]byte, 0, len(timestamp)+len(body))
	signed = append(signed, timestamp...)
	signed = append(signed, body...)
	return ed25519.Verify(pub, signed, decoded[:n])
}

// VerifyBearer is the fallback path when the Ed25519 check did not pass
// (no usable public key, missing signature headers, or a bad signature):
// the Authorization header must be "Bearer <token>" with an
// exact, constant-time match against the configured token.
func VerifyBearer(token, authHeader string) bool {
	const prefix = "Bearer "
	if token == "" || len(authHeader) <= len(prefix) || authHeader[:len(prefix)] != prefix {
		return false
	}
	got := authHeader[len(prefix):]
	return subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
}

// VerifyTwilio recomputes the HMAC-SHA1 signature Twilio sends: the
// request URL concatenated with every sorted "key+value" form parameter,
// keyed by authToken, base64-encoded, and compared constant-time against
// sig.
func VerifyTwilio(authToken, url string, params map[string]string, sig string) bool {
	if authToken == "" || sig == "" {
		return false
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := []byte(url)
	for _, k := range keys {
		buf = append(buf, k...)
		buf = append(buf, params[k]...)
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write(buf)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(sig)) == 1
}
