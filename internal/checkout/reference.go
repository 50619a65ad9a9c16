// Package checkout implements the reference token that ties a payment event
// back to the user and cart items being paid for. The token travels through
// the payment gateway's opaque external-reference field and comes back
// verbatim on the confirmation callback, so it is signed: a forged or
// tampered reference must not be able to trigger order creation.
package checkout

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/domain"
	"github.com/SoftDevDigital/farmacia-marquez-backend/internal/validate"
)

const refVersion = "ref.v1"

// Reference identifies the user and the exact product set included in one
// checkout attempt. ProductIDs preserve selection order.
type Reference struct {
	UserID     string   `json:"uid"`
	ProductIDs []string `json:"pids"`
}

// Codec encodes and decodes signed reference tokens.
type Codec struct {
	secret []byte
}

// NewCodec creates a Codec signing with secret.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("checkout reference secret must not be empty")
	}
	return &Codec{secret: []byte(secret)}, nil
}

// Encode builds the token: ref.v1.<base64url(payload)>.<base64url(signature)>.
// The structured payload keeps identifiers unambiguous regardless of what
// characters they contain, and the version tag leaves room for rotation.
func (c *Codec) Encode(ref Reference) (string, error) {
	if _, err := validate.UUID("checkout.reference", "user ID", ref.UserID); err != nil {
		return "", err
	}
	if _, err := validate.UUIDs("checkout.reference", "product IDs", ref.ProductIDs); err != nil {
		return "", err
	}

	payload, err := json.Marshal(ref)
	if err != nil {
		return "", fmt.Errorf("failed to encode checkout reference: %w", err)
	}

	body := base64.RawURLEncoding.EncodeToString(payload)
	sig := c.sign(body)
	return refVersion + "." + body + "." + sig, nil
}

// Decode verifies and parses a token. Any structural problem — wrong
// version, bad signature, malformed payload, non-UUID members — yields
// EINVALID; the caller treats all of them as an unusable callback.
func (c *Codec) Decode(token string) (Reference, error) {
	const op = "checkout.reference"
	var ref Reference

	parts := strings.Split(token, ".")
	if len(parts) != 4 || parts[0]+"."+parts[1] != refVersion {
		return ref, domain.Invalid(op, "malformed checkout reference")
	}
	body, sig := parts[2], parts[3]

	if !hmac.Equal([]byte(c.sign(body)), []byte(sig)) {
		return ref, domain.Invalid(op, "checkout reference signature mismatch")
	}

	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return ref, domain.Invalid(op, "malformed checkout reference")
	}
	if err := json.Unmarshal(payload, &ref); err != nil {
		return ref, domain.Invalid(op, "malformed checkout reference")
	}

	if _, err := validate.UUID(op, "user ID", ref.UserID); err != nil {
		return Reference{}, err
	}
	if _, err := validate.UUIDs(op, "product IDs", ref.ProductIDs); err != nil {
		return Reference{}, err
	}
	return ref, nil
}

func (c *Codec) sign(body string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(refVersion + "." + body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
