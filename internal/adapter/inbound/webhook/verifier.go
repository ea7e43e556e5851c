package webhook

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jonny/instance-bot/internal/domain/model"
)

const (
	HeaderSignature = "X-Signature-Ed25519"
	HeaderTimestamp = "X-Signature-Timestamp"
)

// ParsePublicKey decodes a hex-encoded Ed25519 public key.
func ParsePublicKey(hexKey string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, fmt.Errorf("decoding public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// VerifierConfig configures request signature verification.
type VerifierConfig struct {
	// PublicKey is the chat platform's application key. When nil every
	// request is rejected.
	PublicKey ed25519.PublicKey
	// MaxClockSkew bounds how far the signed timestamp may drift from now.
	// Zero disables the check.
	MaxClockSkew time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Verifier checks the Ed25519 signature over timestamp+body.
type Verifier struct {
	publicKey    ed25519.PublicKey
	maxClockSkew time.Duration
	now          func() time.Time
}

func NewVerifier(cfg VerifierConfig) *Verifier {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Verifier{
		publicKey:    cfg.PublicKey,
		maxClockSkew: cfg.MaxClockSkew,
		now:          now,
	}
}

// Enabled reports whether a key is configured. A disabled verifier fails closed.
func (v *Verifier) Enabled() bool {
	return len(v.publicKey) == ed25519.PublicKeySize
}

// Verify returns an error wrapping model.ErrUnauthorized unless the request
// carries a valid signature for body.
func (v *Verifier) Verify(header http.Header, body []byte) error {
	if !v.Enabled() {
		return fmt.Errorf("%w: no verification key configured", model.ErrUnauthorized)
	}

	sigHex := headerValue(header, HeaderSignature)
	timestamp := headerValue(header, HeaderTimestamp)
	if sigHex == "" || timestamp == "" {
		return fmt.Errorf("%w: missing signature headers", model.ErrUnauthorized)
	}

	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return fmt.Errorf("%w: invalid signature encoding", model.ErrUnauthorized)
	}
	if len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("%w: invalid signature length %d", model.ErrUnauthorized, len(sig))
	}

	if err := v.checkTimestamp(timestamp); err != nil {
		return err
	}

	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	msg = append(msg, body...)
	if !ed25519.Verify(v.publicKey, msg, sig) {
		return fmt.Errorf("%w: signature mismatch", model.ErrUnauthorized)
	}
	return nil
}

func (v *Verifier) checkTimestamp(timestamp string) error {
	if v.maxClockSkew <= 0 {
		return nil
	}
	secs, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid timestamp", model.ErrUnauthorized)
	}
	skew := v.now().Sub(time.Unix(secs, 0))
	if math.Abs(float64(skew)) > float64(v.maxClockSkew) {
		return fmt.Errorf("%w: timestamp outside allowed skew (%s)", model.ErrUnauthorized, skew.Round(time.Second))
	}
	return nil
}

// headerValue looks a header up by name regardless of how the map keys were
// cased; headers built outside net/http are not always canonical.
func headerValue(header http.Header, name string) string {
	if v := header.Get(name); v != "" {
		return strings.TrimSpace(v)
	}
	for k, vals := range header {
		if strings.EqualFold(k, name) && len(vals) > 0 {
			return strings.TrimSpace(vals[0])
		}
	}
	return ""
}
