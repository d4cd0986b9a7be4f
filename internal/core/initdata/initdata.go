// Package initdata verifies the signed init data a mini-app forwards to prove
// it was opened from an authenticated chat session.
//
// The token is a percent-encoded, &-joined list of key=value pairs. The hash
// field carries the hex HMAC-SHA-256 of the newline-joined, key-sorted
// remaining pairs, keyed with a secret derived from the bot token.
package initdata

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	hashKey     = "hash"
	userKey     = "user"
	authDateKey = "auth_date"

	// secretSalt keys the derivation of the verification secret.
	secretSalt = "WebAppData"
)

var (
	ErrMalformedPayload = errors.New("initdata: malformed payload")
	ErrInvalidSignature = errors.New("initdata: invalid signature")
	ErrExpired          = errors.New("initdata: payload expired")
)

// Field is one key/value pair of the token, in token order.
type Field struct {
	Key   string
	Value string
}

// SignedPayload is a parsed, not yet verified token.
type SignedPayload struct {
	// Fields holds every pair except the signature.
	Fields []Field
	// Signature is the claimed hex digest.
	Signature string
	// EmbeddedUser is the raw user claim. Untrusted until verified.
	EmbeddedUser string
	AuthDate     time.Time
}

// Identity is the user the platform vouches for once the signature checks out.
type Identity struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// DisplayName is the label stored on the user record.
func (i Identity) DisplayName() string {
	name := strings.TrimSpace(i.FirstName + " " + i.LastName)
	if name == "" {
		return i.Username
	}
	return name
}

// Parse decodes raw into its fields and extracts the claimed signature.
// A missing hash or user field yields ErrMalformedPayload.
func Parse(raw string) (SignedPayload, error) {
	var p SignedPayload

	decoded, err := url.PathUnescape(strings.TrimSpace(raw))
	if err != nil {
		return p, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	hashSeen, userSeen := false, false
	for _, part := range strings.Split(decoded, "&") {
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok || key == "" {
			return p, fmt.Errorf("%w: field without key=value form", ErrMalformedPayload)
		}
		switch key {
		case hashKey:
			if hashSeen {
				return p, fmt.Errorf("%w: duplicate hash", ErrMalformedPayload)
			}
			hashSeen = true
			p.Signature = value
			continue
		case userKey:
			userSeen = true
			p.EmbeddedUser = value
		case authDateKey:
			if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
				p.AuthDate = time.Unix(secs, 0).UTC()
			}
		}
		p.Fields = append(p.Fields, Field{Key: key, Value: value})
	}

	if !hashSeen || p.Signature == "" {
		return p, fmt.Errorf("%w: missing hash", ErrMalformedPayload)
	}
	if !userSeen {
		return p, fmt.Errorf("%w: missing user", ErrMalformedPayload)
	}
	return p, nil
}

// CheckString joins the fields as key=value lines sorted by key. The result
// does not depend on the order of fields.
func CheckString(fields []Field) string {
	sorted := make([]Field, len(fields))
	copy(sorted, fields)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Key != sorted[j].Key {
			return sorted[i].Key < sorted[j].Key
		}
		return sorted[i].Value < sorted[j].Value
	})

	lines := make([]string, len(sorted))
	for i, f := range sorted {
		lines[i] = f.Key + "=" + f.Value
	}
	return strings.Join(lines, "\n")
}

// Sign returns the hex signature the platform computes for fields.
func Sign(fields []Field, botToken string) string {
	mac := hmac.New(sha256.New, secretKey(botToken))
	mac.Write([]byte(CheckString(fields)))
	return hex.EncodeToString(mac.Sum(nil))
}

// secretKey is HMAC-SHA-256 keyed with "WebAppData" over the bot token, the
// derivation the platform uses for mini-app init data.
func secretKey(botToken string) []byte {
	mac := hmac.New(sha256.New, []byte(secretSalt))
	mac.Write([]byte(botToken))
	return mac.Sum(nil)
}

// Verify checks raw against botToken and returns the identity it carries.
// It has no side effects and never logs its inputs.
func Verify(raw, botToken string) (Identity, error) {
	p, err := Parse(raw)
	if err != nil {
		return Identity{}, err
	}
	return verifyPayload(p, botToken)
}

func verifyPayload(p SignedPayload, botToken string) (Identity, error) {
	expected := Sign(p.Fields, botToken)
	if !hmac.Equal([]byte(expected), []byte(p.Signature)) {
		return Identity{}, ErrInvalidSignature
	}

	// Parse already decoded the token once. A value that still looks encoded
	// was double-encoded by the client; a literal '%' inside JSON stays as is.
	userJSON := p.EmbeddedUser
	if !strings.HasPrefix(userJSON, "{") {
		if unescaped, err := url.PathUnescape(userJSON); err == nil {
			userJSON = unescaped
		}
	}

	var id Identity
	if err := json.Unmarshal([]byte(userJSON), &id); err != nil {
		return Identity{}, fmt.Errorf("%w: user: %v", ErrMalformedPayload, err)
	}
	if id.ID == 0 {
		return Identity{}, fmt.Errorf("%w: user id missing", ErrMalformedPayload)
	}
	return id, nil
}

// Verifier binds Verify to a bot token and optionally rejects stale tokens.
type Verifier struct {
	BotToken string
	// MaxAge rejects payloads whose auth_date is older. Zero disables it.
	MaxAge time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Verify runs the signature check and, when MaxAge is set, the freshness check.
func (v Verifier) Verify(raw string) (Identity, error) {
	p, err := Parse(raw)
	if err != nil {
		return Identity{}, err
	}
	id, err := verifyPayload(p, v.BotToken)
	if err != nil {
		return Identity{}, err
	}
	if v.MaxAge > 0 {
		if p.AuthDate.IsZero() {
			return Identity{}, fmt.Errorf("%w: missing auth_date", ErrMalformedPayload)
		}
		now := time.Now
		if v.Now != nil {
			now = v.Now
		}
		if now().Sub(p.AuthDate) > v.MaxAge {
			return Identity{}, ErrExpired
		}
	}
	return id, nil
}

// Build encodes fields into a token signed with botToken, in the form a
// mini-app receives it from the platform.
func Build(fields []Field, botToken string) string {
	parts := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		parts = append(parts, escape(f.Key)+"="+escape(f.Value))
	}
	parts = append(parts, hashKey+"="+Sign(fields, botToken))
	return strings.Join(parts, "&")
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
