package initdata

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math/rand"
	"net/url"
	"strings"
	"testing"
	"time"
)

const botToken = "7000000000:AAH-test-token"

func validFields() []Field {
	return []Field{
		{Key: "query_id", Value: "AAHdF6IQAAAAAN0XohDhrOrc"},
		{Key: "user", Value: `{"id":42,"first_name":"Amani","last_name":"K","username":"amani","language_code":"fr"}`},
		{Key: "auth_date", Value: "1700000000"},
	}
}

func TestVerify_ValidToken(t *testing.T) {
	raw := Build(validFields(), botToken)

	id, err := Verify(raw, botToken)
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if id.ID != 42 || id.FirstName != "Amani" {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if id.DisplayName() != "Amani K" {
		t.Fatalf("unexpected display name %q", id.DisplayName())
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	raw := Build(validFields(), botToken)
	if _, err := Verify(raw, "other-token"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerify_AnySingleSignatureFlipFails(t *testing.T) {
	fields := validFields()
	sig := Sign(fields, botToken)
	base := Build(fields, botToken)
	prefix := strings.TrimSuffix(base, sig)

	for i := range sig {
		flipped := []byte(sig)
		if flipped[i] == 'a' {
			flipped[i] = 'b'
		} else {
			flipped[i] = 'a'
		}
		_, err := Verify(prefix+string(flipped), botToken)
		if !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("flip at %d: expected ErrInvalidSignature, got %v", i, err)
		}
	}
}

func TestVerify_TamperedFieldFails(t *testing.T) {
	fields := validFields()
	sig := Sign(fields, botToken)
	fields[2].Value = "1800000000"

	parts := []string{}
	for _, f := range fields {
		parts = append(parts, escape(f.Key)+"="+escape(f.Value))
	}
	raw := strings.Join(parts, "&") + "&hash=" + sig

	if _, err := Verify(raw, botToken); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerify_MissingHashOrUserIsMalformed(t *testing.T) {
	noUser := []Field{{Key: "auth_date", Value: "1700000000"}, {Key: "query_id", Value: "x"}}
	cases := map[string]string{
		"no hash":      "user=" + escape(`{"id":1}`) + "&auth_date=1700000000",
		"empty hash":   "user=" + escape(`{"id":1}`) + "&hash=",
		"no user":      Build(noUser, botToken),
		"empty":        "",
		"garbage":      "not-a-token",
		"bad escape":   "user=%zz&hash=abc",
		"double hash":  Build(validFields(), botToken) + "&hash=00",
		"no user, bad": "auth_date=1&hash=deadbeef",
	}
	for name, raw := range cases {
		_, err := Verify(raw, botToken)
		if !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("%s: expected ErrMalformedPayload, got %v", name, err)
		}
		if errors.Is(err, ErrInvalidSignature) {
			t.Errorf("%s: must not report a signature mismatch", name)
		}
	}
}

func TestVerify_UnparsableUserIsMalformed(t *testing.T) {
	for _, user := range []string{`not json`, `{"first_name":"NoID"}`, `{"id":"abc"}`} {
		raw := Build([]Field{{Key: "user", Value: user}, {Key: "auth_date", Value: "1"}}, botToken)
		if _, err := Verify(raw, botToken); !errors.Is(err, ErrMalformedPayload) {
			t.Errorf("user %q: expected ErrMalformedPayload, got %v", user, err)
		}
	}
}

func TestVerify_UserWithSpacesAndPercent(t *testing.T) {
	fields := []Field{
		{Key: "user", Value: `{"id":7,"first_name":"Marie Claire 100%"}`},
		{Key: "auth_date", Value: "1700000000"},
	}
	id, err := Verify(Build(fields, botToken), botToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.FirstName != "Marie Claire 100%" {
		t.Fatalf("unexpected first name %q", id.FirstName)
	}
}

func TestVerify_LiteralPercentEscapeInNameIsKept(t *testing.T) {
	fields := []Field{
		{Key: "user", Value: `{"id":7,"first_name":"%41my"}`},
		{Key: "auth_date", Value: "1700000000"},
	}
	id, err := Verify(Build(fields, botToken), botToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.FirstName != "%41my" {
		t.Fatalf("user value must be decoded once, got %q", id.FirstName)
	}
}

func TestVerify_DoubleEncodedUser(t *testing.T) {
	fields := []Field{
		{Key: "user", Value: url.QueryEscape(`{"id":7,"first_name":"Amani"}`)},
		{Key: "auth_date", Value: "1700000000"},
	}
	id, err := Verify(Build(fields, botToken), botToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.ID != 7 || id.FirstName != "Amani" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestCheckString_Sorted(t *testing.T) {
	got := CheckString([]Field{
		{Key: "user", Value: "u"},
		{Key: "auth_date", Value: "1"},
		{Key: "query_id", Value: "q"},
	})
	want := "auth_date=1\nquery_id=q\nuser=u"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCheckString_OrderIndependent(t *testing.T) {
	fields := []Field{
		{Key: "auth_date", Value: "1700000000"},
		{Key: "chat_instance", Value: "-1"},
		{Key: "chat_type", Value: "private"},
		{Key: "query_id", Value: "AAH"},
		{Key: "signature", Value: "xyz"},
		{Key: "user", Value: `{"id":42}`},
	}
	want := CheckString(fields)

	r := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		shuffled := make([]Field, len(fields))
		copy(shuffled, fields)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := CheckString(shuffled); got != want {
			t.Fatalf("shuffle %d: got %q, want %q", i, got, want)
		}
	}
}

func TestCheckString_DoesNotMutateInput(t *testing.T) {
	fields := []Field{{Key: "b", Value: "2"}, {Key: "a", Value: "1"}}
	CheckString(fields)
	if fields[0].Key != "b" {
		t.Fatal("input slice was reordered")
	}
}

func TestParse_ExtractsClaims(t *testing.T) {
	p, err := Parse(Build(validFields(), botToken))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Fields) != 3 {
		t.Fatalf("expected 3 fields without hash, got %d", len(p.Fields))
	}
	for _, f := range p.Fields {
		if f.Key == "hash" {
			t.Fatal("hash must be removed from fields")
		}
	}
	if p.Signature != Sign(validFields(), botToken) {
		t.Fatal("signature not extracted")
	}
	if !strings.Contains(p.EmbeddedUser, `"id":42`) {
		t.Fatalf("unexpected embedded user %q", p.EmbeddedUser)
	}
	if p.AuthDate.Unix() != 1700000000 {
		t.Fatalf("unexpected auth date %v", p.AuthDate)
	}
}

func TestVerifier_MaxAge(t *testing.T) {
	authDate := time.Unix(1700000000, 0)
	raw := Build(validFields(), botToken)

	fresh := Verifier{BotToken: botToken, MaxAge: time.Hour, Now: func() time.Time { return authDate.Add(time.Minute) }}
	if _, err := fresh.Verify(raw); err != nil {
		t.Fatalf("expected fresh token to pass, got %v", err)
	}

	stale := Verifier{BotToken: botToken, MaxAge: time.Hour, Now: func() time.Time { return authDate.Add(2 * time.Hour) }}
	if _, err := stale.Verify(raw); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}

	disabled := Verifier{BotToken: botToken}
	if _, err := disabled.Verify(raw); err != nil {
		t.Fatalf("expected no freshness check, got %v", err)
	}
}

func TestVerifier_MaxAgeRequiresAuthDate(t *testing.T) {
	raw := Build([]Field{{Key: "user", Value: `{"id":5}`}}, botToken)
	v := Verifier{BotToken: botToken, MaxAge: time.Minute}
	if _, err := v.Verify(raw); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestSign_DerivesSecretFromBotToken(t *testing.T) {
	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte("auth_date=1\nuser={\"id\":1}"))
	want := hex.EncodeToString(mac.Sum(nil))

	fields := []Field{{Key: "user", Value: `{"id":1}`}, {Key: "auth_date", Value: "1"}}
	if got := Sign(fields, botToken); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}
