package jwk

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/josekit/jose/jwa"
	"github.com/josekit/jose/jwk/jwktypes"
)

// RFC 7517 Appendix A.1
const rawECPublicKey = `{"kty":"EC",` +
	`"crv":"P-256",` +
	`"x":"MKBCTNIcKUSDii11ySs3526iDZ8AiTo7Tu6KPAqv7D4",` +
	`"y":"4Etl6SRW2YiLUrN5vfvVHuhp7x8PxltmWWlbbM4IFyM",` +
	`"use":"enc",` +
	`"kid":"1"}`

// RFC 7517 Appendix A.2
const rawECPrivateKey = `{"kty":"EC",` +
	`"crv":"P-256",` +
	`"x":"MKBCTNIcKUSDii11ySs3526iDZ8AiTo7Tu6KPAqv7D4",` +
	`"y":"4Etl6SRW2YiLUrN5vfvVHuhp7x8PxltmWWlbbM4IFyM",` +
	`"d":"870MB6gfuTJ4HtUnUvYMyJpr5eUZNP4Bk43bVdj3eAE",` +
	`"use":"enc",` +
	`"kid":"1"}`

// RFC 7638 Section 3.1
const rawRSAPublicKey = `{"kty":"RSA",` +
	`"n":"0vx7agoebGcQSuuPiLJXZptN9nndrQmbXEps2aiAFbWhM78LhWx4cbbfAAt` +
	`VT86zwu1RK7aPFFxuhDR1L6tSoc_BJECPebWKRXjBZCiFV4n3oknjhMstn6` +
	`4tZ_2W-5JsGY4Hc5n9yBXArwl93lqt7_RN5w6Cf0h4QyQ5v-65YGjQR0_FD` +
	`W2QvzqY368QQMicAtaSqzs8KJZgnYb9c7d0zgdAZHzu6qMQvRL5hajrn1n9` +
	`1CbOpbISD08qNLyrdkt-bFTWhAI4vMQFh6WeZu0fM4lFd2NcRwr3XPksINH` +
	`aQ-G_xBniIqbw0Ls1jF44-csFCur-kEgU8awapJzKnqDKgw",` +
	`"e":"AQAB",` +
	`"alg":"RS256",` +
	`"kid":"2011-04-29"}`

func TestParseKey_EC(t *testing.T) {
	key, err := ParseKey([]byte(rawECPrivateKey))
	if err != nil {
		t.Fatal(err)
	}
	if key.KeyType() != jwa.EC {
		t.Errorf("unexpected kty: %s", key.KeyType())
	}
	if key.KeyID() != "1" {
		t.Errorf("unexpected kid: %s", key.KeyID())
	}
	if key.PublicKeyUse() != jwktypes.KeyUseEnc {
		t.Errorf("unexpected use: %s", key.PublicKeyUse())
	}
	priv, ok := key.PrivateKey().(*ecdsa.PrivateKey)
	if !ok {
		t.Fatalf("unexpected private key type: %T", key.PrivateKey())
	}
	if !priv.PublicKey.Equal(key.PublicKey()) {
		t.Error("private and public keys are mismatch")
	}
}

func TestParseKey_ECPointNotOnCurve(t *testing.T) {
	// the y coordinate is tampered with.
	raw := `{"kty":"EC",` +
		`"crv":"P-256",` +
		`"x":"MKBCTNIcKUSDii11ySs3526iDZ8AiTo7Tu6KPAqv7D4",` +
		`"y":"5Etl6SRW2YiLUrN5vfvVHuhp7x8PxltmWWlbbM4IFyM"}`
	if _, err := ParseKey([]byte(raw)); !errors.Is(err, ErrMalformedKey) {
		t.Errorf("want ErrMalformedKey, got %v", err)
	}
}

func TestParseKey_RSA(t *testing.T) {
	key, err := ParseKey([]byte(rawRSAPublicKey))
	if err != nil {
		t.Fatal(err)
	}
	pub, ok := key.PublicKey().(*rsa.PublicKey)
	if !ok {
		t.Fatalf("unexpected public key type: %T", key.PublicKey())
	}
	if pub.E != 65537 {
		t.Errorf("unexpected e: %d", pub.E)
	}
	if key.Algorithm() != jwa.RS256.KeyAlgorithm() {
		t.Errorf("unexpected alg: %s", key.Algorithm())
	}
}

func TestParseKey_Oct(t *testing.T) {
	raw := `{"kty":"oct","alg":"A128KW","k":"GawgguFyGrWKav7AX4VKUg"}`
	key, err := ParseKey([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	k, ok := key.PrivateKey().([]byte)
	if !ok || len(k) != 16 {
		t.Fatalf("unexpected private key: %T, %d octets", key.PrivateKey(), len(k))
	}
}

func TestParseKey_OctSizeMismatch(t *testing.T) {
	// 16 octets is the wrong size for A256KW.
	raw := `{"kty":"oct","alg":"A256KW","k":"GawgguFyGrWKav7AX4VKUg"}`
	if _, err := ParseKey([]byte(raw)); err == nil {
		t.Error("key size mismatch should be rejected")
	}
}

func TestParseKey_OKPEd25519(t *testing.T) {
	// RFC 8037 Appendix A.1
	raw := `{"kty":"OKP","crv":"Ed25519",` +
		`"d":"nWGxne_9WmC6hEr0kuwsxERJxWl7MmkZcDusAxyuf2A",` +
		`"x":"11qYAYKxCrfVS_7TyWQHOg7hcvPapiMlrwIaaPcHURo"}`
	key, err := ParseKey([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := key.PrivateKey().(ed25519.PrivateKey); !ok {
		t.Fatalf("unexpected private key type: %T", key.PrivateKey())
	}
}

func TestParseKeyStrict(t *testing.T) {
	raw := `{"kty":"oct","k":"GawgguFyGrWKav7AX4VKUg","color":"blue"}`
	if _, err := ParseKey([]byte(raw)); err != nil {
		t.Errorf("lenient parsing should ignore unknown members: %v", err)
	}
	_, err := ParseKeyStrict([]byte(raw))
	if !errors.Is(err, ErrUnknownMember) {
		t.Errorf("want ErrUnknownMember, got %v", err)
	}
}

func TestThumbprint(t *testing.T) {
	key, err := ParseKey([]byte(rawRSAPublicKey))
	if err != nil {
		t.Fatal(err)
	}
	got, err := key.Thumbprint(sha256.New())
	if err != nil {
		t.Fatal(err)
	}
	// RFC 7638 Section 3.1
	want, _ := base64.RawURLEncoding.DecodeString("NzbLsXh8uDCcd-6MNwXF4W_7noWXFZAfHkxZsRGC9Xs")
	if !bytes.Equal(got, want) {
		t.Errorf("got %s, want NzbLsXh8uDCcd-6MNwXF4W_7noWXFZAfHkxZsRGC9Xs", base64.RawURLEncoding.EncodeToString(got))
	}
}

func TestThumbprint_InputFormInvariance(t *testing.T) {
	// member order and whitespace in the input must not change the
	// thumbprint.
	reordered := "{\n  \"e\": \"AQAB\",\n  \"kty\": \"RSA\",\n  \"n\": \"0vx7agoebGcQSuuPiLJXZptN9nndrQmbXEps2aiAFbWhM78LhWx4cbbfAAt" +
		"VT86zwu1RK7aPFFxuhDR1L6tSoc_BJECPebWKRXjBZCiFV4n3oknjhMstn6" +
		"4tZ_2W-5JsGY4Hc5n9yBXArwl93lqt7_RN5w6Cf0h4QyQ5v-65YGjQR0_FD" +
		"W2QvzqY368QQMicAtaSqzs8KJZgnYb9c7d0zgdAZHzu6qMQvRL5hajrn1n9" +
		"1CbOpbISD08qNLyrdkt-bFTWhAI4vMQFh6WeZu0fM4lFd2NcRwr3XPksINH" +
		"aQ-G_xBniIqbw0Ls1jF44-csFCur-kEgU8awapJzKnqDKgw\"\n}"
	key1, err := ParseKey([]byte(rawRSAPublicKey))
	if err != nil {
		t.Fatal(err)
	}
	key2, err := ParseKey([]byte(reordered))
	if err != nil {
		t.Fatal(err)
	}
	tp1, err := key1.Thumbprint(sha256.New())
	if err != nil {
		t.Fatal(err)
	}
	tp2, err := key2.Thumbprint(sha256.New())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(tp1, tp2) {
		t.Error("thumbprints differ")
	}
}

func TestPublic(t *testing.T) {
	key, err := ParseKey([]byte(rawECPrivateKey))
	if err != nil {
		t.Fatal(err)
	}
	pub := key.Public()
	if pub.PrivateKey() != nil {
		t.Error("public view must not contain a private key")
	}
	data, err := pub.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(data, []byte(`"d"`)) {
		t.Errorf("public view must not serialize private parameters: %s", data)
	}

	// symmetric keys have no public view.
	oct, err := ParseKey([]byte(`{"kty":"oct","k":"GawgguFyGrWKav7AX4VKUg"}`))
	if err != nil {
		t.Fatal(err)
	}
	if oct.Public() != nil {
		t.Error("symmetric keys must have no public view")
	}
}

func TestMarshalJSON_RoundTrip(t *testing.T) {
	key, err := ParseKey([]byte(rawECPrivateKey))
	if err != nil {
		t.Fatal(err)
	}
	data, err := key.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	key2, err := ParseKey(data)
	if err != nil {
		t.Fatal(err)
	}
	priv1 := key.PrivateKey().(*ecdsa.PrivateKey)
	priv2 := key2.PrivateKey().(*ecdsa.PrivateKey)
	if !priv1.Equal(priv2) {
		t.Error("round trip lost the private key")
	}
}

func TestNewPrivateKey_Symmetric(t *testing.T) {
	key, err := NewPrivateKey([]byte("secret-0123456789abcdef"))
	if err != nil {
		t.Fatal(err)
	}
	if key.KeyType() != jwa.Oct {
		t.Errorf("unexpected kty: %s", key.KeyType())
	}
}

func TestSetFind(t *testing.T) {
	raw := `{"keys":[` + rawECPublicKey + `,` + rawRSAPublicKey + `,` +
		`{"kty":"zebra","kid":"ignored"}` + // unknown kty; skipped per RFC 7517
		`]}`
	set, err := ParseSet([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	kids := make([]string, 0, len(set.Keys))
	for _, k := range set.Keys {
		kids = append(kids, k.KeyID())
	}
	if diff := cmp.Diff([]string{"1", "2011-04-29"}, kids); diff != "" {
		t.Errorf("unexpected keys (-want/+got):\n%s", diff)
	}

	if _, ok := set.Find("2011-04-29"); !ok {
		t.Error("kid 2011-04-29 is not found")
	}
	if _, ok := set.Find("no-such-kid"); ok {
		t.Error("unexpected key found")
	}

	key, ok := set.FindMatch(Filter{KeyType: jwa.RSA, Algorithm: jwa.RS256.KeyAlgorithm()})
	if !ok || key.KeyID() != "2011-04-29" {
		t.Errorf("unexpected key: %+v", key)
	}
	key, ok = set.FindMatch(Filter{KeyUse: jwktypes.KeyUseEnc})
	if !ok || key.KeyID() != "1" {
		t.Errorf("unexpected key: %+v", key)
	}
	if _, ok := set.FindMatch(Filter{KeyType: jwa.OKP}); ok {
		t.Error("unexpected key found")
	}
}
