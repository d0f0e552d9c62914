package jwe

import (
	"bytes"
	"context"
	"encoding/base64"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/josekit/jose/jwa"
	_ "github.com/josekit/jose/jwa/acbc" // for AES-CBC-HMAC-SHA2
	_ "github.com/josekit/jose/jwa/agcm" // for AES-GCM
	_ "github.com/josekit/jose/jwa/ecdhes"
	_ "github.com/josekit/jose/jwa/pbes2"
	_ "github.com/josekit/jose/jwa/rsapkcs1v15"
	"github.com/josekit/jose/jwk"
)

// the plaintext used throughout RFC 7520 Section 5.
const cookbookPlaintext = "You can trust us to stick with you through thick and " +
	"thin–to the bitter end. And you can trust us to " +
	"keep any secret of yours–closer than you keep it " +
	"yourself. But you cannot trust us to let you face trouble " +
	"alone, and go off without a word. We are your friends, Frodo."

// RFC 7520 Figure 84: the RSA (1,5) encryption key.
const cookbookRSAKey = `{` +
	`"kty": "RSA",` +
	`"kid": "frodo.baggins@hobbiton.example",` +
	`"use": "enc",` +
	`"n": "maxhbsmBtdQ3CNrKvprUE6n9lYcregDMLYNeTAWcLj8NnPU9XIYegTHVHQjxKDSHP2l-F5jS7sppG1wgdAqZyhnWvXhYNvcM7RfgKxqNx_xAHx6f3yy7s-M9PSNCwPC2lh6UAkR4I00EhV9lrypM9Pi4lBUop9t5fS9W5UNwaAllhrd-osQGPjIeI1deHTwx-ZTHu3C60Pu_LJIl6hKn9wbwaUmA4cR5Bd2pgbaY7ASgsjCUbtYJaNIHSoHXprUdJZKUMAzV0WOKPfA6OPI4oypBadjvMZ4ZAj3BnXaSYsEZhaueTXvZB4eZOAjIyh2e_VOIKVMsnDrJYAVotGlvMQ",` +
	`"e": "AQAB",` +
	`"d": "BBRVJs9_G8BVMK08NhiemiIIWwySTSQRx4CGA48fkQO3_QtulFL0ItpbjbCD1F0mnPqUMBSsvs2NQj5tFx-D6x9J-dAkyVrAE1gvqX1EN8OcwSa7OD20Aue8o6-YsU4CjtQjejbumINOJCs-5ApDrjofDkFMib40CKx1ylLCvGQ-5Y3ofx4bwfcwb9xOpNwqi9W_Z-D16_V1YhE8n3mXoTVqH292zSWBOrBaj8aHeZu4ZWOUv_srk20T2NgfCz02O548uUToU_dXDH7oiP7s6zZL7goeIhieb2CyhSTuWEvf559Uasww7Wnnq-8ht8gtCS0cO4kYrYgEQoNMe_fJxQ",` +
	`"p": "2DwQmZ43FoTnQ8IkUj3BmKRf5Eh2mizZA5xEJ2MinUE3sdTYKSLtaEoekX9vbBZuWxHdVhM6UnKCJ_2iNk8Z0ayLYHL0_G21aXf9-unynEpUsH7HHTklLpYAzOOx1ZgVljoxAdWNn3hiEFrjZLZGS7lOH-a3QQlDDQoJOJ2VFmU",` +
	`"q": "te8LY4-W7IyaqH1ExujjMqkTAlTeRbv0VLQnfLY2xINnrWdwiQ93_VF099aP1ESeLja2nw-6iKIe-qT7mtCPozKfVtUYfz5HrJ_XY2kfexJINb9lhZHMv5p1skZpeIS-GPHCC6gRlKo1q-idn_qxyusfWv7WAxlSVfQfk8d6Et0",` +
	`"dp": "UfYKcL_or492vVc0PzwLSplbg4L3-Z5wL48mwiswbpzOyIgd2xHTHQmjJpFAIZ8q-zf9RmgJXkDrFs9rkdxPtAsL1WYdeCT5c125Fkdg317JVRDo1inX7x2Kdh8ERCreW8_4zXItuTl_KiXZNU5lvMQjWbIw2eTx1lpsflo0rYU",` +
	`"dq": "iEgcO-QfpepdH8FWd7mUFyrXdnOkXJBCogChY6YKuIHGc_p8Le9MbpFKESzEaLlN1Ehf3B6oGBl5Iz_ayUlZj2IoQZ82znoUrpa9fVYNot87ACfzIG7q9Mv7RiPAderZi03tkVXAdaBau_9vs5rS-7HMtxkVrxSUvJY14TkXlHE",` +
	`"qi": "kC-lzZOqoFaZCr5l0tOVtREKoVqaAYhQiqIRGL-MzS4sCmRkxm5vZlXYx6RtE1n_AagjqajlkjieGlxTTThHD8Iga6foGBMaAr5uR1hGQpSc7Gl7CF1DZkBJMTQN6EshYzZfxW08mIO8M6Rzuh0beL6fG9mkDcIyPrBXx2bQ_mM"` +
	`}`

func b64d(t *testing.T, s string) []byte {
	t.Helper()
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// RFC 7520 Section 5.1: key encryption using RSA v1.5 and
// AES-HMAC-SHA2. RSA1_5 is randomized, so the encrypted key part is
// not reproducible; the header, IV, ciphertext, and tag are.
func TestRFC7520_RSA1_5_A128CBCHS256(t *testing.T) {
	key, err := jwk.ParseKey([]byte(cookbookRSAKey))
	if err != nil {
		t.Fatal(err)
	}

	wantProtected := "eyJhbGciOiJSU0ExXzUiLCJraWQiOiJmcm9kby5iYWdnaW5zQGhvYmJpdG9uLmV4" +
		"YW1wbGUiLCJlbmMiOiJBMTI4Q0JDLUhTMjU2In0"

	protected := NewHeader()
	protected.SetAlgorithm(jwa.RSA1_5)
	protected.SetKeyID("frodo.baggins@hobbiton.example")

	e := &Encrypter{
		Encryption:           jwa.A128CBC_HS256,
		ContentEncryptionKey: b64d(t, "3qyTVhIWt5juqZUCpfRqpvauwB956MEJL2Rt-8qXKSo"),
		InitializationVector: b64d(t, "bbd5sTkYwhAIqfHsx8DayA"),
	}
	msg, err := e.Encrypt(jwa.RSA1_5.New().NewKeyWrapper(key), protected, []byte(cookbookPlaintext))
	if err != nil {
		t.Fatal(err)
	}

	if string(msg.b64protected) != wantProtected {
		t.Errorf("protected header mismatch:\ngot  %s\nwant %s", msg.b64protected, wantProtected)
	}

	// with the reference CEK and IV, the ciphertext and tag reproduce
	// the reference verbatim.
	wantCiphertext := "0fys_TY_na7f8dwSfXLiYdHaA2DxUjD67ieF7fcVbIR62JhJvGZ4_FNVSiGc_raa" +
		"0HnLQ6s1P2sv3Xzl1p1l_o5wR_RsSzrS8Z-wnI3Jvo0mkpEEnlDmZvDu_k8OWzJv" +
		"7eZVEqiWKdyVzFhPpiyQU28GLOpRc2VbVbK4dQKPdNTjPPEmRqcaGeTWZVyeSUvf" +
		"5k59yJZxRuSvWFf6KrNtmRdZ8R4mDOjHSrM_s8uwIFcqt4r5GX8TKaI0zT5CbL5Q" +
		"lw3sRc7u_hg0yKVOiRytEAEs3vZkcfLkP6nbXdC_PkMdNS-ohP78T2O6_7uInMGh" +
		"FeX4ctHG7VelHGiT93JfWDEQi5_V9UN1rhXNrYu-0fVMkZAKX3VWi7lzA6BP430m"
	if got := string(msg.b64ciphertext); got != wantCiphertext {
		t.Errorf("ciphertext mismatch:\ngot  %s\nwant %s", got, wantCiphertext)
	}
	if got := string(msg.b64tag); got != "kvKuFBXHe5mQr4lqgobAUg" {
		t.Errorf("tag mismatch: got %s", got)
	}

	// the same CEK and IV decrypt the produced message.
	got, err := decrypter(key).Decrypt(context.Background(), msg)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != cookbookPlaintext {
		t.Errorf("round trip failed: %q", got)
	}

	// two encryptions differ (fresh RSA1_5 randomness) but both decrypt.
	msg2, err := e.Encrypt(jwa.RSA1_5.New().NewKeyWrapper(key), protected, []byte(cookbookPlaintext))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(msg.encryptedKey, msg2.encryptedKey) {
		t.Error("RSA1_5 is randomized; two encrypted keys must differ")
	}
	if !bytes.Equal(msg.ciphertext, msg2.ciphertext) || !bytes.Equal(msg.tag, msg2.tag) {
		t.Error("with a fixed CEK and IV, ciphertext and tag are deterministic")
	}
}

// RFC 7520 Section 5.3: key wrap using PBES2 and AES-KW, content
// encrypted with AES_128_CBC_HMAC_SHA_256. With the reference salt,
// count, CEK, and IV the entire serialization is reproducible.
func TestRFC7520_PBES2(t *testing.T) {
	// the plaintext of this example is a JWK Set.
	plaintext := `{"keys":[` +
		`{"kty":"oct","kid":"77c7e2b8-6e13-45cf-8672-617b5b45243a",` +
		`"use":"enc","alg":"A128GCM","k":"XctOhJAkA-pD9Lh7ZgW_2A"},` +
		`{"kty":"oct","kid":"81b20965-8332-43d9-a468-82160ad91ac8",` +
		`"use":"enc","alg":"A128KW","k":"GZy6sIZ6wl9NJOKB-jnmVQ"},` +
		`{"kty":"oct","kid":"18ec08e1-bfa9-4d95-b205-2b4dd1d4321d",` +
		`"use":"enc","alg":"A256GCMKW","k":"qC57l_uxcm7Nm3K-ct4GFjx8tM1U8CZ0NLBvdQstiS8"}]}`

	password, err := jwk.NewPrivateKey([]byte("entrap_o_peter_long_credit_tun"))
	if err != nil {
		t.Fatal(err)
	}

	protected := NewHeader()
	protected.SetAlgorithm(jwa.PBES2_HS256_A128KW)
	protected.SetPBES2SaltInput(b64d(t, "8Q1SzinasR3xchYz6ZZcHA"))
	protected.SetPBES2Count(8192)
	protected.SetContentType("jwk-set+json")

	e := &Encrypter{
		Encryption:           jwa.A128CBC_HS256,
		ContentEncryptionKey: b64d(t, "uwsjJXaBK407Qaf0_zpcpmr1Cs0CC50hIUEyGNEt3m0"),
		InitializationVector: b64d(t, "VBiCzVHNoLiR3F4V82uoTQ"),
	}
	msg, err := e.Encrypt(jwa.PBES2_HS256_A128KW.New().NewKeyWrapper(password), protected, []byte(plaintext))
	if err != nil {
		t.Fatal(err)
	}

	// the serialized protected header reproduces the authoring order:
	// alg, p2s, p2c, cty, enc.
	wantProtected := `{"alg":"PBES2-HS256+A128KW","p2s":"8Q1SzinasR3xchYz6ZZcHA",` +
		`"p2c":8192,"cty":"jwk-set+json","enc":"A128CBC-HS256"}`
	if string(msg.rawProtected) != wantProtected {
		t.Errorf("protected header mismatch:\ngot  %s\nwant %s", msg.rawProtected, wantProtected)
	}
	wantProtectedB64 := "eyJhbGciOiJQQkVTMi1IUzI1NitBMTI4S1ciLCJwMnMiOiI4UTFTemluYXNSM3hj" +
		"aFl6NlpaY0hBIiwicDJjIjo4MTkyLCJjdHkiOiJqd2stc2V0K2pzb24iLCJlbmMi" +
		"OiJBMTI4Q0JDLUhTMjU2In0"
	if string(msg.b64protected) != wantProtectedB64 {
		t.Errorf("encoded protected header mismatch:\ngot  %s\nwant %s", msg.b64protected, wantProtectedB64)
	}

	// deterministic inputs, deterministic wire form.
	// every part is deterministic once the password, salt, count, CEK,
	// and IV are fixed; the whole serialization reproduces verbatim.
	wantCompact := wantProtectedB64 +
		".YKbKLsEoyw_JoNvhtuHo9aaeRNSEhhAW2OVHcuF_HLqS0n6hA_fgCA" +
		".VBiCzVHNoLiR3F4V82uoTQ" +
		"." +
		"23i-Tb1AV4n0WKVSSgcQrdg6GRqsUKxjruHXYsTHAJLZ2nsnGIX86vMXqIi6IRsf" +
		"ywCRFzLxEcZBRnTvG3nhzPk0GDD7FMyXhUHpDjEYCNA_XOmzg8yZR9oyjo6lTF6s" +
		"i4q9FZ2EhzgFQCLO_6h5EVg3vR75_hkBsnuoqoM3dwejXBtIodN84PeqMb6asmas" +
		"_dpSsz7H10fC5ni9xIz424givB1YLldF6exVmL93R3fOoOJbmk2GBQZL_SEGllv2" +
		"cQsBgeprARsaQ7Bq99tT80coH8ItBjgV08AtzXFFsx9qKvC982KLKdPQMTlVJKkq" +
		"tV4Ru5LEVpBZXBnZrtViSOgyg6AiuwaS-rCrcD_ePOGSuxvgtrokAKYPqmXUeRdj" +
		"FJwafkYEkiuDCV9vWGAi1DH2xTafhJwcmywIyzi4BqRpmdn_N-zl5tuJYyuvKhjK" +
		"v6ihbsV_k1hJGPGAxJ6wUpmwC4PTQ2izEm0TuSE8oMKdTw8V3kobXZ77ulMwDs4p" +
		".ALTKwxvAefeL-32NY7eTAQ"
	compact, err := msg.Compact()
	if err != nil {
		t.Fatal(err)
	}
	if string(compact) != wantCompact {
		t.Errorf("compact serialization mismatch:\ngot  %s\nwant %s", compact, wantCompact)
	}

	// the produced message decrypts back to the JWK Set, and the set
	// parses.
	got, err := decrypter(password).Decrypt(context.Background(), msg)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(plaintext, string(got)); diff != "" {
		t.Errorf("unexpected plaintext (-want/+got):\n%s", diff)
	}
	set, err := jwk.ParseSet(got)
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Keys) != 3 {
		t.Errorf("unexpected number of keys: %d", len(set.Keys))
	}
}

// RFC 7520 Section 5.4: key agreement with key wrapping using
// ECDH-ES+A128KW. The reference encrypted key unwraps to the reference
// CEK with the epk from the reference header.
func TestRFC7520_ECDHESA128KW_CEKRecovery(t *testing.T) {
	rawKey := `{` +
		`"kty": "EC",` +
		`"kid": "peregrin.took@tuckborough.example",` +
		`"use": "enc",` +
		`"crv": "P-384",` +
		`"x": "YU4rRUzdmVqmRtWOs2OpDE_T5fsNIodcG8G5FWPrTPMyxpzsSOGaQLpe2FpxBmu2",` +
		`"y": "A8-yxCHxkfBz3hKZfI1jUYMjUhsEveZ9THuwFjH2sCNdtksRJU7D5-SkgaFL1ETP",` +
		`"d": "iTx2pk7wW-GqJkHcEkFQb2EFyYcO7RugmaW3mRrQVAOUiPommT0IdnYK2xDlZh-j"` +
		`}`
	key, err := jwk.ParseKey([]byte(rawKey))
	if err != nil {
		t.Fatal(err)
	}

	// the protected header of the reference serialization.
	rawHeader := `{"alg":"ECDH-ES+A128KW",` +
		`"kid":"peregrin.took@tuckborough.example",` +
		`"epk":{"kty":"EC","crv":"P-384",` +
		`"x":"uBo4kHPw6kbjx5l0xowrd_oYzBmaz-GKFZu4xAFFkbYiWgutEK6iuEDsQ6wNdNg3",` +
		`"y":"sp3p5SGhZVC2faXumI-e9JU2Mo8KpoYrFDr5yPNVtW4PgEwZOyQTA-JdaY8tb7E0"},` +
		`"enc":"A128GCM"}`
	var h Header
	if err := h.UnmarshalJSON([]byte(rawHeader)); err != nil {
		t.Fatal(err)
	}

	encryptedKey := b64d(t, "2QGmDGc9q2CBPYIG10_3mwOJoPQ6iqoX")
	wantCEK := b64d(t, "_Tm_fqSViyOGQVK-aPJTIQ")

	opts := &decryptOptions{
		Header:  &h,
		cekSize: 16,
	}
	kw := jwa.ECDH_ES_A128KW.New().NewKeyWrapper(key)
	cek, err := kw.UnwrapKey(encryptedKey, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(cek, wantCEK) {
		t.Errorf("recovered CEK mismatch:\ngot  %x\nwant %x", cek, wantCEK)
	}
}
