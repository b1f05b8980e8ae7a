package webhook

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	secret := "test-secret-key"
	body := []byte(`{"type":"ProjectUpdate","data":{"body":"hi"}}`)
	validSig := Sign(secret, body)

	tests := []struct {
		name      string
		secret    string
		body      []byte
		signature string
		want      bool
	}{
		{name: "valid signature", secret: secret, body: body, signature: validSig, want: true},
		{name: "zeroed signature", secret: secret, body: body, signature: strings.Repeat("0", 64), want: false},
		{name: "tampered body", secret: secret, body: []byte(`{"type":"ProjectUpdate","data":{"body":"HI"}}`), signature: validSig, want: false},
		{name: "wrong secret", secret: "other-secret", body: body, signature: validSig, want: false},
		{name: "missing signature", secret: secret, body: body, signature: "", want: false},
		{name: "missing secret", secret: "", body: body, signature: Sign("", body), want: false},
		{name: "uppercase hex is not exact", secret: secret, body: body, signature: strings.ToUpper(validSig), want: false},
		{name: "prefixed signature is not exact", secret: secret, body: body, signature: "sha256=" + validSig, want: false},
		{name: "truncated signature", secret: secret, body: body, signature: validSig[:32], want: false},
		{name: "not hex", secret: secret, body: body, signature: "not-valid-hex", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Verify(tt.secret, tt.body, tt.signature))
		})
	}
}

func TestVerify_RoundTrip(t *testing.T) {
	secrets := []string{"s", "a much longer secret with spaces", "ünïcødé"}
	bodies := [][]byte{{}, []byte("x"), []byte(`{"a":1}`), []byte(strings.Repeat("payload ", 1000))}

	for _, secret := range secrets {
		for _, body := range bodies {
			assert.True(t, Verify(secret, body, Sign(secret, body)))
		}
	}
}

func TestVerify_RawBytesOnly(t *testing.T) {
	secret := "test-secret"
	raw := []byte(`{ "b": 2,  "a": 1 }`)
	sig := Sign(secret, raw)

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(raw, &decoded))
	reencoded, err := json.Marshal(decoded)
	require.NoError(t, err)

	assert.True(t, Verify(secret, raw, sig))
	assert.False(t, Verify(secret, reencoded, sig), "re-serialized JSON must not verify")
}

func TestSign(t *testing.T) {
	// RFC 4231 test case 2.
	got := Sign("Jefe", []byte("what do ya want for nothing?"))
	assert.Equal(t, "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843", got)
}
