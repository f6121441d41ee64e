// Package jwkset signs RS256 tokens and encodes or decodes RSA JSON Web Key
// sets. The dev token issuer and the verifier tests share it.
package jwkset

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"
)

var ErrNoUsableKeys = errors.New("no usable jwks keys")

var b64 = base64.RawURLEncoding

type Keypair struct {
	Kid     string
	Private *rsa.PrivateKey
}

func GenerateKeypair(kid string) (Keypair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return Keypair{}, err
	}
	return Keypair{Kid: kid, Private: priv}, nil
}

type jwk struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type set struct {
	Keys []jwk `json:"keys"`
}

// Marshal encodes the public halves of keys as a JWKS document.
func Marshal(keys ...Keypair) ([]byte, error) {
	out := set{Keys: make([]jwk, 0, len(keys))}
	for _, kp := range keys {
		pub := kp.Private.PublicKey
		out.Keys = append(out.Keys, jwk{
			Kty: "RSA",
			Use: "sig",
			Alg: "RS256",
			Kid: kp.Kid,
			N:   b64.EncodeToString(pub.N.Bytes()),
			E:   b64.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		})
	}
	return json.Marshal(out)
}

// Parse decodes a JWKS document into RSA public keys by kid. Non-RSA and
// incomplete entries are skipped.
func Parse(b []byte) (map[string]*rsa.PublicKey, error) {
	var s set
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}
	out := make(map[string]*rsa.PublicKey, len(s.Keys))
	for _, k := range s.Keys {
		if k.Kty != "RSA" || k.Kid == "" || k.N == "" || k.E == "" {
			continue
		}
		nb, err := b64.DecodeString(k.N)
		if err != nil {
			return nil, fmt.Errorf("jwk %s modulus: %w", k.Kid, err)
		}
		eb, err := b64.DecodeString(k.E)
		if err != nil {
			return nil, fmt.Errorf("jwk %s exponent: %w", k.Kid, err)
		}
		e := new(big.Int).SetBytes(eb)
		if !e.IsInt64() || e.Int64() <= 0 || e.Int64() > int64(^uint32(0)>>1) {
			return nil, fmt.Errorf("jwk %s: invalid exponent", k.Kid)
		}
		out[k.Kid] = &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: int(e.Int64())}
	}
	if len(out) == 0 {
		return nil, ErrNoUsableKeys
	}
	return out, nil
}

// Token describes the claims of a token to sign.
type Token struct {
	Issuer string
	// Audience is a string or a []string.
	Audience any
	Subject  string

	Email   string
	Name    string
	Picture string

	IssuedAt  time.Time
	ExpiresIn time.Duration
	// NotBefore is relative to IssuedAt; nil omits the claim.
	NotBefore *time.Duration
}

// Sign produces a compact RS256 JWT for t.
func Sign(kp Keypair, t Token) (string, error) {
	header := map[string]any{"alg": "RS256", "typ": "JWT", "kid": kp.Kid}
	claims := map[string]any{
		"iss": t.Issuer,
		"aud": t.Audience,
		"sub": t.Subject,
		"iat": t.IssuedAt.Unix(),
		"exp": t.IssuedAt.Add(t.ExpiresIn).Unix(),
	}
	if t.NotBefore != nil {
		claims["nbf"] = t.IssuedAt.Add(*t.NotBefore).Unix()
	}
	for k, v := range map[string]string{"email": t.Email, "name": t.Name, "picture": t.Picture} {
		if v != "" {
			claims[k] = v
		}
	}

	hb, err := json.Marshal(header)
	if err != nil {
		return "", err
	}
	cb, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	signingInput := b64.EncodeToString(hb) + "." + b64.EncodeToString(cb)
	sum := sha256.Sum256([]byte(signingInput))
	sig, err := rsa.SignPKCS1v15(rand.Reader, kp.Private, crypto.SHA256, sum[:])
	if err != nil {
		return "", err
	}
	return signingInput + "." + b64.EncodeToString(sig), nil
}
