package token

import (
	"crypto/rsa"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Signer signs and verifies JWT token values.
type Signer interface {
	Sign(claims jwt.MapClaims) (string, error)

	// GetVerificationKey returns the key to verify a parsed token,
	// rejecting unexpected algorithms.
	GetVerificationKey(token *jwt.Token) (any, error)
}

// HMACSigner signs with symmetric HMAC-SHA256.
type HMACSigner struct {
	secret []byte
}

func NewHMACSigner(secret string) *HMACSigner {
	return &HMACSigner{secret: []byte(secret)}
}

func (h *HMACSigner) Sign(claims jwt.MapClaims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", errors.Wrap(err, "[HMACSigner.Sign] SignedString")
	}
	return signed, nil
}

func (h *HMACSigner) GetVerificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return h.secret, nil
}

// RSASigner signs with RS256.
type RSASigner struct {
	key   *rsa.PrivateKey
	keyID string
}

func NewRSASigner(key *rsa.PrivateKey, keyID string) *RSASigner {
	return &RSASigner{key: key, keyID: keyID}
}

func (r *RSASigner) Sign(claims jwt.MapClaims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if r.keyID != "" {
		tok.Header["kid"] = r.keyID
	}
	signed, err := tok.SignedString(r.key)
	if err != nil {
		return "", errors.Wrap(err, "[RSASigner.Sign] SignedString")
	}
	return signed, nil
}

func (r *RSASigner) GetVerificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return &r.key.PublicKey, nil
}
