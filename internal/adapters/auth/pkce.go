package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

const PKCEChallengeMethodS256 = "S256"

type PKCEPair struct {
	Verifier  string
	Challenge string
}

func NewPKCEPair() (PKCEPair, error) {
	verifier, err := randomURLSafe(32)
	if err != nil {
		return PKCEPair{}, err
	}

	return PKCEPair{
		Verifier:  verifier,
		Challenge: challengeFor(verifier),
	}, nil
}

func challengeFor(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

func randomURLSafe(n int) (string, error) {
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
