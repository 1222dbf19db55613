package application

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bnema/amplify-rest-cli/internal/domain"
)

func DecodeTokens(secretValue string) (domain.Tokens, error) {
	var tokens domain.Tokens
	if err := json.Unmarshal([]byte(secretValue), &tokens); err != nil {
		return domain.Tokens{}, fmt.Errorf("decode session tokens: %w", err)
	}
	if strings.TrimSpace(tokens.AccessToken) == "" {
		return domain.Tokens{}, fmt.Errorf("session tokens missing access_token")
	}
	return tokens, nil
}

func EncodeTokens(tokens domain.Tokens) (string, error) {
	payload, err := json.Marshal(tokens)
	if err != nil {
		return "", fmt.Errorf("encode session tokens: %w", err)
	}
	return string(payload), nil
}
