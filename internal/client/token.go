package client

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

type tokenData struct {
	Token   string `json:"token"`
	BaseURL string `json:"base_url,omitempty"`
}

func DefaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.leadaudit-token.json"
	}
	return filepath.Join(home, ".leadaudit", "token.json")
}

func SaveToken(path, baseURL, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tokenData{Token: token, BaseURL: baseURL}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// ReadToken returns the saved token and the API it was issued by.
func ReadToken(path string) (token, baseURL string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return "", "", err
	}
	return strings.TrimSpace(td.Token), td.BaseURL, nil
}

func ClearToken(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
