// Package authentication stores CLI credentials in the OS keyring.
package authentication

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/zalando/go-keyring"
)

const (
	serviceName = "comichub-cli"
	tokenKey    = "auth_tokens"
	deviceKey   = "device_id"
)

// ErrNotLoggedIn is returned when no credentials are stored.
var ErrNotLoggedIn = errors.New("not logged in, run 'comichub login'")

type StoredCredentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	ExpiresAt    int64  `json:"expires_at"`
}

func StoreTokens(creds *StoredCredentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return keyring.Set(serviceName, tokenKey, string(data))
}

func GetTokens() (*StoredCredentials, error) {
	value, err := keyring.Get(serviceName, tokenKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, err
	}

	var creds StoredCredentials
	if err := json.Unmarshal([]byte(value), &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// DeleteTokens removes stored credentials; deleting nothing is not an error.
func DeleteTokens() error {
	if err := keyring.Delete(serviceName, tokenKey); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

// DeviceID returns this machine's history id, creating it on first use.
func DeviceID() (string, error) {
	id, err := keyring.Get(serviceName, deviceKey)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return "", err
	}
	id = uuid.NewString()
	if err := keyring.Set(serviceName, deviceKey, id); err != nil {
		return "", err
	}
	return id, nil
}
