// Package secrets resolves credentials from the OS keychain. Nothing
// secret ever lands in the YAML config.
package secrets

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// Service groups this app's entries in the OS keychain.
const Service = "jobqst"

const (
	anthropicAccount = "anthropic-api-key"

	// EnvAnthropicAPIKey overrides the keychain when set, which keeps
	// headless and CI environments workable without a keyring daemon.
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
)

// IMAPAccount derives the keychain account name for an email source,
// so two mailboxes never collide.
func IMAPAccount(username, addr string) string {
	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}
	return fmt.Sprintf("imap:%s@%s", username, host)
}

func GetIMAPPassword(account string) (string, error) {
	if strings.TrimSpace(account) == "" {
		return "", errors.New("keyring account name is empty")
	}
	pw, err := keyring.Get(Service, account)
	if err != nil || strings.TrimSpace(pw) == "" {
		return "", fmt.Errorf("IMAP password not found for %s: run `jobqst secret set-imap`", account)
	}
	return pw, nil
}

func SetIMAPPassword(account, password string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(Service, account, password)
}

func DeleteIMAPPassword(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(Service, account)
}

// GetAnthropicKey prefers the environment, then the keychain.
func GetAnthropicKey() (string, error) {
	if k := strings.TrimSpace(os.Getenv(EnvAnthropicAPIKey)); k != "" {
		return k, nil
	}
	k, err := keyring.Get(Service, anthropicAccount)
	if err != nil || strings.TrimSpace(k) == "" {
		return "", fmt.Errorf("Anthropic API key not found: run `jobqst secret set-anthropic` or set %s", EnvAnthropicAPIKey)
	}
	return k, nil
}

func SetAnthropicKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("API key is empty")
	}
	return keyring.Set(Service, anthropicAccount, key)
}

func DeleteAnthropicKey() error {
	return keyring.Delete(Service, anthropicAccount)
}
