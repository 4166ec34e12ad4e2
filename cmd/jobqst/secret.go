package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NirajanKhadka/JobQst-sub000/internal/config"
	"github.com/NirajanKhadka/JobQst-sub000/internal/secrets"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage credentials in the OS keychain",
	Long: "Credentials never live in the config file. set-imap and\n" +
		"set-anthropic read the value from stdin so it stays out of your\n" +
		"shell history.",
}

var secretSetIMAPCmd = &cobra.Command{
	Use:   "set-imap",
	Short: "Store the IMAP app password for the configured email account",
	RunE:  runSecretSetIMAP,
}

var secretClearIMAPCmd = &cobra.Command{
	Use:   "clear-imap",
	Short: "Remove the stored IMAP password",
	RunE:  runSecretClearIMAP,
}

var secretSetAnthropicCmd = &cobra.Command{
	Use:   "set-anthropic",
	Short: "Store the Anthropic API key for the claude backend",
	RunE:  runSecretSetAnthropic,
}

var secretClearAnthropicCmd = &cobra.Command{
	Use:   "clear-anthropic",
	Short: "Remove the stored Anthropic API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := secrets.DeleteAnthropicKey(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "anthropic key removed")
		return nil
	},
}

func init() {
	secretCmd.AddCommand(secretSetIMAPCmd, secretClearIMAPCmd, secretSetAnthropicCmd, secretClearAnthropicCmd)
	rootCmd.AddCommand(secretCmd)
}

// imapAccount resolves the keychain account from the config on disk.
// Validation errors elsewhere in the config are ignored so a broken
// term list or similar can't stop you from fixing credentials.
func imapAccount() (string, error) {
	cfg, _, err := loadRaw()
	if err != nil {
		return "", err
	}
	norm, _ := config.NormalizeAndValidate(cfg)
	ea := norm.Scrape.EmailAlert
	if strings.TrimSpace(ea.Username) == "" {
		return "", errors.New("scrape.email_alert.username is empty in the config")
	}
	return secrets.IMAPAccount(ea.Username, ea.Addr), nil
}

func runSecretSetIMAP(cmd *cobra.Command, args []string) error {
	account, err := imapAccount()
	if err != nil {
		return err
	}
	pw, err := readSecret(cmd, fmt.Sprintf("IMAP app password for %s: ", account))
	if err != nil {
		return err
	}
	if err := secrets.SetIMAPPassword(account, pw); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stored %s\n", account)
	return nil
}

func runSecretClearIMAP(cmd *cobra.Command, args []string) error {
	account, err := imapAccount()
	if err != nil {
		return err
	}
	if err := secrets.DeleteIMAPPassword(account); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", account)
	return nil
}

func runSecretSetAnthropic(cmd *cobra.Command, args []string) error {
	key, err := readSecret(cmd, "Anthropic API key: ")
	if err != nil {
		return err
	}
	if err := secrets.SetAnthropicKey(key); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "anthropic key stored")
	return nil
}

// readSecret prompts on stderr and reads one line from stdin, so the
// value can be piped in and never lands in shell history.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}
