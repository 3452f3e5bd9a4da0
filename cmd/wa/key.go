package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"wa-go/internal/app"
	"wa-go/internal/config"
	"wa-go/internal/keystore"
	"wa-go/internal/migrate"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// PassphraseEnv supplies the key file passphrase when stdin is not a terminal.
const PassphraseEnv = "WA_KEY_PASSPHRASE"

// unlockKey fills in the key from the sealed key file when neither the
// command line nor the config file set one. The configured key_file wins over
// the default location; a missing default file is not an error.
func unlockKey(st *config.Settings, defaultKeyFile string) (*config.Settings, error) {
	if st.Key() != "" {
		return st, nil
	}

	ks := keystore.NewKeystore(st.KeyFile())
	if st.KeyFile() == "" {
		ks = keystore.NewKeystore(defaultKeyFile)
		if !ks.Exists() {
			return st, nil
		}
	}

	passphrase, err := readPassphrase(fmt.Sprintf("Passphrase for %s: ", ks.Path()))
	if err != nil {
		return nil, err
	}
	key, err := ks.Open(passphrase)
	if err != nil {
		return nil, fmt.Errorf("unlocking key file: %w", err)
	}
	return st.WithKey(key), nil
}

// readPassphrase takes the passphrase from the environment or prompts on the
// terminal without echo.
func readPassphrase(prompt string) (string, error) {
	if p := os.Getenv(PassphraseEnv); p != "" {
		return p, nil
	}
	return readSecret(prompt)
}

func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("cannot prompt for %q: stdin is not a terminal (set %s)", strings.TrimSpace(prompt), PassphraseEnv)
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// key command
var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the sealed decryption key",
}

var keySealCmd = &cobra.Command{
	Use:   "seal",
	Short: "Store the 64-hex key encrypted with a passphrase",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			defaults, err := app.GetDefaults()
			if err != nil {
				return fmt.Errorf("failed to get defaults: %w", err)
			}
			out = defaults["key_file"]
		}

		key := globalFlags.key
		if key == "" {
			var err error
			if key, err = readSecret("Key (64 hex characters): "); err != nil {
				return err
			}
		}
		if !migrate.ValidKey(key) {
			return keystore.ErrInvalidKey
		}

		passphrase := os.Getenv(PassphraseEnv)
		if passphrase == "" {
			first, err := readSecret("New passphrase: ")
			if err != nil {
				return err
			}
			second, err := readSecret("Repeat passphrase: ")
			if err != nil {
				return err
			}
			if first != second {
				return errors.New("passphrases do not match")
			}
			passphrase = first
		}

		if err := keystore.NewKeystore(out).Seal(key, passphrase); err != nil {
			return fmt.Errorf("sealing key: %w", err)
		}
		fmt.Printf("Key sealed at %s\n", out)
		fmt.Println("Set key_file in the config to use it from another location.")
		return nil
	},
}

func init() {
	keyCmd.AddCommand(keySealCmd)
	keySealCmd.Flags().String("out", "", "Key file to write (default $WA_HOME/key.age)")
}
