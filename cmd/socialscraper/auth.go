package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"socialscraper/pkg/auth"
)

// stdin is shared by every prompt
var stdin = bufio.NewReader(os.Stdin)

var (
	authAccessToken    string
	authConsumerKey    string
	authConsumerSecret string
	authBearerToken    string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API credentials",
	Long: `Manage the API credentials of each network.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read only)

Values in the config file or SOCIALSCRAPER_* variables take precedence
over stored credentials.`,
}

var authSetCmd = &cobra.Command{
	Use:       "set <network>",
	Short:     "Store the API credentials of a network",
	Long:      `Store API credentials. Missing values are prompted for, with hidden input.`,
	Example:   "  socialscraper auth set instagram\n  socialscraper auth set twitter --bearer-token AAAA...",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: auth.Networks,
	RunE:      runAuthSet,
}

var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credentials, masked",
	RunE:  runAuthList,
}

var authDeleteCmd = &cobra.Command{
	Use:       "delete <network>",
	Short:     "Remove the stored credentials of a network",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: auth.Networks,
	RunE:      runAuthDelete,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(authDeleteCmd)

	authSetCmd.Flags().StringVar(&authAccessToken, "access-token", "", "Instagram access token")
	authSetCmd.Flags().StringVar(&authConsumerKey, "consumer-key", "", "Twitter consumer key")
	authSetCmd.Flags().StringVar(&authConsumerSecret, "consumer-secret", "", "Twitter consumer secret")
	authSetCmd.Flags().StringVar(&authBearerToken, "bearer-token", "", "Twitter application bearer token")
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	creds := &auth.Credentials{
		Network:        args[0],
		AccessToken:    authAccessToken,
		ConsumerKey:    authConsumerKey,
		ConsumerSecret: authConsumerSecret,
		BearerToken:    authBearerToken,
	}

	if creds.Validate() != nil {
		if err := auth.WriteCredentialGuide(os.Stdout, creds.Network); err != nil {
			return err
		}
		if err := promptCredentials(creds); err != nil {
			return err
		}
	}

	if existing, _ := manager.Retrieve(creds.Network); existing != nil && !existing.LastModified.IsZero() {
		if !confirm(fmt.Sprintf("\n⚠️  Credentials for %s already exist. Replace them?", creds.Network)) {
			return nil
		}
	}

	if err := manager.Store(creds); err != nil {
		return err
	}
	printer().Success(fmt.Sprintf("Stored %s credentials.", creds.Network))
	return nil
}

// promptCredentials asks for the secrets the network still needs
func promptCredentials(creds *auth.Credentials) error {
	var err error
	switch creds.Network {
	case auth.NetworkInstagram:
		creds.AccessToken, err = readSecret("Access token")
	case auth.NetworkTwitter:
		if creds.ConsumerKey, err = readSecret("Consumer key (empty to use a bearer token)"); err != nil {
			return err
		}
		if creds.ConsumerKey == "" {
			creds.BearerToken, err = readSecret("Bearer token")
		} else {
			creds.ConsumerSecret, err = readSecret("Consumer secret")
		}
	}
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}
	return creds.Validate()
}

func runAuthList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	list, err := manager.List()
	if err != nil {
		return err
	}
	printer().Credentials(list)
	return nil
}

func runAuthDelete(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if err := manager.Delete(args[0]); err != nil {
		return err
	}
	printer().Success(fmt.Sprintf("Removed %s credentials.", args[0]))
	return nil
}

// readSecret reads a line without echo when stdin is a terminal
func readSecret(label string) (string, error) {
	fmt.Printf("%s: ", label)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := stdin.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
