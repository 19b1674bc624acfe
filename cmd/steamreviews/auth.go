package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"steamreviews/pkg/auth"
	"steamreviews/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Steam Web API keys",
	Long: `Manage stored Steam Web API keys.

Keys are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - STEAMREVIEWS_API_KEY environment variable (read-only)

A key is optional: the public review feed works without one.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store a Steam Web API key securely",
	Long: `Store a Steam Web API key in the system keychain or an encrypted file.

The key is stored under the given name, or "default" when none is given.
You will be prompted for the key; it is not echoed.`,
	Example: `  # Store the default key
  steamreviews auth login

  # Store a second key under a name
  steamreviews auth login work`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove stored keys",
	Long: `Remove a stored Steam Web API key.

If no name is provided, you will be shown a list of stored keys to choose
from. You can also remove all keys at once.`,
	Example: `  # Interactive logout
  steamreviews auth logout

  # Remove a specific key
  steamreviews auth logout work`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored keys",
	Long:  `List all stored Steam Web API keys with the keys masked.`,
	Run:   runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	name := auth.DefaultAccount
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}
	if name == auth.EnvAccount {
		ui.PrintError("Reserved name", fmt.Sprintf("%q refers to %s", auth.EnvAccount, auth.APIKeyEnv))
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)

	auth.ShowQuickGuide()
	fmt.Println()

	if existing, _ := manager.Retrieve(name); existing != nil && existing.Name == name {
		fmt.Printf("⚠️  Key '%s' already exists. Replace it? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	var apiKey string
	for {
		fmt.Print("🔐 Steam Web API key: ")
		apiKey, err = readSecret(reader)
		if err != nil {
			ui.PrintError("Failed to read API key", err.Error())
			os.Exit(1)
		}

		if strings.EqualFold(apiKey, "help") {
			auth.ShowAPIKeyGuide()
			continue
		}

		if !auth.ValidAPIKey(apiKey) {
			fmt.Println("\n❌ That doesn't look like a Steam Web API key.")
			fmt.Println("   It should be 32 hexadecimal characters.")
			fmt.Print("\nTry again? (Y/n): ")
			retry, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(retry)) == "n" {
				os.Exit(1)
			}
			continue
		}
		break
	}

	account := &auth.Account{
		Name:   name,
		APIKey: apiKey,
	}

	fmt.Println("\n💾 Storing key securely...")
	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store API key", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Key saved: %s (%s)", name, auth.MaskKey(apiKey)))

	fmt.Println("\n🔒 Stored in:")
	if auth.IsKeyringAvailable() {
		fmt.Println("   • System keychain")
	} else {
		fmt.Println("   • Encrypted file")
	}

	if name != auth.DefaultAccount {
		fmt.Println("\n   Use it with:")
		fmt.Printf("   $ steamreviews run --account %s\n", name)
	}
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	if len(args) > 0 {
		name := args[0]
		if err := manager.Delete(name); err != nil {
			ui.PrintError("Failed to remove key", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("Key removed: " + name)
		return
	}

	accounts, err := storedAccounts(manager)
	if err != nil || len(accounts) == 0 {
		ui.PrintError("No stored keys found")
		return
	}

	reader := bufio.NewReader(os.Stdin)

	if len(accounts) == 1 {
		account := accounts[0]
		fmt.Printf("Remove key '%s'? (y/N): ", account.Name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
		if err := manager.Delete(account.Name); err != nil {
			ui.PrintError("Failed to remove key", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("Key removed: " + account.Name)
		return
	}

	fmt.Println("Select key to remove:")
	for i, account := range accounts {
		fmt.Printf("  %d. %s\n", i+1, account.Name)
	}
	fmt.Printf("  %d. Remove all keys\n", len(accounts)+1)
	fmt.Printf("  0. Cancel\n\n")

	fmt.Print("Choice: ")
	input, _ := reader.ReadString('\n')

	var choice int
	fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)

	switch {
	case choice == 0:
		return
	case choice == len(accounts)+1:
		fmt.Print("Remove ALL keys? This cannot be undone! (yes/N): ")
		confirm, _ := reader.ReadString('\n')
		if strings.TrimSpace(confirm) != "yes" {
			return
		}
		if err := manager.DeleteAll(); err != nil {
			ui.PrintError("Failed to remove all keys", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("All keys removed")
	case choice > 0 && choice <= len(accounts):
		account := accounts[choice-1]
		if err := manager.Delete(account.Name); err != nil {
			ui.PrintError("Failed to remove key", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("Key removed: " + account.Name)
	default:
		ui.PrintError("Invalid choice")
		os.Exit(1)
	}
}

func runList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list keys", err.Error())
		os.Exit(1)
	}

	if len(accounts) == 0 {
		ui.PrintInfo("No stored keys", "Use 'steamreviews auth login' to add one")
		return
	}

	ui.PrintHighlight("Stored Keys")
	fmt.Println()

	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. %s\n", i+1, sanitized.Name)
		fmt.Printf("   Key: %s\n", sanitized.APIKey)
		if sanitized.Name == auth.EnvAccount {
			fmt.Printf("   Source: %s\n", auth.APIKeyEnv)
		} else {
			fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
}

// storedAccounts lists the accounts that can be removed
func storedAccounts(manager *auth.Manager) ([]*auth.Account, error) {
	accounts, err := manager.List()
	if err != nil {
		return nil, err
	}
	removable := accounts[:0]
	for _, account := range accounts {
		if account.Name != auth.EnvAccount {
			removable = append(removable, account)
		}
	}
	return removable, nil
}

// readSecret reads a line from stdin without echoing when it is a terminal
func readSecret(reader *bufio.Reader) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
