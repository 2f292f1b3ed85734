package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mailexport/pkg/auth"
	"mailexport/pkg/config"
	"mailexport/pkg/mailbox"
	"mailexport/pkg/ui"
)

// accountsCmd represents the accounts command
var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage mail account credentials",
	Long: `Manage stored mail account credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Use an app password, not your primary account password.`,
}

var accountsAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Store credentials for a mail account",
	Long: `Store credentials for a mail account securely.

You will be prompted for the server host, username, and password. The
password is read without echo. For providers with two-factor auth,
generate an app password and use that.`,
	Example: `  # Interactive setup
  mailexport accounts add

  # Add a named account
  mailexport accounts add work`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAccountsAdd,
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	RunE:  runAccountsList,
}

var accountsRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove stored credentials",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsRemove,
}

var accountsTestCmd = &cobra.Command{
	Use:   "test [name]",
	Short: "Connect to an account and print its mailbox profile",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAccountsTest,
}

func init() {
	rootCmd.AddCommand(accountsCmd)
	accountsCmd.AddCommand(accountsAddCmd)
	accountsCmd.AddCommand(accountsListCmd)
	accountsCmd.AddCommand(accountsRemoveCmd)
	accountsCmd.AddCommand(accountsTestCmd)
}

func runAccountsAdd(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		return err
	}

	reader := bufio.NewReader(os.Stdin)

	name := ""
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}
	if name == "" {
		name = prompt(reader, "Account name", "default")
	}

	host := prompt(reader, "IMAP host", "")
	if host == "" {
		return fmt.Errorf("IMAP host is required")
	}
	portStr := prompt(reader, "IMAP port", "993")
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port: %s", portStr)
	}
	useTLS := !strings.EqualFold(prompt(reader, "Use TLS (yes/no)", "yes"), "no")

	username := prompt(reader, "Username (email address)", "")
	if username == "" {
		return fmt.Errorf("username is required")
	}

	password, err := promptPassword("App password")
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}

	account := &auth.Account{
		Name:         name,
		Email:        username,
		Host:         host,
		Port:         port,
		Username:     username,
		Password:     password,
		UseTLS:       useTLS,
		LastModified: time.Now(),
	}

	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Stored credentials for account %q", name))
	ui.PrintInfo("Verify with", fmt.Sprintf("mailexport accounts test %s", name))
	return nil
}

func runAccountsList(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		return err
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err.Error())
		return err
	}
	if len(accounts) == 0 {
		ui.PrintWarning("No stored accounts. Add one with 'mailexport accounts add'")
		return nil
	}

	for _, account := range accounts {
		fmt.Printf("%s\n", ui.Cyan(account.Name))
		fmt.Printf("  email:  %s\n", account.Email)
		fmt.Printf("  server: %s:%d (tls=%t)\n", account.Host, account.Port, account.UseTLS)
		fmt.Printf("  added:  %s\n", account.LastModified.Format("2006-01-02 15:04"))
	}
	return nil
}

func runAccountsRemove(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		return err
	}

	name := strings.TrimSpace(args[0])
	if err := manager.Delete(name); err != nil {
		ui.PrintError("Failed to remove account", err.Error())
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Removed account %q", name))
	return nil
}

func runAccountsTest(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	name := ""
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}

	account, err := resolveAccount(name)
	if err != nil {
		ui.PrintError("No usable account", err.Error())
		return err
	}

	server := config.ServerConfig{
		Host:   account.Host,
		Port:   account.Port,
		UseTLS: account.UseTLS,
	}

	client := mailbox.NewClient(server, account.Username, account.Password, nil)
	defer client.Close()

	ui.PrintInfo("Connecting", fmt.Sprintf("%s:%d", server.Host, server.Port))
	profile, err := client.Profile()
	if err != nil {
		ui.PrintError("Connection failed", err.Error())
		return err
	}

	ui.PrintSuccess("Connection OK")
	ui.PrintInfo("Email", profile.Email)
	ui.PrintInfo("Messages in INBOX", fmt.Sprintf("%d", profile.TotalMessages))
	ui.PrintInfo("Unread", fmt.Sprintf("%d", profile.UnreadCount))
	if len(profile.Folders) > 0 {
		ui.PrintInfo("Folders", strings.Join(profile.Folders, ", "))
	}
	return nil
}

// prompt reads one line with a default value
func prompt(reader *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

// promptPassword reads a password without echoing when stdin is a TTY
func promptPassword(label string) (string, error) {
	fmt.Printf("%s: ", label)
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimSpace(string(password)), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}
