package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"lorebook/internal/app"
	"lorebook/internal/config"
	"lorebook/internal/lore"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a LoreApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "CreateObject", "ExportCampaign").
func newApp(operation string) (*app.LoreApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: run 'lorebook config init' first", lore.ErrNoProject)
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewLoreApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// withApp runs fn against a fresh app and records its outcome on the operation.
func withApp(operation string, fn func(a *app.LoreApp) error) error {
	a, err := newApp(operation)
	if err != nil {
		return err
	}
	defer a.Close()

	err = fn(a)
	a.Operation().Fail(err)
	return err
}

// withCampaign is withApp plus resolution of the campaign argument.
func withCampaign(operation, ref string, fn func(a *app.LoreApp, svc *lore.Service, campaignID string) error) error {
	return withApp(operation, func(a *app.LoreApp) error {
		c, err := a.ResolveCampaign(ref)
		if err != nil {
			return err
		}
		return fn(a, a.Service(), c.ID)
	})
}

// readPassphrase takes the passphrase from LOREBOOK_PASSPHRASE or prompts for
// it on the terminal. confirm asks twice.
func readPassphrase(confirm bool) (string, error) {
	if p := os.Getenv("LOREBOOK_PASSPHRASE"); p != "" {
		return p, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("passphrase required: set LOREBOOK_PASSPHRASE or run in a terminal")
	}

	fmt.Fprint(os.Stderr, "Passphrase: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	if !confirm {
		return string(first), nil
	}

	fmt.Fprint(os.Stderr, "Confirm passphrase: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("passphrases do not match")
	}
	return string(first), nil
}

// askYesNo prompts on stderr. Anything but y/yes, or a non-interactive
// stdin, is no.
func askYesNo(question string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}
	fmt.Fprintf(os.Stderr, "%s [y/N] ", question)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// readText returns args joined, or stdin when the only arg is "-".
func readText(args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return strings.TrimRight(string(data), "\n"), nil
	}
	return strings.Join(args, " "), nil
}

var rootCmd = &cobra.Command{
	Use:          "lorebook",
	Short:        "Campaign wiki for tabletop game masters",
	SilenceUsage: true,
}
