package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/ladle/internal/cookbook"
	"github.com/mmcdole/ladle/internal/credential"
	"github.com/mmcdole/ladle/internal/domain"
	"golang.org/x/term"
)

// runSetupFlow prompts for the API URL and a Nextcloud app password, checks
// them against the server and stores the pair
func runSetupFlow(creds *credential.Store, timeout time.Duration, logger *slog.Logger) error {
	fmt.Println()
	fmt.Println("Ladle Setup")
	fmt.Println("━━━━━━━━━━━")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	for {
		baseURL, err := prompt(reader, "Cookbook API URL (e.g., https://cloud.example.com/apps/cookbook): ")
		if err != nil {
			return err
		}
		baseURL = strings.TrimRight(baseURL, "/")
		if baseURL == "" {
			fmt.Println("API URL cannot be empty. Please try again.")
			continue
		}

		username, err := prompt(reader, "Username: ")
		if err != nil {
			return err
		}

		// Prompt for password (hidden input)
		fmt.Print("App password: ")
		passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Println() // Add newline after hidden input

		token := basicToken(username, string(passwordBytes))

		fmt.Println()
		fmt.Println("Connecting...")
		version, err := checkCredential(baseURL, token, timeout, logger)
		if err != nil {
			fmt.Printf("✗ %s\n", setupErrorText(err))
			fmt.Println("Please check the values and try again.")
			fmt.Println()
			continue
		}

		if err := creds.Save(baseURL, token); err != nil {
			return fmt.Errorf("failed to save credential: %w", err)
		}

		fmt.Printf("✓ Connected to Cookbook v%s\n", version)
		fmt.Println()
		fmt.Println("Run ladle again to start the application.")
		return nil
	}
}

func prompt(reader *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}

// basicToken is the value sent after "Basic " in the Authorization header
func basicToken(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}

// checkCredential probes the version endpoint without touching the store
func checkCredential(baseURL, token string, timeout time.Duration, logger *slog.Logger) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client := cookbook.NewClient(domain.StaticCredential{BaseURL: baseURL, Token: token}, timeout, logger)
	version, err := client.Version(ctx)
	if err != nil {
		return "", err
	}
	if version == "" {
		version = domain.UnknownVersion
	}
	return version, nil
}

func setupErrorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrAuthFailed):
		return "The server rejected the username or app password."
	case errors.Is(err, domain.ErrServerOffline):
		return "Could not reach the server."
	default:
		return fmt.Sprintf("Connection failed: %v", err)
	}
}
