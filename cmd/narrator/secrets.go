package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/config"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage encrypted provider API keys",
}

var secretsSetCmd = &cobra.Command{
	Use:   "set NAME [VALUE]",
	Short: "Store a secret such as ANTHROPIC_API_KEY",
	Long:  "Stores a secret in the encrypted secrets file next to the config. Without VALUE the secret is read from the terminal without echo.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSecretsSet,
}

var secretsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored secret names",
	Args:  cobra.NoArgs,
	RunE:  runSecretsList,
}

func init() {
	secretsCmd.AddCommand(secretsSetCmd, secretsListCmd)
	rootCmd.AddCommand(secretsCmd)
}

func runSecretsSet(cmd *cobra.Command, args []string) error {
	dir := projectDir()
	name := strings.TrimSpace(args[0])
	if name == "" {
		return fmt.Errorf("secret name is required")
	}

	exists := config.SecretsFileExists(dir)
	password, err := readPassword("Secrets password: ", !exists)
	if err != nil {
		return err
	}
	secrets := config.Secrets{}
	if exists {
		if secrets, err = config.LoadSecrets(dir, password); err != nil {
			return fmt.Errorf("failed to unlock secrets: %w", err)
		}
	}

	var value string
	if len(args) == 2 {
		value = args[1]
	} else if value, err = readSecretValue(name); err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("empty value for %s", name)
	}

	secrets[name] = value
	if err := config.SaveSecrets(dir, password, secrets); err != nil {
		return err //nolint:wrapcheck // save errors name the file
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s to %s\n", name, config.SecretsPath(dir))
	return nil
}

func runSecretsList(cmd *cobra.Command, _ []string) error {
	dir := projectDir()
	if !config.SecretsFileExists(dir) {
		fmt.Fprintln(cmd.OutOrStdout(), "No secrets stored")
		return nil
	}
	secrets, err := loadSecrets(dir)
	if err != nil {
		return err
	}
	for _, name := range secrets.Names() {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}
