// Package serve runs the embedded admin proxy.
package serve

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/queueops/queuectl/config"
	"github.com/queueops/queuectl/internal/cli/common"
	"github.com/queueops/queuectl/internal/gateway"
	"github.com/queueops/queuectl/internal/proxy"
	"github.com/queueops/queuectl/internal/secrets"
)

func NewCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var listenAddr string

	command := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin proxy in front of the remote API",
		Long: `Starts the HTTP proxy the console talks to. The proxy injects OAuth
client-credentials tokens, wraps every response in the {ok, status,
data|message} envelope, and exposes /healthz and /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			cfg, err := deps.ResolveConfig(globalFlags)
			if err != nil {
				return err
			}

			clientSecret, err := resolveClientSecret(cfg)
			if err != nil {
				return err
			}

			remote, err := gateway.New(gateway.Config{
				BaseURL:        cfg.BaseURL,
				TokenURL:       cfg.TokenURL,
				ClientID:       cfg.ClientID,
				ClientSecret:   clientSecret,
				DefaultHeaders: cfg.DefaultHeaders,
				InsecureTLS:    cfg.InsecureTLS,
			})
			if err != nil {
				return err
			}

			addr := cfg.ListenAddr
			if strings.TrimSpace(listenAddr) != "" {
				addr = listenAddr
			}

			server, err := proxy.New(proxy.Options{
				ListenAddr:      addr,
				Gateway:         remote,
				CredentialsPath: strings.TrimSpace(cfg.CredentialsFile),
			})
			if err != nil {
				return err
			}
			defer server.Close()

			return server.ListenAndServe(command.Context())
		},
	}

	command.Flags().StringVar(&listenAddr, "listen", "", "listen address override (default: config listen_addr)")
	return command
}

// resolveClientSecret returns the OAuth client secret: inline config
// value, else the client_secret_file, sealed when a passphrase is set.
func resolveClientSecret(cfg config.Config) (string, error) {
	if secret := strings.TrimSpace(cfg.ClientSecret); secret != "" {
		return secret, nil
	}

	path := strings.TrimSpace(cfg.ClientSecretFile)
	if path == "" {
		return "", common.ValidationError("one of client_secret or client_secret_file is required", nil)
	}

	if passphrase := os.Getenv(config.EnvPassphrase); passphrase != "" {
		store, err := secrets.NewFileStore(path, []byte(passphrase))
		if err != nil {
			return "", err
		}
		secret, err := store.Open()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", common.ValidationError("failed to read client_secret_file", err)
	}
	secret := strings.TrimSpace(string(raw))
	if secret == "" {
		return "", common.ValidationError("client_secret_file is empty", nil)
	}
	return secret, nil
}
