package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"foldervault/internal/client"
)

const envPrefix = "FOLDERVAULT"

func NewRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "foldervault",
		Short: "Browse and download shared folders",
		Long: `foldervault talks to a folder API as one user. The bearer token comes from
--token or FOLDERVAULT_TOKEN; admins see every folder, clients only the folders
shared with them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if v.GetBool("debug") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("api-url", "http://localhost:5000", "API base URL")
	flags.String("token", "", "Bearer token")
	_ = v.BindPFlags(flags)

	newClient := func() (*client.Client, error) {
		id, err := client.IdentityFromToken(v.GetString("token"))
		if err != nil {
			return nil, err
		}
		return client.New(v.GetString("api-url"), id, nil), nil
	}

	rootCmd.AddCommand(NewFoldersCommand(newClient))
	rootCmd.AddCommand(NewFilesCommand(newClient))
	rootCmd.AddCommand(NewDownloadCommand(newClient))
	rootCmd.AddCommand(NewPreviewCommand(newClient))

	return rootCmd
}

type clientFactory func() (*client.Client, error)

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
