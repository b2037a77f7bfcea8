// Package cli implements docqactl, a local command line client for the
// ingestion and question answering pipeline.
package cli

import (
	"errors"

	"github.com/spf13/cobra"

	answeruc "github.com/kailas-cloud/docqa/internal/usecase/answer"
	ingestuc "github.com/kailas-cloud/docqa/internal/usecase/ingest"
	modulesuc "github.com/kailas-cloud/docqa/internal/usecase/modules"
)

// Services are the use cases the commands run against.
type Services struct {
	Ingest  *ingestuc.Service
	Answer  *answeruc.Service
	Modules *modulesuc.Service
}

// Bootstrap builds Services from an optional config file path.
type Bootstrap func(configPath string) (Services, error)

var (
	configPath string
	bootstrap  Bootstrap
	services   *Services
)

var errNotConfigured = errors.New("services not configured")

var rootCmd = &cobra.Command{
	Use:           "docqactl",
	Short:         "Ingest documents and ask questions about them",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd == versionCmd || services != nil || bootstrap == nil {
			return nil
		}
		s, err := bootstrap(configPath)
		if err != nil {
			return err
		}
		services = &s
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to a YAML config file (default: config/<ENV>.yaml)")
}

// SetBootstrap installs the lazy service builder used by every command except version.
func SetBootstrap(fn Bootstrap) { bootstrap = fn }

// SetServices injects ready services, skipping bootstrap.
func SetServices(s Services) { services = &s }

// Execute runs the root command.
func Execute() error { return rootCmd.Execute() }

func requireServices() (*Services, error) {
	if services == nil {
		return nil, errNotConfigured
	}
	return services, nil
}
