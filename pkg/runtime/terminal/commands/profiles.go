package commands

import (
	"fmt"
	"os/user"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sudoersllc/opsbox-rego/pkg/services/config"
)

type ProfilesCmd struct {
	configPath string
}

func NewProfilesCmd() *cobra.Command {
	pc := &ProfilesCmd{}
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List AWS profiles from the shared config file",
		RunE:  pc.run,
	}

	defaultPath := ""
	if usr, err := user.Current(); err == nil {
		defaultPath = filepath.Join(usr.HomeDir, ".aws", "config")
	}
	cmd.Flags().StringVar(&pc.configPath, "config", defaultPath, "Path to the AWS shared config file")

	return cmd
}

func (pc *ProfilesCmd) run(cmd *cobra.Command, args []string) error {
	registry, err := config.NewRegistry(pc.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config file: %w", err)
	}

	profiles, err := registry.GetProfiles(cmd.Context())
	if err != nil {
		return err
	}
	for _, profile := range profiles {
		fmt.Fprintln(cmd.OutOrStdout(), profile)
	}
	return nil
}
