package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sudoersllc/opsbox-rego/pkg/services/policy"
)

func NewPoliciesCmd(registry *policy.Registry) *cobra.Command {
	return &cobra.Command{
		Use:   "policies",
		Short: "List registered policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range registry.Policies() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)", p.Name, p.Resource)
				if p.Description != "" {
					fmt.Fprintf(cmd.OutOrStdout(), ": %s", p.Description)
				}
				fmt.Fprintln(cmd.OutOrStdout())
				for _, param := range p.Params {
					fmt.Fprintf(cmd.OutOrStdout(), "  --set %s=<%s> (default %v)\n",
						param.Name, param.Type, param.Default)
				}
			}
			return nil
		},
	}
}
