package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sudoersllc/opsbox-rego/pkg/adapters"
	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
	"github.com/sudoersllc/opsbox-rego/pkg/runtime/terminal/export"
	"github.com/sudoersllc/opsbox-rego/pkg/services/policy"
	"github.com/sudoersllc/opsbox-rego/pkg/services/providers"
)

// ProviderFactory builds a provider registry for the given profile.
// The CLI binary supplies one so this package stays free of cloud SDK
// wiring.
type ProviderFactory func(ctx context.Context, profile string) (*providers.Registry, error)

type CollectCmd struct {
	profile    string
	resource   string
	policyName string
	asJSON     bool

	factory  ProviderFactory
	engine   *policy.Engine
	reporter *export.Reporter
}

func NewCollectCmd(factory ProviderFactory, engine *policy.Engine, reporter *export.Reporter) *cobra.Command {
	cc := &CollectCmd{factory: factory, engine: engine, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect a live snapshot, optionally evaluating a policy against it",
		RunE:  cc.run,
	}

	cmd.Flags().StringVar(&cc.profile, "profile", "default", "Cloud profile to collect with")
	cmd.Flags().StringVar(&cc.resource, "resource", "", "Resource kind to collect")
	cmd.Flags().StringVar(&cc.policyName, "policy", "", "Policy to evaluate against the collected snapshot")
	cmd.Flags().BoolVar(&cc.asJSON, "json", false, "Emit the report as JSON")

	_ = cmd.MarkFlagRequired("resource")

	return cmd
}

func (cc *CollectCmd) run(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	registry, err := cc.factory(ctx, cc.profile)
	if err != nil {
		return fmt.Errorf("failed to initialize providers: %w", err)
	}

	provider, err := registry.Get(cc.resource)
	if err != nil {
		return err
	}

	snapshot, err := provider.Collect(ctx)
	if err != nil {
		return fmt.Errorf("failed to collect snapshot: %w", err)
	}

	if cc.policyName == "" {
		return writeSnapshot(cmd, snapshot)
	}

	report, err := cc.engine.Evaluate(snapshot, cc.policyName, nil)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	cc.reporter.SetJSON(cc.asJSON)
	return cc.reporter.Handle(&report)
}

func writeSnapshot(cmd *cobra.Command, snapshot domain.Snapshot) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(adapters.MapDomainSnapshotToAPI(snapshot))
}
