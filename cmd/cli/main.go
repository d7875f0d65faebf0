package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sudoersllc/opsbox-rego/pkg/runtime/terminal"
	"github.com/sudoersllc/opsbox-rego/pkg/services/checks"
	"github.com/sudoersllc/opsbox-rego/pkg/services/policy"
	"github.com/sudoersllc/opsbox-rego/pkg/services/providers"
	providersaws "github.com/sudoersllc/opsbox-rego/pkg/services/providers/aws"
	providersazure "github.com/sudoersllc/opsbox-rego/pkg/services/providers/azure"
)

func main() {
	registry := policy.NewRegistry()
	if err := checks.RegisterAll(registry); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	registry.Freeze()

	cli := terminal.NewCLI(terminal.Options{
		Engine:    policy.NewEngine(registry),
		Registry:  registry,
		Providers: newProviderRegistry,
		Output:    os.Stdout,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newProviderRegistry(ctx context.Context, profile string) (*providers.Registry, error) {
	cfg, err := providersaws.LoadConfig(ctx, profile)
	if err != nil {
		return nil, err
	}

	registered := []providers.Provider{
		providersaws.NewEC2InstanceProvider(*cfg),
		providersaws.NewEC2VolumeProvider(*cfg),
		providersaws.NewEC2SnapshotProvider(*cfg),
		providersaws.NewEC2EIPProvider(*cfg),
		providersaws.NewS3BucketProvider(*cfg),
		providersaws.NewS3ObjectProvider(*cfg),
		providersaws.NewRDSInstanceProvider(*cfg),
		providersaws.NewRDSSnapshotProvider(*cfg),
		providersaws.NewIAMUserProvider(*cfg),
		providersaws.NewIAMPolicyProvider(*cfg),
		providersaws.NewELBProvider(*cfg),
		providersaws.NewRoute53ZoneProvider(*cfg),
		providersaws.NewCostProvider(*cfg),
	}

	// Azure is optional: skip it when no profile is configured locally.
	if azureCfg, err := providersazure.LoadConfig(profile); err == nil {
		azureCost, err := providersazure.NewCostProvider(azureCfg)
		if err != nil {
			return nil, err
		}
		registered = append(registered, azureCost)
	}

	return providers.NewRegistry(registered...)
}
