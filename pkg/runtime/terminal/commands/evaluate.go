package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sudoersllc/opsbox-rego/pkg/adapters"
	"github.com/sudoersllc/opsbox-rego/pkg/models/api"
	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
	"github.com/sudoersllc/opsbox-rego/pkg/runtime/terminal/export"
	"github.com/sudoersllc/opsbox-rego/pkg/services/policy"
)

type EvaluateCmd struct {
	snapshotPath string
	policyName   string
	configPath   string
	sets         []string
	asJSON       bool

	engine   *policy.Engine
	reporter *export.Reporter
}

func NewEvaluateCmd(engine *policy.Engine, reporter *export.Reporter) *cobra.Command {
	ec := &EvaluateCmd{engine: engine, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a policy against a snapshot file",
		RunE:  ec.run,
	}

	cmd.Flags().StringVar(&ec.snapshotPath, "snapshot", "", "Path to the snapshot JSON file")
	cmd.Flags().StringVar(&ec.policyName, "policy", "", "Name of the policy to evaluate")
	cmd.Flags().StringVar(&ec.configPath, "config", "", "Path to a threshold overrides config file")
	cmd.Flags().StringArrayVar(&ec.sets, "set", nil, "Threshold override as name=value (repeatable)")
	cmd.Flags().BoolVar(&ec.asJSON, "json", false, "Emit the report as JSON")

	_ = cmd.MarkFlagRequired("snapshot")
	_ = cmd.MarkFlagRequired("policy")

	return cmd
}

func (ec *EvaluateCmd) run(cmd *cobra.Command, args []string) error {
	snapshot, err := ReadSnapshot(ec.snapshotPath)
	if err != nil {
		return err
	}

	overrides, err := ec.resolveOverrides()
	if err != nil {
		return err
	}

	report, err := ec.engine.Evaluate(snapshot, ec.policyName, overrides)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	ec.reporter.SetJSON(ec.asJSON)
	return ec.reporter.Handle(&report)
}

// resolveOverrides merges config file overrides with --set flags, the
// flags winning on conflict.
func (ec *EvaluateCmd) resolveOverrides() (map[string]any, error) {
	overrides := map[string]any{}

	if ec.configPath != "" {
		v := viper.New()
		v.SetConfigFile(ec.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read overrides config: %w", err)
		}
		for name, value := range v.GetStringMap("overrides." + ec.policyName) {
			overrides[name] = value
		}
	}

	for _, set := range ec.sets {
		name, raw, found := strings.Cut(set, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("invalid --set %q, expected name=value", set)
		}
		overrides[name] = parseOverrideValue(raw)
	}

	return overrides, nil
}

func parseOverrideValue(raw string) any {
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return raw
}

// ReadSnapshot loads a wire-form snapshot from disk.
func ReadSnapshot(path string) (domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var wire api.Snapshot
	if err := json.Unmarshal(data, &wire); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to parse snapshot file: %w", err)
	}

	return adapters.MapAPISnapshotToDomain(wire), nil
}
