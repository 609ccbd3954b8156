package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kubev2v/migration-wave-planner/internal/handlers/validator"
	"github.com/kubev2v/migration-wave-planner/internal/inventory"
	"github.com/kubev2v/migration-wave-planner/internal/plan"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
	"sigs.k8s.io/yaml"
)

const (
	tableFormat = "table"
	jsonFormat  = "json"
	yamlFormat  = "yaml"
)

var (
	legalOutputTypes = []string{tableFormat, jsonFormat, yamlFormat}
)

// GlobalOptions are shared by every command planning over a snapshot file.
type GlobalOptions struct {
	SnapshotFile string
	ConfigFile   string
	Output       string

	snapshot *inventory.Snapshot
	config   plan.ProjectConfig
	out      io.Writer
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		Output: tableFormat,
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.SnapshotFile, "snapshot", "f", o.SnapshotFile, "Path to the inventory snapshot (json or yaml)")
	fs.StringVarP(&o.ConfigFile, "config", "c", o.ConfigFile, "Path to a project configuration file (json or yaml). Planning defaults are used when empty.")
	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
}

func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	o.out = cmd.OutOrStdout()

	snapshot, err := loadSnapshot(o.SnapshotFile)
	if err != nil {
		return err
	}
	o.snapshot = snapshot

	cfg, err := loadProjectConfig(o.ConfigFile)
	if err != nil {
		return err
	}
	o.config = cfg
	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	if o.SnapshotFile == "" {
		return fmt.Errorf("a snapshot file is required (--snapshot)")
	}
	if !funk.ContainsString(legalOutputTypes, o.Output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}
	return nil
}

func loadSnapshot(path string) (*inventory.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var snapshot inventory.Snapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", path, err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot %s: %w", path, err)
	}
	return &snapshot, nil
}

func loadProjectConfig(path string) (plan.ProjectConfig, error) {
	cfg := plan.DefaultProjectConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading project configuration: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decoding project configuration %s: %w", path, err)
	}
	if err := validator.NewPlanningValidator().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid project configuration %s: %w", path, err)
	}
	return cfg, nil
}

// print writes v as json or yaml. The table format is handled by each command.
func (o *GlobalOptions) print(v any) error {
	var (
		marshalled []byte
		err        error
	)
	switch o.Output {
	case jsonFormat:
		marshalled, err = json.MarshalIndent(v, "", "  ")
	default:
		marshalled, err = yaml.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("marshalling result: %w", err)
	}
	_, err = fmt.Fprintf(o.out, "%s\n", string(marshalled))
	return err
}
