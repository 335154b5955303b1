package cli

import (
	"context"
	"fmt"

	"github.com/cruciblehq/cruxrel/internal/summary"
)

// Represents the 'cruxrel check' command.
type CheckCmd struct {
	SkipPublish bool `help:"Do not check the release host tools."`
}

// Executes the check command.
//
// Validates the pipeline file, runs the preflight checks and reads the
// revision and version declaration, then prints the plan. Nothing is
// modified.
func (c *CheckCmd) Run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	env := newEnvironment(cfg)
	if err := env.connect(); err != nil {
		return err
	}
	defer env.Close()

	fmt.Println(summary.Plan(cfg))

	if err := env.preflight(ctx, !c.SkipPublish); err != nil {
		return err
	}

	rev, err := env.revision()
	if err != nil {
		return err
	}
	decl, err := env.stamper.Read()
	if err != nil {
		return err
	}

	fmt.Printf("Next build version: %s.%s (branch %s)\n", decl.Value(), rev.ShortHash, rev.Branch)
	if env.stamper.HasBackup() {
		fmt.Println("A previous stamp was never restored; run 'cruxrel restore' first.")
	}
	return nil
}
