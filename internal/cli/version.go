package cli

import (
	"context"
	"fmt"

	"github.com/cruciblehq/cruxrel/internal"
)

// Represents the 'cruxrel version' command.
type VersionCmd struct {
	Short bool `short:"s" help:"Print only the version number."`
}

// Prints the version of cruxrel itself.
func (c *VersionCmd) Run(ctx context.Context) error {
	if c.Short {
		fmt.Println(internal.Version())
		return nil
	}
	fmt.Println(internal.Name, internal.VersionString())
	return nil
}
