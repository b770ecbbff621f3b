package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voicebridge/voicebridge/internal/dependency"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the model can call",
	RunE:  runTools,
}

func runTools(_ *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	c, err := dependency.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}

	for _, def := range c.Registry().All() {
		required := def.Schema().RequiredNames()
		fmt.Printf("%-16s %s\n", def.Name(), def.Description())
		if len(required) > 0 {
			fmt.Printf("%-16s required: %v\n", "", required)
		}
	}
	return nil
}
