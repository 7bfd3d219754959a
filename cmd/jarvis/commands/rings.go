package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ringsCmd = &cobra.Command{
	Use:   "rings",
	Short: "List specialist agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		registry, err := newRegistry(cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		all := registry.All()
		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%d rings", len(all))))
		for _, s := range all {
			_, err := registry.LoadPrompt(cmd.Context(), s.ID)
			renderRing(out, s, err == nil)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ringsCmd)
}
