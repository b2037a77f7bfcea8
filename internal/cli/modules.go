package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "Manage ingested modules",
}

var modulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested modules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := requireServices()
		if err != nil {
			return err
		}
		names, err := svc.Modules.List(context.Background())
		if err != nil {
			return fmt.Errorf("list modules: %w", err)
		}
		if len(names) == 0 {
			cmd.Println("No modules found.")
			return nil
		}
		for _, n := range names {
			cmd.Println(n)
		}
		return nil
	},
}

var modulesDeleteCmd = &cobra.Command{
	Use:   "delete [module]",
	Short: "Delete a module's chunk set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := requireServices()
		if err != nil {
			return err
		}
		if err := svc.Modules.Delete(context.Background(), args[0]); err != nil {
			return fmt.Errorf("delete module: %w", err)
		}
		cmd.Printf("Module %q deleted\n", args[0])
		return nil
	},
}

func init() {
	modulesCmd.AddCommand(modulesListCmd, modulesDeleteCmd)
	rootCmd.AddCommand(modulesCmd)
}
