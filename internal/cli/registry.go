package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// registryCmd groups the explicit curation operations. The reduction
// pipeline only ever matches or introduces constants; everything here is
// the out-of-band curation surface.
var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect and curate the semantic constant registry",
	Long: `Registry manages the persistent store of semantic constants.

Constants are introduced automatically as provisional records during
reduction. Curation is always explicit: promote locks a reviewed
constant, rename adjusts its label, and merge supersedes a duplicate
while keeping the losing record for audit. Curated constants are never
deleted.`,
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all constants",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, closeReg, err := openRegistry(buildConfig())
		if err != nil {
			return err
		}
		if closeReg != nil {
			defer closeReg()
		}

		constants, err := reg.List()
		if err != nil {
			return err
		}
		if len(constants) == 0 {
			fmt.Println("registry is empty")
			return nil
		}

		for _, c := range constants {
			marker := " "
			if !c.Live() {
				marker = "→ " + c.SupersededBy
			}
			fmt.Printf("%-40s %-12s %s %s\n", c.ConstantID, c.Status, c.CanonicalLabel, marker)
		}
		return nil
	},
}

var registryShowCmd = &cobra.Command{
	Use:   "show <constant-id>",
	Short: "Show one constant with its audit fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, closeReg, err := openRegistry(buildConfig())
		if err != nil {
			return err
		}
		if closeReg != nil {
			defer closeReg()
		}

		c, err := reg.Get(args[0])
		if err != nil {
			return err
		}

		data, err := yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode constant: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

var registryPromoteCmd = &cobra.Command{
	Use:   "promote <constant-id>",
	Short: "Promote a provisional constant to curated",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, closeReg, err := openRegistry(buildConfig())
		if err != nil {
			return err
		}
		if closeReg != nil {
			defer closeReg()
		}

		c, err := reg.Promote(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("✓ %s is now %s\n", c.ConstantID, c.Status)
		return nil
	},
}

var registryRenameCmd = &cobra.Command{
	Use:   "rename <constant-id> <label>",
	Short: "Change a constant's canonical label",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, closeReg, err := openRegistry(buildConfig())
		if err != nil {
			return err
		}
		if closeReg != nil {
			defer closeReg()
		}

		c, err := reg.Rename(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("✓ %s renamed to %q\n", c.ConstantID, c.CanonicalLabel)
		return nil
	},
}

var registryMergeCmd = &cobra.Command{
	Use:   "merge <loser-id> <winner-id>",
	Short: "Supersede one constant by another",
	Long: `Merge records that the first constant duplicates the second. The losing
record is kept with a supersede marker so earlier query output stays
auditable; it simply stops matching new buckets.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, closeReg, err := openRegistry(buildConfig())
		if err != nil {
			return err
		}
		if closeReg != nil {
			defer closeReg()
		}

		if err := reg.Merge(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("✓ %s superseded by %s\n", args[0], args[1])
		return nil
	},
}

var registryExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the registry as YAML to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, closeReg, err := openRegistry(buildConfig())
		if err != nil {
			return err
		}
		if closeReg != nil {
			defer closeReg()
		}

		constants, err := reg.List()
		if err != nil {
			return err
		}

		enc := yaml.NewEncoder(os.Stdout)
		defer func() { _ = enc.Close() }()
		return enc.Encode(constants)
	},
}

func init() {
	rootCmd.AddCommand(registryCmd)
	registryCmd.AddCommand(registryListCmd)
	registryCmd.AddCommand(registryShowCmd)
	registryCmd.AddCommand(registryPromoteCmd)
	registryCmd.AddCommand(registryRenameCmd)
	registryCmd.AddCommand(registryMergeCmd)
	registryCmd.AddCommand(registryExportCmd)

	registryCmd.PersistentFlags().StringVar(&registryPath, "registry", "", "registry path (default: $HOME/.sensefold/registry.<backend>)")
	registryCmd.PersistentFlags().StringVar(&registryBackend, "registry-backend", "", "registry backend (file, sqlite; default file)")
}
