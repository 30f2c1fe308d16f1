package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/danieljhkim/pkgsync/internal/backend/native"
)

var (
	// Colors for help output sections
	groupTitleColor   = color.New(color.FgCyan, color.Bold)
	sectionTitleColor = color.New(color.FgBlue, color.Bold)
)

// rootCmd is the root command for pkgsync.
var rootCmd = &cobra.Command{
	Use:     "pkgsync",
	Version: "dev",
	Short:   "Declarative package management across package managers",
	Long: `pkgsync keeps the packages installed on this machine in line with plain-text
group files.

Each group file lists packages under backend sections such as [pacman],
[apt] or [flatpak]. pkgsync compares the declared packages with what each
package manager reports as explicitly installed, shows the difference and,
once confirmed, installs what is missing and removes what is undeclared.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// customHelpFunc returns a custom help function that colors group titles
func customHelpFunc(cmd *cobra.Command, args []string) {
	var help strings.Builder

	// Long description, falling back to the short one
	if cmd.Long != "" {
		help.WriteString(cmd.Long)
		help.WriteString("\n\n")
	} else if cmd.Short != "" {
		help.WriteString(cmd.Short)
		help.WriteString("\n\n")
	}

	// Usage
	help.WriteString(sectionTitleColor.Sprint("Usage:"))
	help.WriteString("\n")
	fmt.Fprintf(&help, "  %s\n\n", cmd.UseLine())

	if len(cmd.Aliases) > 0 {
		help.WriteString(sectionTitleColor.Sprint("Aliases:"))
		help.WriteString("\n")
		fmt.Fprintf(&help, "  %s\n\n", strings.Join(cmd.Aliases, ", "))
	}

	// Grouped commands, one section per group
	for _, group := range cmd.Groups() {
		help.WriteString(groupTitleColor.Sprint(group.Title))
		help.WriteString("\n")

		for _, c := range cmd.Commands() {
			if c.GroupID == group.ID && !c.Hidden {
				fmt.Fprintf(&help, "  %-11s %s\n", c.Name(), c.Short)
			}
		}
		help.WriteString("\n")
	}

	// Ungrouped commands (Additional Commands section, or Commands on subcommands)
	hasUngrouped := false
	for _, c := range cmd.Commands() {
		if c.GroupID == "" && !c.Hidden {
			if !hasUngrouped {
				title := "Additional Commands:"
				if len(cmd.Groups()) == 0 {
					title = "Commands:"
				}
				help.WriteString(sectionTitleColor.Sprint(title))
				help.WriteString("\n")
				hasUngrouped = true
			}
			fmt.Fprintf(&help, "  %-11s %s\n", c.Name(), c.Short)
		}
	}
	if hasUngrouped {
		help.WriteString("\n")
	}

	// Local flags first, then the inherited global ones
	if cmd.HasAvailableLocalFlags() || cmd.HasAvailablePersistentFlags() {
		help.WriteString(sectionTitleColor.Sprint("Flags:"))
		help.WriteString("\n")
		help.WriteString(cmd.LocalFlags().FlagUsages())
		help.WriteString(cmd.InheritedFlags().FlagUsages())
		help.WriteString("\n")
	}

	// Usage footer
	fmt.Fprintf(&help, "Use \"%s [command] --help\" for more information about a command.\n", cmd.CommandPath())

	fmt.Fprint(cmd.OutOrStdout(), help.String())
}

func init() {
	// Colored help for every command
	rootCmd.SetHelpFunc(customHelpFunc)
	rootCmd.SetGlobalNormalizationFunc(normalizeFlagName)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	flags.StringArrayVarP(&backendFlags, "backend", "b", nil, "Restrict to a backend (repeatable)")
	flags.BoolVar(&noConfirm, "noconfirm", false, "Apply without review (alias --unreviewed)")
	flags.Var(&reviewFlag, "review", "Review mode: none, per-action or confirm-all")
	flags.StringVar(&configPath, "config", "", "Path to config.yaml")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&simulate, "simulate", false, "Use in-memory backends instead of the system package managers")
	_ = flags.MarkHidden("simulate")

	// Complete --backend with the tags this binary knows
	_ = rootCmd.RegisterFlagCompletionFunc("backend", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var tags []string
		for _, id := range native.Known() {
			tags = append(tags, string(id))
		}
		return tags, cobra.ShellCompDirectiveNoFileComp
	})

	// Define command groups
	rootCmd.AddGroup(&cobra.Group{
		ID:    "reconciliation",
		Title: "Reconciliation:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "group-management",
		Title: "Group Management:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "cli-tooling",
		Title: "CLI & Tooling:",
	})

	// CLI & Tooling commands
	versionCmd := &cobra.Command{
		Use:     "version",
		Short:   "Print the pkgsync CLI version",
		Args:    cobra.NoArgs,
		GroupID: "cli-tooling",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), rootCmd.Version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	// Replace cobra's help command so it lands in the CLI & Tooling group
	helpCmd := &cobra.Command{
		Use:     "help [command]",
		Short:   "Help about any command",
		GroupID: "cli-tooling",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, _, err := rootCmd.Find(args)
			if err != nil || target == nil {
				return rootCmd.Help()
			}
			return target.Help()
		},
	}
	rootCmd.SetHelpCommand(helpCmd)

	// Completion scripts, grouped like help
	completionCmd := &cobra.Command{
		Use:     "completion",
		Short:   "Generate the autocompletion script for the specified shell",
		GroupID: "cli-tooling",
		Long: `Generate the autocompletion script for pkgsync for the specified shell.
See each sub-command's help for details on how to use the generated script.`,
	}
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "bash",
		Short:                 "Generate the autocompletion script for bash",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "zsh",
		Short:                 "Generate the autocompletion script for zsh",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "fish",
		Short:                 "Generate the autocompletion script for fish",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		},
	})
	rootCmd.AddCommand(completionCmd)

	// Reconciliation commands
	syncCmd.GroupID = "reconciliation"
	reviewCmd.GroupID = "reconciliation"
	cleanCmd.GroupID = "reconciliation"
	unmanagedCmd.GroupID = "reconciliation"
	adoptCmd.GroupID = "reconciliation"
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(unmanagedCmd)
	rootCmd.AddCommand(adoptCmd)

	// Group Management commands
	groupsCmd.GroupID = "group-management"
	rootCmd.AddCommand(groupsCmd)
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}
