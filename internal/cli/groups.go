package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/pkgsync/internal/engine"
)

// runEditor opens paths in the user's editor. Tests replace it.
var runEditor = func(ctx context.Context, paths []string) error {
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	fields := strings.Fields(editor)
	c := exec.CommandContext(ctx, fields[0], append(fields[1:], paths...)...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("editor %s failed: %w", fields[0], err)
	}
	return nil
}

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Manage group files",
	Long: `Manage the group files in the group directory.

Groups are plain-text files under the group directory; subdirectories
are allowed and the group name is the path relative to it.`,
}

var groupsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List groups",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		res, err := eng.ListGroups()
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(res)
		}

		if len(res.Groups) == 0 {
			PrintEmptyState(fmt.Sprintf("No groups in %s", res.Dir))
			return nil
		}
		rows := make([][]string, 0, len(res.Groups))
		for _, g := range res.Groups {
			backends := make([]string, 0, len(g.Backends))
			for _, id := range g.Backends {
				backends = append(backends, string(id))
			}
			name := g.Name
			if g.Linked {
				name += " ->"
			}
			rows = append(rows, []string{name, strings.Join(backends, ","), strconv.Itoa(g.Packages)})
		}
		PrintTable([]string{"GROUP", "BACKENDS", "PACKAGES"}, rows)
		return nil
	},
}

var groupsShowCmd = &cobra.Command{
	Use:   "show <group|file>...",
	Short: "Show the packages of groups",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		res, err := eng.ShowGroups(&engine.ShowGroupsRequest{Names: args})
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(res)
		}

		for _, g := range res.Groups {
			PrintSection(g.Name)
			PrintLabelValue("Path", g.Path)
			if len(g.Sections) == 0 {
				PrintEmptyState("(empty)")
			}
			for _, s := range g.Sections {
				PrintSubsection(fmt.Sprintf("[%s]", s.Backend))
				PrintList(s.Packages, 2)
			}
		}
		return nil
	},
}

var groupsNewCmd = &cobra.Command{
	Use:   "new <group>...",
	Short: "Create empty group files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		res, err := eng.NewGroups(args)
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(res)
		}
		for _, p := range res.Paths {
			PrintSuccess(fmt.Sprintf("Created %s", p))
		}
		return nil
	},
}

var groupsEditCmd = &cobra.Command{
	Use:   "edit <group>...",
	Short: "Open groups in $EDITOR and check them afterwards",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		res, err := eng.GroupPaths(args)
		if err != nil {
			return err
		}
		if err := runEditor(ctx, res.Paths); err != nil {
			return err
		}
		if err := eng.CheckGroups(); err != nil {
			return err
		}
		if !jsonOutput {
			PrintSuccess("Groups are valid")
		}
		return nil
	},
}

var groupsImportCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Link external group files into the group directory",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		res, err := eng.ImportGroups(args)
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(res)
		}
		for _, g := range res.Imported {
			PrintSuccess(fmt.Sprintf("Imported %s as %s", g.Source, g.Name))
		}
		for _, s := range res.Skipped {
			PrintWarning(fmt.Sprintf("Skipped %s: %s", s.Source, s.Reason))
		}
		return nil
	},
}

var groupsRemoveCmd = &cobra.Command{
	Use:     "remove <group>...",
	Aliases: []string{"rm"},
	Short:   "Delete group files",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		res, err := eng.RemoveGroups(args)
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(res)
		}
		for _, p := range res.Paths {
			PrintSuccess(fmt.Sprintf("Removed %s", p))
		}
		return nil
	},
}

func init() {
	groupsCmd.AddCommand(groupsListCmd)
	groupsCmd.AddCommand(groupsShowCmd)
	groupsCmd.AddCommand(groupsNewCmd)
	groupsCmd.AddCommand(groupsEditCmd)
	groupsCmd.AddCommand(groupsImportCmd)
	groupsCmd.AddCommand(groupsRemoveCmd)
}
