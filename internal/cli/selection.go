package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msageha/flowguide/internal/catalog"
	"github.com/msageha/flowguide/internal/model"
	"github.com/msageha/flowguide/internal/rules"
	"github.com/msageha/flowguide/internal/selection"
	"github.com/msageha/flowguide/internal/status"
)

func (a *app) newGateCommand() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "gate",
		Short: "Check the direction and flow intensities; exit 1 when blocked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := a.loadCatalog()
			if err != nil {
				return err
			}
			st, err := a.store().Load(cmd.Context())
			if err != nil {
				return err
			}
			eng, err := a.engine(cat, nil)
			if err != nil {
				return err
			}
			res := eng.Gate(st.Selection)
			if err := status.WriteGate(a.out, res, jsonOutput); err != nil {
				return err
			}
			if !res.Valid {
				return &ExitError{Code: 1}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
	return cmd
}

func (a *app) newStatusCommand() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Evaluate every requirement and global constraint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := a.loadCatalog()
			if err != nil {
				return err
			}
			st, err := a.store().Load(cmd.Context())
			if err != nil {
				return err
			}
			eng, err := a.engine(cat, nil)
			if err != nil {
				return err
			}
			report, err := eng.Status(cmd.Context(), st.Selection)
			if err != nil {
				return err
			}
			return status.Write(a.out, report, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
	return cmd
}

// update applies fn to the stored selection under the store lock and
// prints the resulting gate.
func (a *app) update(ctx context.Context, fn func(*catalog.Catalog, selection.State) (selection.State, error)) error {
	cat, err := a.loadCatalog()
	if err != nil {
		return err
	}
	st, err := a.store().Update(ctx, func(st selection.State) (selection.State, error) {
		return fn(cat, st)
	})
	if err != nil {
		return err
	}
	return status.WriteGate(a.out, rules.ValidateDirection(cat, st.Direction, st.Flows), false)
}

func (a *app) newDirectionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "direction",
		Short: "Manage the selected direction",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <id>",
		Short: "Select a direction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := model.Direction(args[0])
			return a.update(cmd.Context(), func(cat *catalog.Catalog, st selection.State) (selection.State, error) {
				if _, ok := cat.Direction(id); !ok {
					return st, fmt.Errorf("unknown direction %q (known: %s)", id, strings.Join(directionIDs(cat), ", "))
				}
				return selection.SetDirection(st, id), nil
			})
		},
	})
	return cmd
}

func directionIDs(cat *catalog.Catalog) []string {
	var ids []string
	for _, d := range cat.Directions() {
		ids = append(ids, string(d.ID))
	}
	return ids
}

func (a *app) newFlowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Manage flow intensities",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <code> <none|half|full>",
		Short: "Set the intensity of one flow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, raw := args[0], strings.ToLower(args[1])
			intensity := model.Intensity(raw)
			if !model.IsValidIntensity(intensity) {
				return fmt.Errorf("invalid intensity %q: want none, half or full", args[1])
			}
			return a.update(cmd.Context(), func(cat *catalog.Catalog, st selection.State) (selection.State, error) {
				if _, ok := cat.Flow(code); !ok {
					return st, fmt.Errorf("unknown flow %q (known: %s)", code, strings.Join(cat.FlowCodes(), ", "))
				}
				return selection.SetIntensity(st, code, intensity), nil
			})
		},
	})
	return cmd
}

func (a *app) newCourseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "course",
		Short: "Manage course picks",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <id>...",
		Short: "Select each course, or deselect it when already selected",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.update(cmd.Context(), func(cat *catalog.Catalog, st selection.State) (selection.State, error) {
				for _, id := range args {
					if _, ok := cat.Course(id); !ok {
						return st, fmt.Errorf("unknown course %q", id)
					}
					st = selection.ToggleCourse(st, id)
				}
				return st, nil
			})
		},
	})
	return cmd
}

func (a *app) newCombinationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "combination",
		Short: "List and apply curated flow combinations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list [direction]",
		Short: "List combinations for a direction (default: the selected one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.loadCatalog()
			if err != nil {
				return err
			}
			st, err := a.store().Load(cmd.Context())
			if err != nil {
				return err
			}
			direction := st.Direction
			if len(args) == 1 {
				direction = model.Direction(args[0])
			}
			if direction == "" {
				return fmt.Errorf("no direction selected; pass one or run 'flowguide direction set'")
			}
			printCombinations(a, cat, direction, st.Flows)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "apply <id>",
		Short: "Apply a combination's flow template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.update(cmd.Context(), func(cat *catalog.Catalog, st selection.State) (selection.State, error) {
				sel, err := rules.ApplyCombination(cat, st.Selection, args[0])
				if err != nil {
					return st, err
				}
				st.Selection = sel
				return st, nil
			})
		},
	})
	return cmd
}

func printCombinations(a *app, cat *catalog.Catalog, direction model.Direction, flows model.FlowSelections) {
	combs := cat.Combinations(direction)
	if len(combs) == 0 {
		fmt.Fprintf(a.out, "no combinations for %s\n", direction)
		return
	}
	fmt.Fprintf(a.out, "  %-3s  %-16s  %-16s  %-24s  %s\n", "", "ID", "OPTION", "REQUIRED", "LABEL")
	for _, comb := range combs {
		mark := ""
		if rules.CombinationSatisfied(comb, flows) {
			mark = "*"
		}
		fmt.Fprintf(a.out, "  %-3s  %-16s  %-16s  %-24s  %s\n",
			mark, comb.ID, comb.Option.Type, requiredFlows(comb), comb.Label)
	}
}

func requiredFlows(comb model.Combination) string {
	codes := make([]string, 0, len(comb.Required))
	for code := range comb.Required {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	parts := make([]string, 0, len(codes))
	for _, code := range codes {
		parts = append(parts, code+"="+string(comb.Required[code]))
	}
	return strings.Join(parts, ",")
}
