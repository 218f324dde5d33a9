package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/msageha/flowguide/internal/catalog"
	"github.com/msageha/flowguide/internal/model"
)

func (a *app) newCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the course catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "lint",
		Short: "Report dangling references in the catalog; exit 1 when any are found",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cat, err := a.loadCatalog()
			if err != nil {
				return err
			}
			warnings := cat.Lint()
			if len(warnings) == 0 {
				fmt.Fprintln(a.out, "catalog ok")
				return nil
			}
			for _, w := range warnings {
				fmt.Fprintf(a.out, "  - %s\n", w)
			}
			return &ExitError{Code: 1}
		},
	})

	var (
		flow     string
		semester int
	)
	show := &cobra.Command{
		Use:   "show",
		Short: "List catalog courses",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cat, err := a.loadCatalog()
			if err != nil {
				return err
			}
			var courses []model.Course
			switch {
			case flow != "":
				courses = cat.CoursesForFlow(flow)
			case semester != 0:
				courses = cat.CoursesInSemester(semester)
			default:
				courses = cat.Courses()
			}
			if flow != "" && semester != 0 {
				kept := courses[:0]
				for _, c := range courses {
					if c.Semester == semester {
						kept = append(kept, c)
					}
				}
				courses = kept
			}

			writeCatalogHeader(a.out, cat.Metadata(), cat.Checksum())
			fmt.Fprintf(a.out, "%-8s  %3s  %5s  %-11s  %-4s  %s\n", "ID", "SEM", "ECTS", "TYPE", "FLOW", "NAME")
			for _, c := range courses {
				fmt.Fprintf(a.out, "%-8s  %3d  %5.1f  %-11s  %-4s  %s\n", c.ID, c.Semester, c.ECTS, c.Type, c.Flow, c.Name)
			}
			return nil
		},
	}
	show.Flags().StringVar(&flow, "flow", "", "only courses of this flow")
	show.Flags().IntVar(&semester, "semester", 0, "only courses of this semester")
	cmd.AddCommand(show)

	return cmd
}

// writeCatalogHeader names the dataset in use. Metadata is optional, so the
// checksum alone identifies an anonymous catalog.
func writeCatalogHeader(w io.Writer, meta catalog.Metadata, checksum string) {
	name := meta.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(w, "Catalog: %s [%.12s]\n", name, checksum)
	if meta.Institution != "" {
		fmt.Fprintf(w, "Institution: %s\n", meta.Institution)
	}
	if meta.Updated != "" {
		fmt.Fprintf(w, "Updated: %s\n", meta.Updated)
	}
	fmt.Fprintln(w)
}
