// Package status renders evaluation results for the terminal.
package status

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/msageha/flowguide/internal/rules"
)

// Write prints r as indented JSON or as a human-readable summary.
func Write(w io.Writer, r *rules.Report, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	printReport(w, r)
	return nil
}

// WriteGate prints the wizard-gate outcome.
func WriteGate(w io.Writer, res rules.DirectionResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	if res.Valid {
		fmt.Fprintln(w, "Gate: ok")
		return nil
	}
	fmt.Fprintf(w, "Gate: blocked\n  %s\n", res.Error)
	return nil
}

func printReport(w io.Writer, r *rules.Report) {
	direction := string(r.Direction)
	if direction == "" {
		direction = "(none)"
	}
	fmt.Fprintf(w, "Direction: %s\n", direction)
	if r.Gate.Valid {
		fmt.Fprintln(w, "Gate: ok")
	} else {
		fmt.Fprintf(w, "Gate: blocked (%s)\n", r.Gate.Error)
	}
	if r.Combination != "" {
		fmt.Fprintf(w, "Combination: %s\n", r.Combination)
	}

	if len(r.Statuses) > 0 {
		fmt.Fprintln(w, "\nRequirements:")
		fmt.Fprintf(w, "  %-4s  %-22s  %9s  %s\n", "OK", "ID", "PROGRESS", "DESCRIPTION")
		for _, s := range r.Statuses {
			fmt.Fprintf(w, "  %-4s  %-22s  %9s  %s\n",
				mark(s.Met), s.ID, fmt.Sprintf("%d/%d", s.Current, s.Target), s.Description)
		}
	} else {
		fmt.Fprintln(w, "\nRequirements: none")
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, msg := range r.Warnings {
			fmt.Fprintf(w, "  - %s\n", msg)
		}
	}

	fmt.Fprintln(w, "\nCredits:")
	fmt.Fprintf(w, "  %-8s  %7s  %6s\n", "SEMESTER", "COURSES", "ECTS")
	for _, l := range r.Credits.Semesters {
		fmt.Fprintf(w, "  %-8d  %7d  %6.1f\n", l.Semester, l.Courses, l.ECTS)
	}
	fmt.Fprintf(w, "  %-8s  %7s  %6.1f\n", "total", "", r.Credits.TotalECTS)
	if len(r.Credits.Unknown) > 0 {
		fmt.Fprintf(w, "  unknown course ids: %v\n", r.Credits.Unknown)
	}

	if r.Complete {
		fmt.Fprintln(w, "\nSelection: complete")
	} else {
		fmt.Fprintf(w, "\nSelection: incomplete (%d warning(s))\n", len(r.Warnings))
	}
}

func mark(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}
