package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
)

// RenderText writes the human-readable report. Sections always appear, even
// when empty, so readers and diff tools can rely on the layout.
func RenderText(w io.Writer, r *Report) error {
	fmt.Fprintln(w, "Skillscope Dependency Report")
	fmt.Fprintf(w, "Run ID:     %s\n", r.Meta.RunID)
	fmt.Fprintf(w, "Generated:  %s\n", r.Meta.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Source:     %s\n", r.Meta.Source)
	fmt.Fprintf(w, "Version:    %s\n", r.Meta.Version)

	renderMatrix(w, r)
	renderUsageRanking(w, r)
	renderMissing(w, r)
	renderMismatches(w, r)
	renderHealth(w, r)
	renderOrphans(w, r)
	renderRecommendations(w, r)
	renderUnmappedLessons(w, r)
	renderSummary(w, r)

	if f, ok := w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return errors.Wrap(err, "failed to flush report writer")
		}
	}
	return nil
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n== %s ==\n", title)
}

func renderMatrix(w io.Writer, r *Report) {
	section(w, "Dependency Matrix")
	if len(r.Matrix) == 0 {
		fmt.Fprintln(w, "(no dependency declarations)")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Skill\tTarget\tKind\tStrength\tVerdict")
	fmt.Fprintln(tw, "-----\t------\t----\t--------\t-------")
	for _, row := range r.Matrix {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", row.Skill, row.Target, row.Kind, row.Strength, row.Verdict)
	}
	tw.Flush()
}

func renderUsageRanking(w io.Writer, r *Report) {
	section(w, "Usage Ranking")
	if len(r.UsageRanking) == 0 {
		fmt.Fprintln(w, "(no modules)")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Module\tRefs\tUsed By")
	fmt.Fprintln(tw, "------\t----\t-------")
	for _, row := range r.UsageRanking {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", row.ModuleName, row.UseCount, strings.Join(row.UsedBy, ", "))
	}
	tw.Flush()
}

func renderMissing(w io.Writer, r *Report) {
	section(w, "Missing References")
	if len(r.MissingRefs) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Skill\tTarget\tDetail")
	fmt.Fprintln(tw, "-----\t------\t------")
	for _, f := range r.MissingRefs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Skill, f.Target, f.Detail)
	}
	tw.Flush()
}

func renderMismatches(w io.Writer, r *Report) {
	section(w, "Kind Mismatches")
	if len(r.KindMismatches) == 0 {
		fmt.Fprintln(w, "(none)")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Skill\tTarget\tDetail")
		fmt.Fprintln(tw, "-----\t------\t------")
		for _, f := range r.KindMismatches {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Skill, f.Target, f.Detail)
		}
		tw.Flush()
	}

	if len(r.AmbiguousRefs) > 0 {
		fmt.Fprintln(w, "\nAmbiguous references (name exists as module and skill):")
		for _, f := range r.AmbiguousRefs {
			fmt.Fprintf(w, "  - %s -> %s\n", f.Skill, f.Target)
		}
	}

	if len(r.GraphWarnings) > 0 {
		fmt.Fprintln(w, "\nGraph warnings:")
		for _, f := range r.GraphWarnings {
			fmt.Fprintf(w, "  - [%s] %s\n", f.Code, f.Detail)
		}
	}
}

func renderHealth(w io.Writer, r *Report) {
	section(w, "Module Health")
	if len(r.Healths) == 0 {
		fmt.Fprintln(w, "(no modules)")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Module\tCategory\tLessons\tRefs\tScore\tPriority")
	fmt.Fprintln(tw, "------\t--------\t-------\t----\t-----\t--------")
	for _, h := range r.Healths {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			h.ModuleName, h.Category, h.LessonCount, h.SkillRefCount, h.HealthScore, h.UpgradePriority)
	}
	tw.Flush()
}

func renderOrphans(w io.Writer, r *Report) {
	section(w, "Orphan Modules")
	if len(r.Orphans) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}

	current := "\x00"
	for _, orphan := range r.Orphans {
		if orphan.Category != current {
			current = orphan.Category
			label := current
			if label == "" {
				label = "(uncategorized)"
			}
			fmt.Fprintf(w, "Category: %s\n", label)
		}
		fmt.Fprintf(w, "  %s (score %d, priority %s)\n",
			orphan.ModuleName, orphan.Health.HealthScore, orphan.Health.UpgradePriority)
	}
}

func renderRecommendations(w io.Writer, r *Report) {
	section(w, "Recommendations")
	if len(r.ProposedSkills) == 0 && len(r.Wiring) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}

	for _, p := range r.ProposedSkills {
		fmt.Fprintf(w, "Propose a new skill for category %q covering: %s\n",
			p.Category, strings.Join(p.Modules, ", "))
	}
	for _, wire := range r.Wiring {
		if wire.Skill == "" {
			fmt.Fprintf(w, "Orphan %s: no wiring candidate\n", wire.ModuleName)
			continue
		}
		fmt.Fprintf(w, "Wire %s into skill %s (%d modules of category %q already declared)\n",
			wire.ModuleName, wire.Skill, wire.SharedCount, wire.Category)
	}
}

func renderUnmappedLessons(w io.Writer, r *Report) {
	section(w, "Unmapped Lessons")
	if len(r.UnmappedLessons) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	for _, id := range r.UnmappedLessons {
		fmt.Fprintf(w, "  - %s\n", id)
	}
}

func renderSummary(w io.Writer, r *Report) {
	section(w, "Summary")
	s := r.Summary
	fmt.Fprintf(w, "Skills: %d | Modules: %d | Code blocks: %d | Lessons: %d | Edges: %d\n",
		s.TotalSkills, s.TotalModules, s.TotalCodeBlocks, s.TotalLessons, s.TotalEdges)
	fmt.Fprintf(w, "Missing refs: %d | Kind mismatches: %d | Ambiguous: %d | Warnings: %d\n",
		s.MissingCount, s.MismatchCount, s.AmbiguousCount, s.WarningFindings)
	fmt.Fprintf(w, "Orphans: %d (%.1f%%) | Recommendations: %d\n",
		s.OrphanCount, s.OrphanPercent, s.Recommendations)
	fmt.Fprintf(w, "Lesson mappings: %d (%d action needed) | Unmapped lessons: %d\n",
		s.LessonMappings, s.ActionNeededRows, s.UnmappedLessons)
}
