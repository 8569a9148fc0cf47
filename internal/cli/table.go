package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/bartek5186/autoparts-catalog/internal/catalog"
	"github.com/bartek5186/autoparts-catalog/internal/db"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// printStats: tabela podsumowania importu.
func printStats(w io.Writer, s catalog.Stats) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "Metryka\tWartość")
	fmt.Fprintf(tw, "run_id\t%s\n", s.RunID)
	fmt.Fprintf(tw, "processed\t%d\n", s.Processed)
	fmt.Fprintf(tw, "created\t%d\n", s.Created)
	fmt.Fprintf(tw, "updated\t%d\n", s.Updated)
	fmt.Fprintf(tw, "skipped\t%d\n", s.Skipped)
	fmt.Fprintf(tw, "errors\t%d\n", s.Errors)
	if s.Entity == catalog.EntityCarModels {
		fmt.Fprintf(tw, "brands_created\t%d\n", s.BrandsCreated)
	} else {
		fmt.Fprintf(tw, "links_created\t%d\n", s.LinksCreated)
		fmt.Fprintf(tw, "link_issues\t%d\n", s.LinkIssues)
	}
	if s.Backup != nil {
		fmt.Fprintf(tw, "backup\t%s\n", s.Backup.Path)
	}
	return tw.Flush()
}

func printBackups(w io.Writer, list []catalog.BackupArtifact) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "Plik\tTyp\tUtworzono\tRozmiar\tŚcieżka")
	for _, b := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", b.Name, b.Entity, b.CreatedAt.Format("2006-01-02 15:04:05"), humanSize(b.Size), b.Path)
	}
	return tw.Flush()
}

func printIssues(w io.Writer, issues []db.LinkIssue) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "Artykuł\tPowód\tWpis\tKandydaci")
	for _, i := range issues {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", i.PartNumber, i.Reason, i.Reference, i.Candidates)
	}
	return tw.Flush()
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}

func yn(b bool) string {
	if b {
		return "tak"
	}
	return "nie"
}
