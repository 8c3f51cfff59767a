package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/qcmbuilder/qcm-api/config"
	"github.com/qcmbuilder/qcm-api/grouping"
	"github.com/qcmbuilder/qcm-api/ingest"
	"github.com/qcmbuilder/qcm-api/models"
	"github.com/qcmbuilder/qcm-api/store"
)

type ingestOptions struct {
	format    string
	objective string
	faculty   string
	year      int
	save      bool
	user      string
}

func newIngestCmd() *cobra.Command {
	var opts ingestOptions
	cmd := &cobra.Command{
		Use:   "ingest FILE",
		Short: "Parse a CSV or JSON series and print its groups",
		Long: "Runs the ingestion pipeline on FILE and prints the resulting groups and skipped rows.\n" +
			"With --save the series is stored for --user in the configured database.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.format, "format", "", "csv or json (default: from the file extension)")
	cmd.Flags().StringVar(&opts.objective, "objective", "", "series objective")
	cmd.Flags().StringVar(&opts.faculty, "faculty", "", "series faculty")
	cmd.Flags().IntVar(&opts.year, "year", 0, "series year")
	cmd.Flags().BoolVar(&opts.save, "save", false, "store the series in the database")
	cmd.Flags().StringVar(&opts.user, "user", "", "owner subject used with --save")
	return cmd
}

func runIngest(cmd *cobra.Command, path string, opts ingestOptions) error {
	var (
		format ingest.Format
		err    error
	)
	if opts.format != "" {
		format, err = ingest.ParseFormat(opts.format)
	} else {
		format, err = ingest.FormatFromFilename(path)
	}
	if err != nil {
		return err
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	res, err := ingest.Ingest(string(contents), format)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printGroups(out, res)
	if !opts.save {
		return nil
	}

	meta := models.SeriesMetadata{Objective: opts.objective, Faculty: opts.faculty, Year: opts.year}
	if meta == (models.SeriesMetadata{}) && res.Metadata != nil {
		meta = *res.Metadata
	}
	if err := meta.Validate(); err != nil {
		return err
	}
	if opts.user == "" {
		return fmt.Errorf("--user is required with --save")
	}

	cfg := config.Load()
	db, err := config.Connect(cfg.DBDriver, cfg.DBURL)
	if err != nil {
		return err
	}
	s := store.NewGormStore(db)
	user, err := s.SyncUser(cmd.Context(), opts.user, "")
	if err != nil {
		return err
	}
	id, err := s.Save(cmd.Context(), user.ID, "", meta, res.Questions)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "saved series %s\n", id)
	return err
}

func printGroups(w io.Writer, res ingest.Result) {
	groups := grouping.Build(res.Questions)
	summary := grouping.Summarize(res.Questions, groups)
	fmt.Fprintf(w, "%d questions in %d groups (%d clinical cases)\n", summary.Questions, summary.Groups, summary.CaseGroups)
	for i, g := range groups {
		if g.Kind == grouping.KindCase {
			fmt.Fprintf(w, "%d. %s %s (%d questions)\n", i+1, models.KindClinicalCase, g.ID, len(g.Members))
			for j, q := range g.Members {
				fmt.Fprintf(w, "   %d/%d %s [%d options]\n", j+1, len(g.Members), q.Text, len(q.Options))
			}
			continue
		}
		q := g.Members[0]
		fmt.Fprintf(w, "%d. %s %s [%d options]\n", i+1, models.KindSimple, q.Text, len(q.Options))
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "skipped: %s\n", warn.Error())
	}
}
