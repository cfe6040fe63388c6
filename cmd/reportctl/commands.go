package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/noah-isme/academic-report-api/internal/models"
	"github.com/noah-isme/academic-report-api/pkg/storage"
)

type reportGenerator interface {
	GenerateGroupReport(ctx context.Context, groupID, periodID int64) ([]models.StudentReport, error)
	GenerateStudentReport(ctx context.Context, groupID, studentID, periodID int64) (*models.StudentReport, error)
	GenerateExcelReport(ctx context.Context, groupID, periodID int64) ([]byte, error)
	GenerateCSVReport(ctx context.Context, groupID, periodID int64) ([]byte, error)
	GenerateStudentExcelReport(ctx context.Context, groupID, studentID, periodID int64) ([]byte, error)
	GeneratePdfReport(ctx context.Context, groupID, periodID int64) ([]byte, error)
	GenerateGroupTablePdf(ctx context.Context, groupID, periodID int64) ([]byte, error)
	GenerateStudentPdfReport(ctx context.Context, groupID, studentID, periodID int64) ([]byte, error)
	GetGradeDistribution(ctx context.Context, year int, periodID int64, levelID string, subjectID int64) ([]models.GradeDistribution, error)
	RefreshGradeDistribution(ctx context.Context, year int, periodID int64, levelID string, subjectID int64) ([]models.GradeDistribution, error)
}

// opener connects the report pipeline. The returned func releases its resources.
type opener func(ctx context.Context) (reportGenerator, func(), error)

type cli struct {
	open opener
	svc  reportGenerator
	out  string
	dir  string
}

func newRootCmd(open opener) *cobra.Command {
	app := &cli{open: open}
	root := &cobra.Command{
		Use:           "reportctl",
		Short:         "Render academic reports from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&app.out, "out", "o", "-", "output file, - for stdout")
	root.PersistentFlags().StringVar(&app.dir, "dir", "", "save under this directory using the default file name")
	root.AddCommand(app.groupCmd(), app.studentCmd(), app.distributionCmd())
	return root
}

func (a *cli) groupCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "group GROUP_ID PERIOD_ID",
		Short: "Render the report of every student in a group",
		Args:  idArgs(2),
		RunE: a.withService(func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			group, period := ids[0], ids[1]

			var data []byte
			ext := format
			switch format {
			case "json":
				reports, err := a.svc.GenerateGroupReport(ctx, group, period)
				if err != nil {
					return err
				}
				return a.writeJSON(cmd, fmt.Sprintf("academic-report-group-%d-period-%d.json", group, period), reports)
			case "xlsx":
				data, err = a.svc.GenerateExcelReport(ctx, group, period)
			case "csv":
				data, err = a.svc.GenerateCSVReport(ctx, group, period)
			case "pdf":
				data, err = a.svc.GeneratePdfReport(ctx, group, period)
			case "table":
				data, err = a.svc.GenerateGroupTablePdf(ctx, group, period)
				ext = "pdf"
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			if err != nil {
				return err
			}
			return a.write(cmd, fmt.Sprintf("academic-report-group-%d-period-%d.%s", group, period, ext), data)
		}),
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "json, xlsx, csv, pdf or table")
	return cmd
}

func (a *cli) studentCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "student GROUP_ID STUDENT_ID PERIOD_ID",
		Short: "Render the report of one student",
		Args:  idArgs(3),
		RunE: a.withService(func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			group, student, period := ids[0], ids[1], ids[2]

			var data []byte
			switch format {
			case "json":
				report, err := a.svc.GenerateStudentReport(ctx, group, student, period)
				if err != nil {
					return err
				}
				return a.writeJSON(cmd, studentFile(group, student, period, "json"), report)
			case "xlsx":
				data, err = a.svc.GenerateStudentExcelReport(ctx, group, student, period)
			case "pdf":
				data, err = a.svc.GenerateStudentPdfReport(ctx, group, student, period)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			if err != nil {
				return err
			}
			return a.write(cmd, studentFile(group, student, period, format), data)
		}),
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "json, xlsx or pdf")
	return cmd
}

func (a *cli) distributionCmd() *cobra.Command {
	var (
		year      int
		periodID  int64
		levelID   string
		subjectID int64
		refresh   bool
	)
	cmd := &cobra.Command{
		Use:   "distribution",
		Short: "Count subject totals per group of a level",
		Args:  cobra.NoArgs,
		RunE: a.withService(func(cmd *cobra.Command, args []string) error {
			distribute := a.svc.GetGradeDistribution
			if refresh {
				distribute = a.svc.RefreshGradeDistribution
			}
			result, err := distribute(cmd.Context(), year, periodID, levelID, subjectID)
			if err != nil {
				return err
			}
			return a.writeJSON(cmd, fmt.Sprintf("grade-distribution-%d-period-%d-level-%s-subject-%d.json", year, periodID, levelID, subjectID), result)
		}),
	}
	cmd.Flags().IntVar(&year, "year", 0, "academic year")
	cmd.Flags().Int64Var(&periodID, "period", 0, "period id")
	cmd.Flags().StringVar(&levelID, "level", "", "education level id")
	cmd.Flags().Int64Var(&subjectID, "subject", 0, "subject id")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "drop cached distributions of the year and period before recomputing")
	for _, name := range []string{"year", "period", "level", "subject"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

// withService opens the pipeline for the duration of one command run.
func (a *cli) withService(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		svc, release, err := a.open(cmd.Context())
		if err != nil {
			return err
		}
		defer release()
		a.svc = svc
		return run(cmd, args)
	}
}

func (a *cli) writeJSON(cmd *cobra.Command, name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return a.write(cmd, name, append(data, '\n'))
}

// write sends data to --dir under name, to --out, or to stdout.
func (a *cli) write(cmd *cobra.Command, name string, data []byte) error {
	if a.dir != "" {
		dir, err := storage.NewDir(a.dir)
		if err != nil {
			return err
		}
		path, err := dir.Save(name, data)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes to %s\n", len(data), path)
		return nil
	}
	if a.out == "" || a.out == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(a.out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", a.out, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes to %s\n", len(data), a.out)
	return nil
}

func studentFile(group, student, period int64, ext string) string {
	return fmt.Sprintf("academic-report-group-%d-student-%d-period-%d.%s", group, student, period, ext)
}

func idArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return err
		}
		_, err := parseIDs(args)
		return err
	}
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, len(args))
	for i, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q: must be a positive integer", arg)
		}
		ids[i] = id
	}
	return ids, nil
}
