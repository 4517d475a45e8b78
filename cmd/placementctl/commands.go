package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ganot/placement-desk/internal/app"
	"github.com/ganot/placement-desk/internal/domain/activity"
	"github.com/ganot/placement-desk/internal/domain/distribution"
	"github.com/ganot/placement-desk/internal/domain/student"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// operator attributes shell-driven changes in the activity log.
const operator = "placementctl"

// buildFunc opens the desk and returns a function releasing it.
type buildFunc func(ctx context.Context) (*app.App, func() error, error)

func newRootCmd(build buildFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "placementctl",
		Short:         "Manage placement desk sheets from the shell",
		SilenceUsage: true,
	}
	root.AddCommand(
		newImportCmd(build),
		newExportCmd(build),
		newDistributeCmd(build),
		newActivityCmd(build),
		newAPIKeyCmd(build),
		newSheetCmd(build),
	)
	return root
}

// withApp builds the desk for one command run and closes it afterwards.
func withApp(build buildFunc, fn func(ctx context.Context, desk *app.App, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := activity.WithActor(cmd.Context(), operator)
		desk, release, err := build(ctx)
		if err != nil {
			return err
		}
		defer release()
		return fn(ctx, desk, cmd, args)
	}
}

func newImportCmd(build buildFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "import <students.csv>",
		Short: "Bulk import students from a CSV file with a header row",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(build, func(ctx context.Context, desk *app.App, cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			inputs, err := readStudentCSV(f)
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			report, err := desk.Distribution.BulkImportStudents(ctx, inputs, func(processed, total int) {
				fmt.Fprintf(out, "imported %d/%d\n", processed, total)
			})
			if report != nil {
				for _, r := range report.Rejected {
					fmt.Fprintf(out, "rejected row %d (%s): %s\n", r.Index+2, r.ID, r.Reason)
				}
				for _, d := range report.Distributions {
					fmt.Fprintf(out, "distributed %s to %s companies\n", strings.Join(d.StudentIDs, ","), d.Summary())
				}
			}
			return err
		}),
	}
}

// readStudentCSV maps columns by header name, so extra or reordered columns
// are accepted.
func readStudentCSV(r io.Reader) ([]student.Input, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("file is empty")
		}
		return nil, err
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	cell := func(rec []string, name string) string {
		i, ok := index[strings.ToLower(name)]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}
	if _, ok := index[strings.ToLower(student.Columns[0])]; !ok {
		return nil, fmt.Errorf("missing %q column", student.Columns[0])
	}

	var inputs []student.Input
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, student.Input{
			ID:         cell(rec, "Student ID"),
			FullName:   cell(rec, "Full Name"),
			Email:      cell(rec, "Email"),
			Phone:      cell(rec, "Phone"),
			Department: cell(rec, "Department"),
			Year:       cell(rec, "Year"),
			CGPA:       cell(rec, "CGPA"),
			Skills:     cell(rec, "Skills"),
			Status:     cell(rec, "Status"),
			DateAdded:  cell(rec, "Date Added"),
		})
	}
	return inputs, nil
}

func newExportCmd(build buildFunc) *cobra.Command {
	var format, outPath string
	cmd := &cobra.Command{
		Use:   "export <company-id>",
		Short: "Export the students meeting a company's minimum CGPA",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(build, func(ctx context.Context, desk *app.App, cmd *cobra.Command, args []string) error {
			export, err := desk.Distribution.ExportForCompany(ctx, args[0], distribution.Format(format))
			if err != nil {
				return err
			}

			var data []byte
			if export.Format == distribution.FormatJSON {
				if data, err = json.MarshalIndent(export.Students, "", "  "); err != nil {
					return err
				}
				data = append(data, '\n')
			} else {
				data = []byte(export.CSV)
			}

			if outPath == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if outPath == "." {
				outPath = export.Filename
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d students to %s\n", len(exportRows(export)), outPath)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv or json")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file; \".\" uses the default export name")
	return cmd
}

func exportRows(e *distribution.Export) []string {
	if e.Format == distribution.FormatJSON {
		ids := make([]string, len(e.Students))
		for i, s := range e.Students {
			ids[i] = s.ID
		}
		return ids
	}
	lines := strings.Split(strings.TrimRight(e.CSV, "\n"), "\n")
	return lines[1:]
}

func newDistributeCmd(build buildFunc) *cobra.Command {
	var studentIDs, companyIDs []string
	var auto bool
	cmd := &cobra.Command{
		Use:   "distribute",
		Short: "Send students to company sheets",
		RunE: withApp(build, func(ctx context.Context, desk *app.App, cmd *cobra.Command, _ []string) error {
			if len(studentIDs) == 0 {
				return errors.New("--students is required")
			}
			out := cmd.OutOrStdout()

			if auto {
				for _, id := range studentIDs {
					st, err := desk.Students.Get(ctx, strings.ToUpper(strings.TrimSpace(id)))
					if err != nil {
						return err
					}
					report, err := desk.Distribution.AutoDistributeToEligibleCompanies(ctx, *st)
					if err != nil {
						return err
					}
					printReport(out, report)
				}
				return nil
			}

			if len(companyIDs) == 0 {
				return errors.New("--companies is required unless --auto is set")
			}
			students := make([]student.Student, 0, len(studentIDs))
			for _, id := range studentIDs {
				st, err := desk.Students.Get(ctx, strings.ToUpper(strings.TrimSpace(id)))
				if err != nil {
					return err
				}
				students = append(students, *st)
			}
			report, err := desk.Distribution.DistributeToCompanies(ctx, students, companyIDs)
			if report != nil {
				printReport(out, report)
			}
			return err
		}),
	}
	cmd.Flags().StringSliceVar(&studentIDs, "students", nil, "student ids")
	cmd.Flags().StringSliceVar(&companyIDs, "companies", nil, "company ids, contacted in order")
	cmd.Flags().BoolVar(&auto, "auto", false, "send each student to every eligible company")
	return cmd
}

func printReport(w io.Writer, r *distribution.Report) {
	if r.NoEligibleCompanies {
		fmt.Fprintf(w, "%s: no eligible companies\n", strings.Join(r.StudentIDs, ","))
		return
	}
	for _, o := range r.Outcomes {
		if o.Success {
			fmt.Fprintf(w, "%s\tok\n", o.CompanyID)
		} else {
			fmt.Fprintf(w, "%s\tfailed: %s\n", o.CompanyID, o.Error)
		}
	}
	fmt.Fprintf(w, "sent to %s companies\n", r.Summary())
}

func newActivityCmd(build buildFunc) *cobra.Command {
	var typ, subject string
	var limit int
	var since time.Duration
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent activity, newest first",
		RunE: withApp(build, func(ctx context.Context, desk *app.App, cmd *cobra.Command, _ []string) error {
			opts := activity.ListOptions{Subject: subject, Limit: limit}
			if typ != "" {
				t := activity.Type(typ)
				opts.Type = &t
			}
			if since > 0 {
				opts.Since = time.Now().Add(-since)
			}
			entries, err := desk.Activity.GetRecentActivity(ctx, opts)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.CreatedAt.Local().Format(time.DateTime), e.Type, e.Actor, e.Summary)
			}
			return tw.Flush()
		}),
	}
	cmd.Flags().StringVar(&typ, "type", "", "activity type, e.g. distribution")
	cmd.Flags().StringVar(&subject, "subject", "", "sheet, record id or run id")
	cmd.Flags().IntVarP(&limit, "limit", "n", activity.DefaultCapacity, "maximum entries")
	cmd.Flags().DurationVar(&since, "since", 0, "only entries newer than this, e.g. 24h")
	return cmd
}

func newAPIKeyCmd(build buildFunc) *cobra.Command {
	cmd := &cobra.Command{Use: "apikey", Short: "Manage API keys"}

	var description string
	create := &cobra.Command{
		Use:   "create <operator>",
		Short: "Create a bearer token for an operator and print it once",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(build, func(ctx context.Context, desk *app.App, cmd *cobra.Command, args []string) error {
			token := uuid.NewString()
			if err := desk.APIKeys.Create(ctx, token, args[0], description); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		}),
	}
	create.Flags().StringVar(&description, "description", "", "what the key is for")
	cmd.AddCommand(create)
	return cmd
}

func newSheetCmd(build buildFunc) *cobra.Command {
	cmd := &cobra.Command{Use: "sheet", Short: "Manage local company sheets"}
	cmd.AddCommand(&cobra.Command{
		Use:   "create <company-id>...",
		Short: "Create distribution sheets for companies on the local backend",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(build, func(ctx context.Context, desk *app.App, cmd *cobra.Command, args []string) error {
			for _, id := range args {
				id = strings.ToUpper(strings.TrimSpace(id))
				if err := desk.ProvisionCompanySheet(ctx, id); err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "sheet %s ready\n", id)
			}
			return nil
		}),
	})
	return cmd
}
