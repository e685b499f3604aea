package cli

import (
	"fmt"

	"github.com/ashureev/orlo/internal/domain"
	"github.com/ashureev/orlo/internal/tui"
	"github.com/ashureev/orlo/internal/view"
	"github.com/spf13/cobra"
)

func newPlanCmd(app *App) *cobra.Command {
	var (
		days, hours        int
		subject, goal      string
		startDate, endDate string
		dryRun             bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate one study plan and print it",
		Long:  "Generate a study plan from flags. Out-of-range values are clamped and unknown subjects fall back to Mathematics.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			today := timeNow()

			req := domain.StudyPlanRequest{
				DaysUntilTest: days,
				Subject:       domain.Subject(subject),
				DailyHours:    hours,
				Goal:          goal,
				StartDate:     domain.ParseFormDate(startDate, today),
				EndDate:       domain.ParseFormDate(endDate, today),
			}.Normalize(today)

			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintln(out, req.Prompt())
				return nil
			}

			logger := newLogger(app.Stderr, quietLevel(app.Config.SlogLevel()))
			gen, err := app.NewGenerator(ctx, app.Config, logger)
			if err != nil {
				return fmt.Errorf("create generator: %w", err)
			}

			plan, err := gen.Generate(ctx, req.Prompt())
			if err != nil {
				return fmt.Errorf("generate study plan: %w", err)
			}

			printer := tui.NewPrinter(app.IsInteractive(), 80)
			page := view.Page{Plan: &view.PlanSection{Heading: view.PlanHeading, Body: plan}}
			fmt.Fprint(out, printer.Plan(page))
			return nil
		},
	}

	def := domain.DefaultStudyPlanRequest(timeNow())
	cmd.Flags().IntVar(&days, "days", def.DaysUntilTest, "days until test/quiz (1-365)")
	cmd.Flags().StringVar(&subject, "subject", string(def.Subject), "subject: Mathematics, Science, History or Language")
	cmd.Flags().IntVar(&hours, "hours", def.DailyHours, "daily study hours (1-10)")
	cmd.Flags().StringVar(&goal, "goal", def.Goal, "study goal")
	cmd.Flags().StringVar(&startDate, "start", "", "start date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&endDate, "end", "", "end date YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the prompt without calling the service")

	return cmd
}
