package commands

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"

	"github.com/warehouse-tools/priceplan/pkg/models/domain"
	"github.com/warehouse-tools/priceplan/pkg/services/history"
	"github.com/warehouse-tools/priceplan/pkg/services/optimizer"
	"github.com/warehouse-tools/priceplan/pkg/services/planner"
)

// Renderer turns a finished plan report into console output.
type Renderer interface {
	Handle(report *domain.Report) error
}

type PlanCmd struct {
	profile    string
	days       int
	horizon    int
	categories []string
	iterations int
	seed       int64
	minPrice   float64
	maxPrice   float64
	lossRate   float64
	format     string

	defaultProfile string
	planner        planner.Planner
	explorer       history.Explorer
	text           Renderer
	table          Renderer
}

func NewPlanCmd(
	pl planner.Planner,
	explorer history.Explorer,
	text Renderer,
	table Renderer,
	defaultProfile string,
) *cobra.Command {
	pc := &PlanCmd{
		defaultProfile: defaultProfile,
		planner:        pl,
		explorer:       explorer,
		text:           text,
		table:          table,
	}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute a production price plan from sales history",
		RunE:  pc.run,
	}

	defaults := optimizer.DefaultConstraints()

	cmd.Flags().StringVar(&pc.profile, "profile", "", "Sales-history source profile to plan from")
	cmd.Flags().IntVar(&pc.days, "days", 0, "Days of history to load (default from config)")
	cmd.Flags().IntVar(&pc.horizon, "horizon", 0, "Days to plan ahead (default from config)")
	cmd.Flags().StringSliceVar(&pc.categories, "category", nil, "Restrict planning to these categories")
	cmd.Flags().IntVar(&pc.iterations, "iterations", 0, "Annealing iterations (0 returns the baseline schedule)")
	cmd.Flags().Int64Var(&pc.seed, "seed", 0, "Random seed for a reproducible schedule")
	cmd.Flags().Float64Var(&pc.minPrice, "min-price", defaults.MinPrice, "Lower price bound")
	cmd.Flags().Float64Var(&pc.maxPrice, "max-price", defaults.MaxPrice, "Upper price bound")
	cmd.Flags().Float64Var(&pc.lossRate, "loss-rate", defaults.LossRate, "Perishability loss rate applied to profits")
	cmd.Flags().StringVar(&pc.format, "format", "table", "Output format: table or text")

	return cmd
}

func (pc *PlanCmd) run(cmd *cobra.Command, args []string) error {
	renderer, err := pc.renderer()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	profile := pc.profile
	if profile == "" {
		profile = pc.defaultProfile
	}
	provider, err := pc.explorer.GetProvider(ctx, profile)
	if err != nil {
		return fmt.Errorf("resolve source profile %q: %w", profile, err)
	}

	params := optimizer.DefaultParams()
	if cmd.Flags().Changed("iterations") {
		params.MaxIterations = pc.iterations
	}
	if cmd.Flags().Changed("seed") {
		params.Seed = pc.seed
	}

	run, err := pc.planner.Execute(ctx, planner.RunSpec{
		Categories: pc.categories,
		Provider:   provider,
		Days:       pc.days,
		Horizon:    pc.horizon,
		Constraints: domain.Constraints{
			MinPrice: pc.minPrice,
			MaxPrice: pc.maxPrice,
			LossRate: pc.lossRate,
		},
		Params: params,
	})
	if err != nil {
		return fmt.Errorf("planning run failed: %w", err)
	}

	return renderer.Handle(buildReport(run))
}

func (pc *PlanCmd) renderer() (Renderer, error) {
	switch pc.format {
	case "table":
		return pc.table, nil
	case "text":
		return pc.text, nil
	default:
		return nil, fmt.Errorf("unsupported format %q (expected table or text)", pc.format)
	}
}

// buildReport flattens a finished run into renderable sections: one
// convergence summary, then one section per scheduled day.
func buildReport(run *domain.OptimizationRun) *domain.Report {
	plan := run.Plan

	report := &domain.Report{
		Title:       "Production price plan",
		TotalAmount: plan.TotalProfit,
		Currency:    "USD",
	}
	if len(plan.Days) > 0 {
		report.Period = domain.TimePeriod{
			Start:    plan.Days[0].Date,
			End:      plan.Days[len(plan.Days)-1].Date,
			Duration: len(plan.Days),
		}
	}

	report.Sections = append(report.Sections, domain.ReportSection{
		Title: "Optimization",
		Summary: map[string]interface{}{
			"Run": run.ID,
		},
		Details: []domain.ReportDetail{
			{Name: "Iterations", Value: plan.Convergence.Iterations, Description: "Annealing steps performed"},
			{
				Name:        "Final temperature",
				Value:       fmt.Sprintf("%.4f", plan.Convergence.FinalTemperature),
				Description: "Acceptance temperature at the last step",
			},
			{
				Name:        "Improvement",
				Value:       fmt.Sprintf("%+.1f%%", plan.Convergence.ImprovementRate*100),
				Description: "Profit gain over the baseline schedule",
			},
			{
				Name:        "Average markup",
				Value:       fmt.Sprintf("%.1f%%", plan.AverageMarkup*100),
				Description: "Mean optimal price over forecast wholesale cost",
			},
		},
	})

	for _, day := range plan.Days {
		section := domain.ReportSection{
			Title: day.Date.Format("2006-01-02"),
			Summary: map[string]interface{}{
				"Day profit": fmt.Sprintf("USD %.2f", day.TotalProfit),
			},
		}

		categories := maps.Keys(day.Categories)
		sort.Strings(categories)
		for _, category := range categories {
			entry := day.Categories[category]
			section.Details = append(section.Details, domain.ReportDetail{
				Name:  category,
				Value: fmt.Sprintf("%.2f", entry.OptimalPrice),
				Unit:  "USD",
				Description: fmt.Sprintf("%.1f units expected, %.2f profit",
					entry.ExpectedDemand, entry.ExpectedProfit),
			})
		}

		report.Sections = append(report.Sections, section)
	}

	return report
}
