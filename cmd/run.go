package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/solarbay/config"
	"github.com/kilianp07/solarbay/core/model"
	"github.com/kilianp07/solarbay/core/report"
	"github.com/kilianp07/solarbay/core/sim"
	"github.com/kilianp07/solarbay/infra/logger"
	"github.com/kilianp07/solarbay/infra/pvwatts"
	"github.com/kilianp07/solarbay/pkg/export"
)

var (
	runSteps int
	runOut   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a batch simulation and export the results",
	RunE:  runBatch,
}

func init() {
	runCmd.Flags().IntVar(&runSteps, "steps", 24, "number of simulation steps")
	runCmd.Flags().StringVar(&runOut, "out", "", "CSV output path (default stdout)")
	rootCmd.AddCommand(runCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if runSteps <= 0 {
		return fmt.Errorf("steps must be positive")
	}

	series, err := pvwatts.NewSeries(cfg.PVWatts, logger.New("pv-series"))
	if err != nil {
		return err
	}
	simulator, err := sim.New(cfg.Simulation, series, logger.New("simulator"))
	if err != nil {
		return err
	}
	if err := simulator.Start(time.Time{}); err != nil {
		return err
	}

	results := make([]model.StepResult, 0, runSteps)
	for i := 0; i < runSteps; i++ {
		rec, err := simulator.Tick()
		if err != nil {
			return fmt.Errorf("tick %d: %w", i, err)
		}
		results = append(results, rec)
	}
	if err := simulator.Stop(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runOut != "" {
		f, err := os.Create(runOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if err := export.WriteCSV(out, results); err != nil {
		return err
	}

	summary := report.Summarize(results, cfg.Simulation.StepDuration().Hours())
	fmt.Fprintf(cmd.ErrOrStderr(),
		"steps=%d pv=%.2fkWh ev=%.2fkWh imported=%.2fkWh exported=%.2fkWh cost=%.2f\n",
		summary.Steps, summary.PVEnergyKWh, summary.EVEnergyKWh,
		summary.ImportedEnergyKWh, summary.ExportedEnergyKWh, summary.TotalCost)
	return nil
}
