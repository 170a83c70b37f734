package cmd

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"lotto/config"
	"lotto/models"
	"lotto/service"
)

// outcomeStats is the observed frequency of one outcome over a simulation
type outcomeStats struct {
	Kind     models.OutcomeKind
	Expected float64
	Observed float64
	Hits     int
}

// simulation summarizes repeated draws against one outcome table
type simulation struct {
	Trials     int
	Outcomes   []outcomeStats
	ChiSquared float64
	// ReturnRate is the mean payout per unit staked, transfers counted as lost
	ReturnRate float64
}

func newSimulateCmd() *cobra.Command {
	var (
		trials    int
		tolerance float64
	)

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Check the outcome distribution of the configured table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if trials <= 0 {
				return fmt.Errorf("--trials must be positive, got %d", trials)
			}
			policy, err := service.ParsePolicy(strings.TrimSpace(config.Get().Outcomes))
			if err != nil {
				return fmt.Errorf("invalid LOTTO_OUTCOMES: %w", err)
			}

			sim, err := simulate(policy, service.RandomRoller, trials)
			if err != nil {
				return err
			}
			if !renderSimulation(cmd.OutOrStdout(), sim, tolerance) {
				return fmt.Errorf("observed distribution deviates more than %.2f%% from the table", tolerance*100)
			}
			return nil
		},
	}
	simulateCmd.Flags().IntVar(&trials, "trials", 100000, "number of draws")
	simulateCmd.Flags().Float64Var(&tolerance, "tolerance", 0.01, "allowed absolute deviation per outcome")

	return simulateCmd
}

// simulate draws trials rolls through the same resolution path as a real play
func simulate(policy *service.Policy, roller service.Roller, trials int) (*simulation, error) {
	rules := policy.Rules()
	hits := make([]int, len(rules))
	index := make(map[models.OutcomeKind]int, len(rules))
	for i, rule := range rules {
		index[rule.Kind] = i
	}

	var paid float64
	for range trials {
		rule, err := policy.Resolve(roller(policy.Total()))
		if err != nil {
			return nil, err
		}
		hits[index[rule.Kind]]++

		payout, err := rule.Payout(1)
		if err != nil {
			return nil, err
		}
		paid += float64(payout)
	}

	sim := &simulation{Trials: trials, ReturnRate: paid / float64(trials)}
	for i, rule := range rules {
		expected := float64(rule.Weight) / float64(policy.Total())
		stats := outcomeStats{
			Kind:     rule.Kind,
			Expected: expected,
			Observed: float64(hits[i]) / float64(trials),
			Hits:     hits[i],
		}
		if expected > 0 {
			want := expected * float64(trials)
			sim.ChiSquared += math.Pow(float64(hits[i])-want, 2) / want
		}
		sim.Outcomes = append(sim.Outcomes, stats)
	}

	return sim, nil
}

// renderSimulation prints the comparison and reports whether every outcome is within tolerance
func renderSimulation(w io.Writer, sim *simulation, tolerance float64) bool {
	printHeader(w, "=== Outcome distribution over %d draws ===", sim.Trials)

	ok := true
	for _, o := range sim.Outcomes {
		line := fmt.Sprintf("%-16s expected %6.2f%% | observed %6.2f%% (%d)",
			o.Kind, o.Expected*100, o.Observed*100, o.Hits)
		if math.Abs(o.Observed-o.Expected) <= tolerance {
			printSuccess(w, line+" ✓")
			continue
		}
		ok = false
		printError(w, line+" ✗")
	}

	printInfo(w, fmt.Sprintf("χ²: %.2f", sim.ChiSquared))
	printInfo(w, fmt.Sprintf("Return per unit staked: %.4f", sim.ReturnRate))
	return ok
}
