package cli

import (
	"fmt"
	"io"
	"math/rand/v2"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/scoring"
)

// TeamsResult is the JSON shape of a team draw.
type TeamsResult struct {
	TeamA []string `json:"team_a"`
	TeamB []string `json:"team_b"`
}

// NewTeamsCommand creates the teams command.
func NewTeamsCommand(rootOpts *RootOptions) *cobra.Command {
	var seed uint64

	cmd := &cobra.Command{
		Use:   "teams <player>...",
		Short: "Split an even number of players into two random teams",
		Long: `Shuffle the players and split them into two equal teams.

A non-zero --seed makes the draw reproducible.

Examples:
  ots teams ana bo cy di
  ots teams ana bo --seed 7`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rng *rand.Rand
			if seed != 0 {
				rng = rand.New(rand.NewPCG(seed, seed))
			}

			a, b, err := scoring.RandomizeTeams(args, rng)
			if err != nil {
				return WrapExitError(ExitCommandError, "cannot draw teams", err)
			}
			result := TeamsResult{TeamA: a, TeamB: b}
			return newFormatter(cmd, rootOpts).Render(result, func(w io.Writer) {
				fmt.Fprintf(w, "Team A: %s\n", strings.Join(a, ", "))
				fmt.Fprintf(w, "Team B: %s\n", strings.Join(b, ", "))
			})
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 draws a fresh shuffle)")
	return cmd
}
