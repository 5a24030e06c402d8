package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/syncsim/syncsim/sim"
)

// catalogEntry pairs a selection value with its unsafe-mode warning, if any.
type catalog struct {
	Problems    []string `yaml:"problems"`
	Disciplines []string `yaml:"disciplines"`
	Warning     string   `yaml:"unsafe_warning"`
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the available problems and disciplines",
	Long:  "Print the supported (problem, discipline) configuration surface as YAML. Output is written to stdout for piping.",
	Run: func(cmd *cobra.Command, args []string) {
		c := catalog{Warning: sim.UnsafeWarning}
		for _, p := range sim.ProblemKinds() {
			c.Problems = append(c.Problems, string(p))
		}
		for _, d := range sim.Disciplines() {
			c.Disciplines = append(c.Disciplines, string(d))
		}
		out, err := yaml.Marshal(c)
		if err != nil {
			logrus.Fatalf("Marshalling catalog: %v", err)
		}
		fmt.Print(string(out))
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
