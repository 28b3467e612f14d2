package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/switchyard"
	"github.com/aretw0/switchyard/internal/logging"
	"github.com/aretw0/switchyard/pkg/adapters/memory"
	"github.com/aretw0/switchyard/pkg/caps"
	"github.com/aretw0/switchyard/pkg/catalog"
	"github.com/aretw0/switchyard/pkg/domain"
	"github.com/aretw0/switchyard/pkg/ports"
)

var planFlags struct {
	catalogPath   string
	inputs        []string
	outputs       []string
	jsonOut       bool
	maxChain      int
	klassOrdering bool
	exhaustive    bool
	verbose       bool
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a transformation graph offline",
	Long: `Loads a factory catalog and runs one planning pass for the given
input and output caps, printing the selected proposals and their cost.
Each --input/--output takes "id=caps" or bare caps text.

Exits with code 2 when no set of chains can satisfy every output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlan()
	},
}

func init() {
	planCmd.Flags().StringVar(&planFlags.catalogPath, "catalog", "catalog.yaml", "Catalog file to load")
	planCmd.Flags().StringArrayVar(&planFlags.inputs, "input", nil, "Input caps, repeatable")
	planCmd.Flags().StringArrayVar(&planFlags.outputs, "output", nil, "Output caps, repeatable")
	planCmd.Flags().BoolVar(&planFlags.jsonOut, "json", false, "Print the full plan as JSON")
	planCmd.Flags().IntVar(&planFlags.maxChain, "max-chain-length", domain.DefaultMaxChainLength, "Chain length bound")
	planCmd.Flags().BoolVar(&planFlags.klassOrdering, "klass-ordering", false, "Enforce parser/decoder/converter/encoder stage order")
	planCmd.Flags().BoolVar(&planFlags.exhaustive, "exhaustive", false, "Explore every chain length instead of the first productive one")
	planCmd.Flags().BoolVarP(&planFlags.verbose, "verbose", "v", false, "Log the planning pass to stderr")
	rootCmd.AddCommand(planCmd)
}

func runPlan() error {
	if len(planFlags.inputs) == 0 || len(planFlags.outputs) == 0 {
		return fmt.Errorf("at least one --input and one --output are required")
	}

	cat, err := catalog.Load(planFlags.catalogPath)
	if err != nil {
		return err
	}

	opts := []switchyard.Option{switchyard.WithMaxChainLength(planFlags.maxChain)}
	if planFlags.verbose {
		opts = append(opts, switchyard.WithLogger(logging.New(slog.LevelDebug)))
	}
	if planFlags.klassOrdering {
		opts = append(opts, switchyard.WithKlassOrdering())
	}
	if planFlags.exhaustive {
		opts = append(opts, switchyard.WithExhaustiveSearch())
	}

	bin, err := switchyard.New(cat.Policy(), memory.NewHost(), opts...)
	if err != nil {
		return err
	}

	type declaredInput struct {
		in *switchyard.Input
		c  caps.Caps
	}
	var ins []declaredInput
	for i, spec := range planFlags.inputs {
		id, c, err := parsePortSpec(spec, fmt.Sprintf("in_%d", i))
		if err != nil {
			return err
		}
		in, err := bin.AddInput(id)
		if err != nil {
			return err
		}
		ins = append(ins, declaredInput{in: in, c: c})
	}

	for i, spec := range planFlags.outputs {
		id, c, err := parsePortSpec(spec, fmt.Sprintf("out_%d", i))
		if err != nil {
			return err
		}
		if _, err := bin.AddOutput(id, memory.NewAppSink(c).Pad()); err != nil {
			return err
		}
	}

	// Declaring the last input's caps triggers the planning pass.
	for _, d := range ins {
		d.in.PushEvent(ports.Event{Type: ports.EventCaps, Caps: d.c})
	}

	plan := bin.Plan()
	if plan == nil {
		return fmt.Errorf("planning did not run; are the input caps concrete?")
	}

	if planFlags.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(plan); err != nil {
			return err
		}
	} else {
		printPlan(plan)
	}

	if len(plan.Selected) == 0 {
		os.Exit(2)
	}
	return nil
}

// parsePortSpec reads "id=caps" or bare caps text.
func parsePortSpec(spec, fallbackID string) (string, caps.Caps, error) {
	id := fallbackID
	text := spec
	if head, rest, ok := strings.Cut(spec, "="); ok && !strings.ContainsAny(head, ",;/ ") {
		id, text = head, rest
	}
	c, err := caps.Parse(text)
	if err != nil {
		return "", caps.Caps{}, fmt.Errorf("port %s: %w", id, err)
	}
	return id, c, nil
}

func printPlan(plan *domain.Plan) {
	if len(plan.Selected) == 0 {
		fmt.Println("no viable cover: all outputs left unconnected")
		return
	}

	fmt.Printf("selected %d proposal(s), total cost %d\n", len(plan.Selected), plan.TotalCost)
	for _, h := range plan.Selected {
		p := plan.Proposals[h]
		switch p.Parent.Kind {
		case domain.ParentRootInput:
			fmt.Printf("- %s -> %s (cost %d)\n", p.Parent.Endpoint, p.SrcEndpoint, p.Cost)
		case domain.ParentBranch:
			fmt.Printf("- branch of #%d step %d -> %s (cost %d)\n",
				p.Parent.Proposal, p.Parent.Step, p.SrcEndpoint, p.Cost)
		}
		if p.Passthrough() {
			fmt.Println("    passthrough")
			continue
		}
		for _, step := range p.Steps {
			fmt.Printf("    %s: %s -> %s\n", step.FactoryID, step.SinkCaps, step.SrcCaps)
		}
	}
}
