// In file: cmd/ask/main.go

// Command ask answers hydrology questions from the command line with the
// agent loop and the USGS water data tools.
//
//	ask "What was the discharge of the Virgin River on 2020-01-01?"
//	ask -model gpt-4o-mini -examples
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dileep-u-k/waterdata-mcp/internal/agent"
	"github.com/dileep-u-k/waterdata-mcp/internal/config"
	"github.com/dileep-u-k/waterdata-mcp/internal/llm"
	"github.com/dileep-u-k/waterdata-mcp/internal/nwis"
	"github.com/dileep-u-k/waterdata-mcp/internal/tools"
)

// exampleQueries cover the common question shapes: water use, temperature, flow and quality.
var exampleQueries = []string{
	"Please summarize water use in the state of PA in 2015?",
	"What is the average water temperature in the Mississippi River?",
	"Show me the water flow rate in the Colorado River in 2020.",
	"What is the water quality in the Great Lakes?",
	"How does water usage vary seasonally in Washington DC?",
}

func main() {
	model := flag.String("model", "", "model id (defaults to AGENT_MODEL or "+llm.DefaultAnthropicModel+")")
	examples := flag.Bool("examples", false, "run the built-in example questions")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: ask [-model m] \"question\" | ask [-model m] -examples\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	questions := exampleQueries
	if !*examples {
		if flag.NArg() == 0 {
			flag.Usage()
			os.Exit(2)
		}
		questions = []string{strings.Join(flag.Args(), " ")}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuration Error: %v", err)
	}
	if *model != "" {
		cfg.Agent.Model = *model
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := llm.NewClientForModel(ctx, cfg.Agent.Model, cfg.APIKeys)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	registry, err := tools.NewHydroRegistry(nwis.NewClient(cfg.NWIS, nil))
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	dispatcher := tools.NewDispatcher(registry, cfg.Tools, nil)
	a := agent.New(client, dispatcher, registry.Definitions(), cfg.Agent)

	if failed := run(ctx, a, questions, os.Stdout); failed > 0 {
		os.Exit(1)
	}
}

// run asks the questions one after another through the same conversation, so
// later ones can refer back to earlier answers. It returns how many failed.
func run(ctx context.Context, a *agent.Agent, questions []string, out io.Writer) int {
	var history []llm.Message
	failed := 0
	for _, q := range questions {
		fmt.Fprintf(out, "\nQUERY: %s\n%s\n", q, strings.Repeat("-", 50))
		answer, err := a.Ask(ctx, history, q)
		if err != nil {
			failed++
			fmt.Fprintf(out, "ERROR: %v\n%s\n", err, strings.Repeat("=", 80))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		history = append(history, answer.Messages...)

		fmt.Fprintf(out, "RESPONSE:\n%s\n", answer.Content)
		for _, inv := range answer.Invocations {
			status := "ok"
			if !inv.Result.Success {
				status = "failed: " + inv.Result.Error
			}
			fmt.Fprintf(out, "  tool %s %s (%d rows, %s)\n", inv.Name, inv.Arguments, inv.Result.Rows, status)
		}
		fmt.Fprintln(out, strings.Repeat("=", 80))
	}
	return failed
}
