package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agriconnect/service-dashboard/internal/models"
	"github.com/agriconnect/service-dashboard/internal/services"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Interactively switch periods and watch the dashboard update",
	Long: `watch reads commands from stdin:
  1day | 30days | 1year   select a period
  r                       retry the current period
  q                       quit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}

		orchestrator := services.NewOrchestrator(env.client, env.session, &services.OrchestratorConfig{
			Location: env.location,
			Timeout:  env.timeout,
		}, env.logger)

		views, stop := orchestrator.Subscribe()
		done := make(chan struct{})
		go func() {
			defer close(done)
			for v := range views {
				renderView(cmd.OutOrStdout(), v, env)
			}
		}()

		if err := orchestrator.Select(models.PeriodMonth); err != nil {
			return err
		}
		runCommands(cmd.InOrStdin(), cmd.ErrOrStderr(), orchestrator)

		stop()
		orchestrator.Close()
		<-done
		return nil
	},
}

// selector is the part of the orchestrator driven by user input.
type selector interface {
	Select(period models.Period) error
	Retry() error
}

func runCommands(in io.Reader, errOut io.Writer, s selector) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "q", "quit", "exit":
			return
		case "r", "retry":
			if err := s.Retry(); err != nil {
				fmt.Fprintln(errOut, err)
			}
		default:
			period, err := models.ParsePeriod(line)
			if err != nil {
				fmt.Fprintln(errOut, err)
				continue
			}
			if err := s.Select(period); err != nil {
				fmt.Fprintln(errOut, err)
			}
		}
	}
}

func renderView(out io.Writer, v services.View, env *environment) {
	switch v.State {
	case services.StateLoading:
		if v.Period != "" {
			fmt.Fprintf(out, "Loading %s...\n", v.Period.Label())
		}
	case services.StateError:
		fmt.Fprintf(out, "Failed to load %s: %v (type r to retry)\n", v.Period.Label(), v.Err)
	case services.StateReady:
		fmt.Fprintln(out, strings.Repeat("-", 40))
		renderDashboard(out, v.Dashboard, env.location)
	}
}
