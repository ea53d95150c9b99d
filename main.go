package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries what every command needs once flags are parsed.
type app struct {
	configPath string
	verbose    bool
	cfg        *Config
	logger     *log.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           appName + " [file]",
		Short:         "Build and simulate quantum circuits on a grid",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configDir(), a.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if a.verbose {
				cfg.LogLevel = log.DebugLevel
			}
			a.cfg = cfg
			a.logger = newLogger(os.Stderr, cfg.LogLevel)
			cmd.SetContext(withLogger(cmd.Context(), a.logger))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default is <config dir>/"+appName+"/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose logging")

	edit := a.editCommand()
	root.Flags().AddFlagSet(edit.Flags())
	root.RunE = edit.RunE

	root.AddCommand(edit, a.simulateCommand(), a.validateCommand(), a.qasmCommand(), a.serveCommand())
	return root
}

func (a *app) editCommand() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "edit [file]",
		Short: "Open the circuit editor",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			logOut := io.Discard
			if a.cfg.LogFile != "" {
				f, err := openLogFile(a.cfg.LogFile)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				logOut = f
			}
			logger := newLogger(logOut, a.cfg.LogLevel)

			store, err := OpenStore(ctx, a.cfg.StorePath)
			if err != nil {
				logger.Warn("circuit library unavailable", "path", a.cfg.StorePath, "err", err)
				store = nil
			} else {
				defer store.Close()
			}

			c := NewCircuit(a.cfg.Qubits)
			switch {
			case id != "":
				if store == nil {
					return fmt.Errorf("load %s: circuit library unavailable", id)
				}
				if c, err = store.Load(ctx, id); err != nil {
					return fmt.Errorf("load %s: %w", id, err)
				}
			case len(args) == 1:
				if c, err = ImportFile(args[0]); err != nil {
					return fmt.Errorf("import %s: %w", args[0], err)
				}
			}

			m := newModel(c, a.cfg.simulator(logger), store, logger)
			m.savedID = id
			m.simTimeout = a.cfg.SimulatorTimeout

			logger.Info("editor started", "qubits", c.NumQubits(), "simulator", a.cfg.SimulatorURL)
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return ctx.Err()
			}
			return err
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "open the circuit saved under this id")
	return cmd
}

func (a *app) simulateCommand() *cobra.Command {
	var (
		measure  []int
		perQubit bool
	)
	cmd := &cobra.Command{
		Use:   "simulate <file>",
		Short: "Simulate a circuit file and print the measured distribution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := ImportFile(args[0])
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			out := cmd.OutOrStdout()

			if perQubit {
				state, _, err := LocalSimulator{}.Run(ctx, c.Grid)
				if err != nil {
					return err
				}
				for q, p := range state.GetQubitProbabilities() {
					fmt.Fprintf(out, "q[%d]  |0> %.4f  |1> %.4f\n", q, p.Prob0, p.Prob1)
				}
				return nil
			}

			mask := make([]bool, c.NumQubits())
			for _, q := range measure {
				if q < 0 || q >= c.NumQubits() {
					return fmt.Errorf("measure qubit %d: %w", q, ErrOutOfRange)
				}
				mask[q] = true
			}

			sctx, cancel := context.WithTimeout(ctx, a.cfg.SimulatorTimeout)
			defer cancel()
			resp, err := a.cfg.simulator(a.logger).Simulate(sctx, NewSimulateRequest(c, mask))
			if err != nil {
				return err
			}
			printResponse(out, resp, mask)
			return nil
		},
	}
	cmd.Flags().IntSliceVarP(&measure, "measure", "m", nil, "qubits to measure, e.g. 0,2")
	cmd.Flags().BoolVar(&perQubit, "per-qubit", false, "print |0>/|1> probabilities of every qubit")
	return cmd
}

// printResponse writes the distribution over the measured qubits followed by
// the probe readings.
func printResponse(w io.Writer, resp SimulateResponse, mask []bool) {
	var qubits []string
	for q, on := range mask {
		if on {
			qubits = append(qubits, fmt.Sprintf("q%d", q))
		}
	}
	if len(qubits) > 0 {
		fmt.Fprintf(w, "measured %s\n", strings.Join(qubits, " "))
		for i, p := range resp.StateVector {
			fmt.Fprintf(w, "|%0*b>  %.4f\n", len(qubits), i, p)
		}
	}
	for _, pv := range resp.ProbedValues {
		fmt.Fprintf(w, "probe q[%d] col %d  P(1) = %.4f\n", pv.Row, pv.Col, pv.Value)
	}
}

func (a *app) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check that a file is an importable circuit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ImportFile(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %q, %d qubits, %d columns\n",
				args[0], c.Title, c.NumQubits(), c.NumColumns())
			return nil
		},
	}
}

func (a *app) qasmCommand() *cobra.Command {
	var measure []int
	cmd := &cobra.Command{
		Use:   "qasm <file>",
		Short: "Print a circuit file as OpenQASM 2.0",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ImportFile(args[0])
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			mask := make([]bool, c.NumQubits())
			for _, q := range measure {
				if q >= 0 && q < len(mask) {
					mask[q] = true
				}
			}
			qasm, err := c.ToQASM(mask)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), qasm)
			return err
		},
	}
	cmd.Flags().IntSliceVarP(&measure, "measure", "m", nil, "qubits to measure at the end")
	return cmd
}

func (a *app) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulator and circuit library over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			if addr == "" {
				addr = a.cfg.ServerAddr
			}

			store, err := OpenStore(ctx, a.cfg.StorePath)
			if err != nil {
				return err
			}
			defer store.Close()

			srv := &http.Server{
				Addr:              addr,
				Handler:           newRouter(a.cfg.simulator(logger), store, logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", addr, "store", a.cfg.StorePath)
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
				logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
