package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/memsys"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/sim"
	"github.com/sarchlab/cachesim/sim/hooking"
	"github.com/sarchlab/cachesim/simulation"
)

// Environment variables that configure the ClickHouse recording backend.
const (
	EnvClickHouseAddr     = "CACHESIM_CLICKHOUSE_ADDR"
	EnvClickHouseDatabase = "CACHESIM_CLICKHOUSE_DATABASE"
	EnvClickHouseUsername = "CACHESIM_CLICKHOUSE_USERNAME"
	EnvClickHousePassword = "CACHESIM_CLICKHOUSE_PASSWORD"
)

type runOptions struct {
	configFile    string
	traceFiles    []string
	recordName    string
	recordBackend string
	recordFrom    uint64
	recordTo      uint64
	monitor       bool
	monitorAssets string
	port          int
	openBrowser   bool
	limit         uint64
	summary       bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay traces through the simulated memory hierarchy.",
	Long: `Replay one trace per core through the memory hierarchy described ` +
		`by the configuration, then print the statistics of every component.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(),
			os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runSimulation(ctx, cmd, runOpts)
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runOpts.configFile, "config", "", "YAML configuration file")
	f.StringArrayVar(&runOpts.traceFiles, "trace", nil,
		"Trace file of a core, repeat once per core (.gz is decompressed)")
	f.StringVar(&runOpts.recordName, "record", "",
		"Record every access under this name")
	f.StringVar(&runOpts.recordBackend, "record-backend", "sqlite",
		"Backend of the recording (sqlite, clickhouse)")
	f.Uint64Var(&runOpts.recordFrom, "record-from", 0,
		"Only record accesses issued from this cycle")
	f.Uint64Var(&runOpts.recordTo, "record-to", 0,
		"Only record accesses issued up to this cycle, 0 means the end")
	f.BoolVar(&runOpts.monitor, "monitor", false,
		"Serve live statistics over HTTP while running")
	f.StringVar(&runOpts.monitorAssets, "monitor-assets", "",
		"Serve the monitoring page from this directory")
	f.IntVar(&runOpts.port, "port", 0,
		"Port of the monitoring server, 0 picks a free port")
	f.BoolVar(&runOpts.openBrowser, "open-browser", false,
		"Open the monitoring page in a browser")
	f.Uint64Var(&runOpts.limit, "limit", 0,
		"Stop after this many accesses, 0 means no limit")
	f.BoolVar(&runOpts.summary, "summary", false,
		"Print cache event counts and the average delay of each core")

	_ = runCmd.MarkFlagRequired("trace")

	rootCmd.AddCommand(runCmd)
}

func runSimulation(ctx context.Context, cmd *cobra.Command, o runOptions) error {
	c, err := loadConfig(o.configFile)
	if err != nil {
		return err
	}

	logrus.WithField("config", o.configFile).Debugf("configuration:\n%s", c)

	builder, err := c.MemsysBuilder()
	if err != nil {
		return err
	}

	clock := sim.NewClock(0)

	ms, err := builder.WithTimeTeller(clock).Build()
	if err != nil {
		return err
	}

	attachLogHooks(ms)

	var sum *summary
	if o.summary {
		sum = attachSummary(ms)
	}

	traces, err := openTraces(o.traceFiles)
	if err != nil {
		return err
	}
	defer closeTraces(traces)

	b := simulation.MakeBuilder().
		WithClock(clock).
		WithMemsys(ms).
		WithTraces(traces...).
		WithLimit(o.limit).
		WithLogger(logrus.StandardLogger())

	if o.monitor {
		monitor, monErr := startMonitor(o.port, o.openBrowser, o.monitorAssets)
		if monErr != nil {
			return monErr
		}
		defer stopMonitor(monitor)

		b = b.WithMonitor(monitor)
	}

	var recorder datarecording.DataRecorder
	if o.recordName != "" {
		recorder, err = newRecorder(o.recordBackend, o.recordName)
		if err != nil {
			return err
		}

		b = b.WithDataRecorder(recorder).
			WithRecordWindow(o.recordFrom, o.recordTo)
	}

	s, err := b.Build()
	if err != nil {
		if recorder != nil {
			_ = recorder.Close()
		}

		return err
	}

	runErr := s.Run(ctx)

	s.Report(cmd.OutOrStdout())

	if sum != nil {
		sum.print(cmd.OutOrStdout())
	}

	if err := s.Terminate(); err != nil {
		logrus.WithError(err).Error("failed to close the recording")
	}

	return runErr
}

func attachLogHooks(ms *memsys.Memsys) {
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		ms.AcceptHook(hooking.NewLogHook(logrus.StandardLogger(),
			memsys.HookPosAccess))
	}

	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		logHook := hooking.NewLogHook(logrus.StandardLogger(),
			cache.HookPosEvict)
		for _, c := range ms.Caches() {
			c.AcceptHook(logHook)
		}
	}
}

type summary struct {
	events *hooking.CountHook
	delays *hooking.AverageTracer
}

func attachSummary(ms *memsys.Memsys) *summary {
	s := &summary{
		events: hooking.NewCountHook(),
		delays: hooking.NewAverageTracer(coreDelay),
	}

	for _, c := range ms.Caches() {
		c.AcceptHook(s.events)
	}

	ms.AcceptHook(s.delays)

	return s
}

func coreDelay(ctx hooking.HookCtx) (string, float64, bool) {
	rec, ok := ctx.Item.(memsys.AccessRecord)
	if !ok {
		return "", 0, false
	}

	return fmt.Sprintf("core %d", rec.CoreID), float64(rec.Delay), true
}

func (s *summary) print(w io.Writer) {
	fmt.Fprintln(w, "Cache events:")

	for _, name := range s.events.Names() {
		fmt.Fprintf(w, "  %-20s %d\n", name, s.events.Count(name))
	}

	fmt.Fprintln(w, "Average delay:")

	for _, key := range s.delays.Keys() {
		fmt.Fprintf(w, "  %-20s %10.3f (%d accesses)\n",
			key, s.delays.Average(key), s.delays.Count(key))
	}
}

func openTraces(paths []string) ([]*trace.Reader, error) {
	traces := make([]*trace.Reader, 0, len(paths))

	for _, p := range paths {
		r, err := trace.Open(p)
		if err != nil {
			closeTraces(traces)
			return nil, err
		}

		traces = append(traces, r)
	}

	return traces, nil
}

func closeTraces(traces []*trace.Reader) {
	for _, t := range traces {
		if err := t.Close(); err != nil {
			logrus.WithError(err).WithField("trace", t.Name()).
				Warn("failed to close trace")
		}
	}
}

func newRecorder(
	backend, name string,
) (datarecording.DataRecorder, error) {
	switch backend {
	case "sqlite":
		return datarecording.NewDataRecorder(name), nil
	case "clickhouse":
		r, err := datarecording.NewClickHouseRecorder(
			datarecording.ClickHouseOptions{
				Addr:     os.Getenv(EnvClickHouseAddr),
				Database: os.Getenv(EnvClickHouseDatabase),
				Username: os.Getenv(EnvClickHouseUsername),
				Password: os.Getenv(EnvClickHousePassword),
			})
		if err != nil {
			return nil, err
		}

		return r, nil
	default:
		return nil, fmt.Errorf("unknown recording backend %q", backend)
	}
}

func startMonitor(
	port int,
	openBrowser bool,
	assetDir string,
) (*monitoring.Monitor, error) {
	m := monitoring.NewMonitor().
		WithPortNumber(port).
		WithAssetDir(assetDir)
	if err := m.StartServer(); err != nil {
		return nil, err
	}

	logrus.Infof("Monitoring simulation with %s", m.URL())

	if openBrowser {
		if err := m.OpenInBrowser(); err != nil {
			logrus.WithError(err).Warn("failed to open browser")
		}
	}

	return m, nil
}

func stopMonitor(m *monitoring.Monitor) {
	if err := m.StopServer(context.Background()); err != nil {
		logrus.WithError(err).Warn("failed to stop the monitoring server")
	}
}
