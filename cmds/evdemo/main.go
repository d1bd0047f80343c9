package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mandelsoft/logging"
	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/spf13/pflag"

	"github.com/mandelsoft/eventcore/pkg/config"
	"github.com/mandelsoft/eventcore/pkg/ctxutil"
	"github.com/mandelsoft/eventcore/pkg/events"
	"github.com/mandelsoft/eventcore/pkg/lifecycle"
	"github.com/mandelsoft/eventcore/pkg/recorder"
	recservice "github.com/mandelsoft/eventcore/pkg/recorder/service"
	"github.com/mandelsoft/eventcore/pkg/server"
	"github.com/mandelsoft/eventcore/pkg/service"
	"github.com/mandelsoft/eventcore/watch"
)

func Error(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}

func main() {
	var port int
	var period time.Duration
	var configs []string
	var level string = "info"
	var units int = 3
	var interval time.Duration = time.Second
	var ui string
	var diagnostics bool

	flags := pflag.NewFlagSet("evdemo", pflag.ExitOnError)

	flags.IntVarP(&port, "port", "p", config.DEFAULT_PORT, "server port")
	flags.DurationVarP(&period, "period", "t", config.DEFAULT_PERIOD, "frame period")
	flags.StringArrayVarP(&configs, "config", "c", nil, "config file (default evdemo.yaml)")
	flags.StringVarP(&level, "log-level", "L", level, "log level")
	flags.IntVarP(&units, "units", "u", units, "number of demo units")
	flags.DurationVarP(&interval, "interval", "i", interval, "damage interval")
	flags.StringVar(&ui, "ui", "", "directory served below /ui/")
	flags.BoolVarP(&diagnostics, "diagnostics", "D", false, "enable the diagnostic recorder")

	err := flags.Parse(os.Args[1:])
	if err != nil {
		Error("invalid arguments: %s", err)
	}

	l, err := logging.ParseLevel(level)
	if err != nil {
		Error("invalid log level %q", level)
	}
	lctx := logging.DefaultContext()
	lctx.AddRule(logging.NewConditionRule(l, logging.NewRealmPrefix("eventcore")))

	if len(configs) == 0 {
		configs = defaultConfigs()
	}
	fs := osfs.New()
	cfg, err := config.Load(fs, configs)
	if err != nil {
		Error("cannot load config: %s", err)
	}
	if flags.Changed("diagnostics") {
		cfg.Diagnostics.Enabled = &diagnostics
	}
	if flags.Changed("port") {
		cfg.Server.Port = &port
	}
	if !flags.Changed("period") {
		period = cfg.Period()
	}

	reg := events.NewRegistry(append(cfg.RegistryOptions(), events.WithLogger(lctx))...)

	ropts := []recorder.Option{
		recorder.WithLogger(lctx),
		recorder.WithRecording(cfg.Record()),
		recorder.WithClearOnSession(cfg.ClearOnSession()),
	}
	if p := cfg.PreferencesPath(); p != "" {
		ropts = append(ropts, recorder.WithPreferences(fs, p))
	}
	rec, err := recorder.New(ropts...)
	if err != nil {
		Error("cannot create recorder: %s", err)
	}
	if cfg.DiagnosticsEnabled() {
		rec.Attach(reg)
	}

	relay := lifecycle.NewRelay(reg)
	relay.OnAwake(rec.BeginSession)
	NewArena(relay, units, interval)

	loop := lifecycle.NewLoop(relay, period, lifecycle.WithLoopLogger(lctx), lifecycle.WithName("evdemo"))

	srv := server.NewServer(cfg.Port(), true, 10*time.Second)
	srv.Handle("/watch", watch.WatchHttpHandler[recorder.Request, recorder.RecordedEvent](rec))
	recservice.New(rec, "/recorder").RegisterHandler(srv)
	if ui != "" {
		d, err := server.NewDirectoryHandlerFor(ui, "/ui")
		if err != nil {
			Error("cannot serve %q: %s", ui, err)
		}
		d.RegisterHandler(srv)
	}

	services := service.New(ctxutil.SignalContext(context.Background()))
	services.Add(loop)
	services.Add(srv)

	err = services.Start()
	if err != nil {
		Error("cannot start services: %s", err)
	}
	log.Info("diagnostics enabled: {{enabled}}", "enabled", reg.DiagnosticsEnabled())
	err = services.Wait()
	if err != nil {
		Error("%s", err)
	}
}

func defaultConfigs() []string {
	var list []string
	if dir, err := os.UserConfigDir(); err == nil {
		list = append(list, filepath.Join(dir, "evdemo.yaml"))
	}
	return append(list, "evdemo.yaml")
}
