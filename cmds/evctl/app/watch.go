package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mandelsoft/eventcore/pkg/recorder"
	"github.com/mandelsoft/eventcore/watch"
)

type Watch struct {
	cmd *cobra.Command

	mainopts *Options
	count    int
	output   string
}

func NewWatch(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [<kind>] <options>",
		Short: "watch recorded events",
	}
	TweakCommand(cmd)

	c := &Watch{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	flags := cmd.Flags()
	flags.IntVarP(&c.count, "count", "n", 0, "stop after n events")
	flags.StringVarP(&c.output, "output", "o", "", "output format (json)")
	return cmd
}

func (c *Watch) Run(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("only one optional kind argument possible")
	}
	req := recorder.Request{}
	if len(args) == 1 {
		req.Kind = args[0]
	}
	if c.output != "" && c.output != "json" {
		return fmt.Errorf("invalid output format %q", c.output)
	}

	a, err := c.mainopts.GetWatchURL()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(c.cmd.Context())
	defer cancel()

	h := &handler{w: c.cmd.OutOrStdout(), json: c.output == "json", count: c.count, cancel: cancel}
	s, err := Consume(ctx, a, req, h)
	if err != nil {
		return err
	}
	return s.Wait()
}

func Consume(ctx context.Context, address string, req recorder.Request, h recorder.EventHandler) (watch.Syncher, error) {
	c := watch.NewClient[recorder.Request, recorder.RecordedEvent](address)
	return c.Register(ctx, req, h)
}

type handler struct {
	lock   sync.Mutex
	w      io.Writer
	json   bool
	count  int
	cancel context.CancelFunc
}

func (h *handler) HandleEvent(e recorder.RecordedEvent) {
	h.lock.Lock()
	defer h.lock.Unlock()

	if h.json {
		data, _ := json.Marshal(e)
		fmt.Fprintf(h.w, "%s\n", string(data))
	} else {
		fmt.Fprintf(h.w, "%s %s %s\n", e.TimeString, e.Kind, FormatFields(e.Fields))
	}
	if h.count > 0 {
		h.count--
		if h.count == 0 {
			h.cancel()
		}
	}
}
