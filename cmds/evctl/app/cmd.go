package app

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/spf13/cobra"

	"github.com/mandelsoft/eventcore/pkg/utils"
)

type Options struct {
	address string
	fs      vfs.FileSystem
}

func (o *Options) base() string {
	a := o.address
	if !strings.HasPrefix(a, "http://") && !strings.HasPrefix(a, "https://") {
		a = "http://" + a
	}
	if !strings.HasSuffix(a, "/") {
		a += "/"
	}
	return a
}

// GetURL returns the url of the recorder resources.
func (o *Options) GetURL() string {
	return o.base() + "recorder/"
}

// GetWatchURL returns the websocket url of the event stream.
func (o *Options) GetWatchURL() (string, error) {
	u, err := url.Parse(o.base())
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s/watch", scheme, u.Host), nil
}

// New creates the evctl command. The optional file system is used
// to read the configuration files.
func New(fss ...vfs.FileSystem) *cobra.Command {
	opts := &Options{
		fs: utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), fss...),
	}
	opts.address = *GetConfig(opts.fs).Server

	maincmd := &cobra.Command{
		Use:   "evctl <options> <cmd> <args>",
		Short: "control the event recorder",
		Long: `
This command can be used to inspect and control the recorder
of an event host. Recorded events can be listed and watched,
recording can be started, stopped and cleared.
`,
		Run:              nil,
		TraverseChildren: true,
		SilenceUsage:     true,
	}

	flags := maincmd.Flags()
	flags.StringVarP(&opts.address, "server", "s", opts.address, "event host")

	maincmd.AddCommand(NewHistory(opts))
	maincmd.AddCommand(NewStatus(opts))
	maincmd.AddCommand(NewControl(opts, "start", "start recording"))
	maincmd.AddCommand(NewControl(opts, "stop", "stop recording"))
	maincmd.AddCommand(NewControl(opts, "clear", "clear recorded events"))
	maincmd.AddCommand(NewWatch(opts))
	return maincmd
}

func TweakCommand(cmd *cobra.Command) {
	cmd.DisableFlagsInUseLine = true
	cmd.TraverseChildren = true
	cmd.SilenceUsage = true
}
