package app

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/mandelsoft/eventcore/pkg/recorder"
)

// Control posts a recorder control request.
type Control struct {
	cmd *cobra.Command

	mainopts *Options
	action   string
}

func NewControl(opts *Options, action string, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   action,
		Short: short,
	}
	TweakCommand(cmd)

	c := &Control{
		cmd:      cmd,
		mainopts: opts,
		action:   action,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	return cmd
}

func (c *Control) Run(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("no arguments expected")
	}
	post, err := http.Post(c.mainopts.GetURL()+c.action, "application/json", nil)
	if err != nil {
		return err
	}
	status, err := GetStatus(post)
	if err != nil {
		return fmt.Errorf("%s failed: %w", c.action, err)
	}
	PrintStatus(c.cmd.OutOrStdout(), status)
	return nil
}

type Status struct {
	cmd *cobra.Command

	mainopts *Options
	output   string
}

func NewStatus(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <options>",
		Short: "show recorder status",
	}
	TweakCommand(cmd)

	c := &Status{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	flags := cmd.Flags()
	flags.StringVarP(&c.output, "output", "o", "", "output format (json, yaml)")
	return cmd
}

func (c *Status) Run(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("no arguments expected")
	}
	get, err := http.Get(c.mainopts.GetURL() + "status")
	if err != nil {
		return err
	}
	status, err := GetStatus(get)
	if err != nil {
		return err
	}
	return Output(c.cmd.OutOrStdout(), c.output, status, func(w io.Writer) error {
		PrintStatus(w, status)
		return nil
	})
}

func GetStatus(r *http.Response) (*recorder.Status, error) {
	data, err := ResponseData(r)
	if err != nil {
		return nil, err
	}
	var status recorder.Status
	err = json.Unmarshal(data, &status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func PrintStatus(w io.Writer, s *recorder.Status) {
	state := "stopped"
	if s.Recording {
		state = "recording"
	}
	fmt.Fprintf(w, "%s (%d events", state, s.Count)
	if s.ClearOnSession {
		fmt.Fprintf(w, ", cleared on session start")
	}
	fmt.Fprintf(w, ")\n")
}
