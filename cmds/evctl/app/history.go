package app

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mandelsoft/eventcore/pkg/recorder"
	"github.com/mandelsoft/eventcore/pkg/recorder/service"
	"github.com/mandelsoft/eventcore/pkg/utils"
)

type History struct {
	cmd *cobra.Command

	mainopts *Options
	kinds    []string
	output   string
}

func NewHistory(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <options>",
		Short: "list recorded events",
	}
	TweakCommand(cmd)

	c := &History{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	flags := cmd.Flags()
	flags.StringSliceVarP(&c.kinds, "kind", "k", nil, "event kind")
	flags.StringVarP(&c.output, "output", "o", "", "output format (json, yaml)")
	return cmd
}

func (c *History) Run(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("no arguments expected")
	}

	q := url.Values{}
	for _, k := range c.kinds {
		q.Add("kind", k)
	}
	u := c.mainopts.GetURL() + "events"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	get, err := http.Get(u)
	if err != nil {
		return err
	}
	data, err := ResponseData(get)
	if err != nil {
		return err
	}
	var list service.Items
	err = json.Unmarshal(data, &list)
	if err != nil {
		return err
	}
	return Output(c.cmd.OutOrStdout(), c.output, &list, func(w io.Writer) error {
		PrintEvents(w, list.Items)
		return nil
	})
}

func PrintEvents(w io.Writer, list []recorder.RecordedEvent) {
	if len(list) == 0 {
		fmt.Fprintf(w, "no event recorded\n")
		return
	}
	PrintTable(w, []string{"TIME", "KIND", "FIELDS"}, utils.TransformSlice(list, eventColumns))
}

func eventColumns(e recorder.RecordedEvent) []string {
	return []string{e.TimeString, e.Kind, FormatFields(e.Fields)}
}

func FormatFields(fields []recorder.Field) string {
	return strings.Join(utils.TransformSlice(fields, func(f recorder.Field) string {
		return f.Name + "=" + f.Value
	}), " ")
}
