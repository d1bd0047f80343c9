package app

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/eventcore/pkg/recorder/service"
	"github.com/mandelsoft/eventcore/pkg/utils"
)

func ResponseData(r *http.Response) ([]byte, error) {
	defer r.Body.Close()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if r.StatusCode == http.StatusOK {
		return data, nil
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("request failed with status %s", r.Status)
	}

	var msg service.Error
	err = json.Unmarshal(data, &msg)
	if err != nil || msg.Message == "" {
		return nil, fmt.Errorf("request failed with status %s", r.Status)
	}
	return nil, &msg
}

// Output prints the given data in the output format.
// An empty format uses the given printer.
func Output(w io.Writer, format string, elems interface{}, print func(w io.Writer) error) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "":
		return print(w)
	case "json":
		data, err := json.Marshal(elems)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\n", string(data))
	case "yaml":
		data, err := yaml.Marshal(elems)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s", string(data))
	default:
		return fmt.Errorf("invalid output format %q", format)
	}
	return nil
}

// PrintTable prints aligned columns.
func PrintTable(w io.Writer, columns []string, rows [][]string) {
	max := make([]int, len(columns))
	for i, s := range columns {
		max[i] = len(s)
	}
	for _, cols := range rows {
		for i, s := range cols {
			if max[i] < len(s) {
				max[i] = len(s)
			}
		}
	}

	f := formatString(max)
	printLine(w, columns, f)
	for _, cols := range rows {
		printLine(w, cols, f)
	}
}

func printLine(w io.Writer, cols []string, msg string) {
	fmt.Fprintf(w, "%s\n", strings.TrimRight(fmt.Sprintf(msg, utils.TransformSlice(cols, func(s string) any { return s })...), " "))
}

func formatString(max []int) string {
	msg := ""
	for _, l := range max {
		msg += fmt.Sprintf("%%-%ds ", l)
	}
	return msg[:len(msg)-1]
}
