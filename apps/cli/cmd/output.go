package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	httpc "github.com/abdul-hamid-achik/httpconnect/packages/http"
)

// responseView is the json/yaml rendering of a response
type responseView struct {
	StatusCode int               `json:"status_code" yaml:"status_code"`
	Status     string            `json:"status" yaml:"status"`
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	MediaType  string            `json:"media_type,omitempty" yaml:"media_type,omitempty"`
	Body       any               `json:"body,omitempty" yaml:"body,omitempty"`
	Error      string            `json:"error,omitempty" yaml:"error,omitempty"`
}

func newResponseView(resp *httpc.Response) responseView {
	v := responseView{
		StatusCode: resp.StatusCode,
		Status:     resp.Status.String(),
		Headers:    make(map[string]string, resp.Headers.Len()),
	}
	for h := range resp.Headers.All() {
		v.Headers[h.Name] = h.Value
	}
	if resp.Content != nil {
		v.MediaType = resp.Content.MediaType()
		v.Body = resp.Content.Body
		if resp.Content.IsJSON() {
			var decoded any
			if err := json.Unmarshal([]byte(resp.Content.Body), &decoded); err == nil {
				v.Body = decoded
			}
		}
	}
	if resp.Err != nil {
		v.Error = resp.Err.Error()
	}
	return v
}

func printResponse(w io.Writer, resp *httpc.Response, format, query string) error {
	if query != "" {
		if resp.Content == nil {
			return nil
		}
		result := resp.Content.Query(query)
		if !result.Exists() {
			return fmt.Errorf("path %q not found in response body", query)
		}
		_, err := fmt.Fprintln(w, result.String())
		return err
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newResponseView(resp))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(newResponseView(resp))
	case "text", "":
		return printText(w, resp)
	default:
		return withExitCode(ExitUsageError, fmt.Errorf("unknown output format %q", format))
	}
}

func printText(w io.Writer, resp *httpc.Response) error {
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintf(w, "%s %s\n", bold("HTTP"), statusColor(resp)(fmt.Sprintf("%d %s", resp.StatusCode, resp.Status)))
	for h := range resp.Headers.All() {
		fmt.Fprintf(w, "%s: %s\n", cyan(h.Name), h.Value)
	}
	if resp.Err != nil {
		fmt.Fprintf(w, "%s %v\n", color.RedString("error:"), resp.Err)
	}

	body := resp.Body()
	if body == "" {
		return nil
	}
	if resp.Content.IsJSON() {
		var buf bytes.Buffer
		if json.Indent(&buf, []byte(body), "", "  ") == nil {
			body = buf.String()
		}
	}
	_, err := fmt.Fprintf(w, "\n%s\n", body)
	return err
}

func statusColor(resp *httpc.Response) func(a ...any) string {
	switch {
	case resp.Status == httpc.StatusError || resp.StatusCode >= 500:
		return color.New(color.FgRed).SprintFunc()
	case resp.StatusCode >= 400:
		return color.New(color.FgYellow).SprintFunc()
	default:
		return color.New(color.FgGreen).SprintFunc()
	}
}
