package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/amplify-rest-cli/internal/adapters/rest"
)

type callOptions struct {
	api     string
	data    string
	headers []string
	query   []string
	include bool
	quiet   bool
}

func newCallCmd(app *app) *cobra.Command {
	var opts callOptions

	cmd := &cobra.Command{
		Use:   "call <METHOD> <PATH>",
		Short: "Send a request to the profile's REST API",
		Long:  "call sends METHOD PATH to the REST API declared in the profile's outputs. The Authorization header carries the signed-in user's identity token and is recomputed on every retry.",
		Example: `  amprest call GET /items
  amprest call POST /items -d '{"name":"peanut"}'
  amprest call GET /items -q limit=10 -H 'X-Trace: on'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildCallRequest(cmd.InOrStdin(), args[0], args[1], opts)
			if err != nil {
				return err
			}

			config, _, err := app.configure(cmd.Context())
			if err != nil {
				return err
			}
			client, err := app.restClient(config)
			if err != nil {
				return err
			}

			var resp *rest.Response
			call := func(ctx context.Context) error {
				var callErr error
				resp, callErr = client.Do(ctx, req)
				return callErr
			}

			label := fmt.Sprintf("%s %s", req.Method, req.Path)
			if opts.quiet {
				err = call(cmd.Context())
			} else {
				err = runCallSpinner(cmd.Context(), cmd.ErrOrStderr(), label, call)
			}

			var statusErr *rest.StatusError
			if errors.As(err, &statusErr) {
				if writeErr := writeCallBody(cmd.OutOrStdout(), statusErr.StatusCode, statusErr.Status, statusErr.Body, opts.include); writeErr != nil {
					return errors.Join(err, writeErr)
				}
				return err
			}
			if err != nil {
				return err
			}

			return writeCallBody(cmd.OutOrStdout(), resp.StatusCode, "", resp.Body, opts.include)
		},
	}

	cmd.Flags().StringVar(&opts.api, "api", "", "REST API name (defaults to the API declared in the outputs)")
	cmd.Flags().StringVarP(&opts.data, "data", "d", "", "Request body; @file reads a file, @- reads stdin")
	cmd.Flags().StringArrayVarP(&opts.headers, "header", "H", nil, "Extra header as 'Name: value' (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.query, "query", "q", nil, "Query parameter as key=value (repeatable)")
	cmd.Flags().BoolVarP(&opts.include, "include", "i", false, "Print the response status line before the body")
	cmd.Flags().BoolVar(&opts.quiet, "quiet", false, "Do not show a progress spinner")

	return cmd
}

func buildCallRequest(stdin io.Reader, method, path string, opts callOptions) (rest.Request, error) {
	req := rest.Request{
		API:    opts.api,
		Method: strings.ToUpper(method),
		Path:   path,
	}

	if len(opts.headers) > 0 {
		req.Headers = make(map[string]string, len(opts.headers))
		for _, raw := range opts.headers {
			name, value, ok := strings.Cut(raw, ":")
			if !ok || strings.TrimSpace(name) == "" {
				return rest.Request{}, fmt.Errorf("invalid header %q: want 'Name: value'", raw)
			}
			req.Headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
		}
	}

	if len(opts.query) > 0 {
		req.Query = url.Values{}
		for _, raw := range opts.query {
			key, value, ok := strings.Cut(raw, "=")
			if !ok || key == "" {
				return rest.Request{}, fmt.Errorf("invalid query parameter %q: want key=value", raw)
			}
			req.Query.Add(key, value)
		}
	}

	body, err := readCallData(stdin, opts.data)
	if err != nil {
		return rest.Request{}, err
	}
	req.Body = body

	return req, nil
}

func readCallData(stdin io.Reader, data string) ([]byte, error) {
	switch {
	case data == "":
		return nil, nil
	case data == "@-":
		body, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read body from stdin: %w", err)
		}
		return body, nil
	case strings.HasPrefix(data, "@"):
		body, err := os.ReadFile(strings.TrimPrefix(data, "@"))
		if err != nil {
			return nil, fmt.Errorf("read body file: %w", err)
		}
		return body, nil
	default:
		return []byte(data), nil
	}
}

func writeCallBody(w io.Writer, statusCode int, status string, body []byte, include bool) error {
	if include {
		if status == "" {
			status = fmt.Sprintf("%d", statusCode)
		}
		if _, err := fmt.Fprintf(w, "HTTP %s\n", status); err != nil {
			return err
		}
	}
	if len(body) == 0 {
		return nil
	}

	var pretty bytes.Buffer
	if json.Valid(body) && json.Indent(&pretty, body, "", "  ") == nil {
		body = pretty.Bytes()
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if !bytes.HasSuffix(body, []byte("\n")) {
		_, err := io.WriteString(w, "\n")
		return err
	}
	return nil
}
