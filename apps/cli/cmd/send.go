package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/httpconnect/packages/auth/oauth2"
	"github.com/abdul-hamid-achik/httpconnect/packages/config"
	"github.com/abdul-hamid-achik/httpconnect/packages/content"
	"github.com/abdul-hamid-achik/httpconnect/packages/headers"
	httpc "github.com/abdul-hamid-achik/httpconnect/packages/http"
	"github.com/abdul-hamid-achik/httpconnect/packages/middleware"
)

var sendCmd = &cobra.Command{
	Use:   "send <method> <uri>",
	Short: "Send an HTTP request",
	Long: `Send a request through the httpconnect pipeline and print the response.

Relative URIs resolve against base_uri from the config file.

Examples:
  httpconnect send POST https://api.example.com/users --json '{"name":"ada"}'
  httpconnect send POST /token --form grant_type=client_credentials
  httpconnect send PUT /docs/1 --data @doc.txt --content-type text/plain --gzip
  httpconnect send GET /users/1 -H "Accept: application/json" --query name
  httpconnect send GET /users --schema users.schema.json -o yaml`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendCommand(cmd, strings.ToUpper(args[0]), args[1])
	},
}

var getCmd = &cobra.Command{
	Use:   "get <uri>",
	Short: "Send a GET request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendCommand(cmd, "GET", args[0])
	},
}

var (
	headerFlags     []string
	jsonFlag        string
	dataFlag        string
	contentTypeFlag string
	formFlags       []string
	gzipFlag        bool
	outputFlag      string
	queryFlag       string
	schemaFlag      string
	timeoutFlag     time.Duration
	oauthURLFlag    string
	oauthIDFlag     string
	oauthSecretFlag string
	oauthScopesFlag []string
	awsRegionFlag   string
	awsServiceFlag  string
)

func init() {
	for _, c := range []*cobra.Command{sendCmd, getCmd} {
		addRequestFlags(c)
	}
}

func addRequestFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringArrayVarP(&headerFlags, "header", "H", nil, `Request header as "Name: value" (repeatable)`)
	f.StringVar(&jsonFlag, "json", "", "JSON body (validated before sending)")
	f.StringVarP(&dataFlag, "data", "d", "", "Raw body, or @file to read it from a file")
	f.StringVar(&contentTypeFlag, "content-type", "text/plain", "Media type of a --data body")
	f.StringArrayVarP(&formFlags, "form", "F", nil, "Form field as key=value (repeatable)")
	f.BoolVar(&gzipFlag, "gzip", false, "Compress the request body with gzip")
	f.StringVarP(&outputFlag, "output", "o", getEnvString("HTTPCONNECT_OUTPUT", "text"), "Output format: text, json, yaml (env: HTTPCONNECT_OUTPUT)")
	f.StringVarP(&queryFlag, "query", "q", "", "Print only the value at this JSON path (gjson syntax)")
	f.StringVar(&schemaFlag, "schema", "", "Validate a JSON response against this JSON schema file")
	f.DurationVarP(&timeoutFlag, "timeout", "t", 0, "Request timeout (overrides config)")
	f.StringVar(&oauthURLFlag, "oauth2-token-url", "", "Fetch a bearer token from this OAuth2 token endpoint")
	f.StringVar(&oauthIDFlag, "oauth2-client-id", getEnvString("HTTPCONNECT_OAUTH2_CLIENT_ID", ""), "OAuth2 client ID (env: HTTPCONNECT_OAUTH2_CLIENT_ID)")
	f.StringVar(&oauthSecretFlag, "oauth2-client-secret", getEnvString("HTTPCONNECT_OAUTH2_CLIENT_SECRET", ""), "OAuth2 client secret (env: HTTPCONNECT_OAUTH2_CLIENT_SECRET)")
	f.StringSliceVar(&oauthScopesFlag, "oauth2-scope", nil, "OAuth2 scopes (comma-separated)")
	f.StringVar(&awsRegionFlag, "aws-region", "", "Sign the request with AWS SigV4 for this region (keys from AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY)")
	f.StringVar(&awsServiceFlag, "aws-service", "execute-api", "AWS service name used for SigV4 signing")
}

func sendCommand(cmd *cobra.Command, method, uri string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if timeoutFlag > 0 {
		cfg.Timeout = timeoutFlag
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)

	extra, err := requestMiddleware(cfg)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	client, err := cfg.NewClient(logger, extra...)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	req, err := buildRequest(method, uri)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resp, err := client.Send(ctx, req)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	if err := printResponse(cmd.OutOrStdout(), resp, outputFlag, queryFlag); err != nil {
		return err
	}

	switch {
	case resp.Status == httpc.StatusError:
		return withExitCode(ExitPipelineError, resp.Err)
	case !resp.IsSuccess():
		return withExitCode(ExitHTTPFailure, fmt.Errorf("%s %s returned status %d", method, req.URL(), resp.StatusCode))
	}
	return nil
}

// requestMiddleware returns the optional stages selected by flags.
func requestMiddleware(cfg *config.Config) ([]httpc.Middleware, error) {
	var extra []httpc.Middleware

	if oauthURLFlag != "" {
		tokenClient, err := cfg.NewClient(newLogger(os.Stderr, cfg.Verbose))
		if err != nil {
			return nil, err
		}
		provider, err := oauth2.NewProvider(&oauth2.Config{
			TokenURL:     oauthURLFlag,
			ClientID:     oauthIDFlag,
			ClientSecret: oauthSecretFlag,
			Scopes:       oauthScopesFlag,
			GrantType:    oauth2.ClientCredentials,
		}, tokenClient)
		if err != nil {
			return nil, err
		}
		extra = append(extra, provider.Middleware())
	}

	if awsRegionFlag != "" {
		signer, err := middleware.AWSSigV4(middleware.AWSCredentials{
			AccessKey:    os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey:    os.Getenv("AWS_SECRET_ACCESS_KEY"),
			SessionToken: os.Getenv("AWS_SESSION_TOKEN"),
			Region:       awsRegionFlag,
			Service:      awsServiceFlag,
		})
		if err != nil {
			return nil, err
		}
		extra = append(extra, signer)
	}

	if schemaFlag != "" {
		validator, err := middleware.JSONSchemaFile(schemaFlag)
		if err != nil {
			return nil, err
		}
		extra = append(extra, validator)
	}
	return extra, nil
}

// buildRequest assembles the request from the body and header flags.
func buildRequest(method, uri string) (*httpc.Request, error) {
	req, err := httpc.NewRequest(method, uri)
	if err != nil {
		return nil, err
	}
	for _, raw := range headerFlags {
		name, value, err := parseHeaderFlag(raw)
		if err != nil {
			return nil, err
		}
		if err := req.SetHeader(name, value); err != nil {
			return nil, err
		}
	}

	body, err := buildContent()
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.SetContent(body)
	}
	return req, nil
}

func buildContent() (content.Content, error) {
	set := 0
	for _, given := range []bool{jsonFlag != "", dataFlag != "", len(formFlags) > 0} {
		if given {
			set++
		}
	}
	if set > 1 {
		return nil, fmt.Errorf("only one of --json, --data and --form may be used")
	}

	var body content.Content
	var err error
	switch {
	case jsonFlag != "":
		if !json.Valid([]byte(jsonFlag)) {
			return nil, fmt.Errorf("--json value is not valid JSON")
		}
		body, err = content.NewRaw(jsonFlag, headers.MediaTypeApplicationJSON)
	case dataFlag != "":
		var data string
		data, err = readDataFlag(dataFlag)
		if err == nil {
			body, err = content.NewRaw(data, contentTypeFlag)
		}
	case len(formFlags) > 0:
		var pairs []content.Pair
		pairs, err = parseFormFlags(formFlags)
		if err == nil {
			body, err = content.NewForm(pairs...)
		}
	}
	if err != nil || body == nil {
		return nil, err
	}
	if gzipFlag {
		return content.NewGZipped(body)
	}
	return body, nil
}

func readDataFlag(v string) (string, error) {
	if !strings.HasPrefix(v, "@") {
		return v, nil
	}
	data, err := os.ReadFile(strings.TrimPrefix(v, "@"))
	if err != nil {
		return "", fmt.Errorf("failed to read body file: %w", err)
	}
	return string(data), nil
}

func parseHeaderFlag(raw string) (string, string, error) {
	name, value, ok := strings.Cut(raw, ":")
	if !ok || strings.TrimSpace(name) == "" {
		return "", "", fmt.Errorf("invalid header %q, expected \"Name: value\"", raw)
	}
	return strings.TrimSpace(name), strings.TrimSpace(value), nil
}

func parseFormFlags(raw []string) ([]content.Pair, error) {
	pairs := make([]content.Pair, 0, len(raw))
	for _, field := range raw {
		key, value, ok := strings.Cut(field, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid form field %q, expected key=value", field)
		}
		pairs = append(pairs, content.Pair{Key: key, Value: value})
	}
	return pairs, nil
}
