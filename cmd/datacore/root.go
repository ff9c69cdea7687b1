package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/opengovern/datacore"
	"github.com/opengovern/datacore/adapters"
	"github.com/opengovern/datacore/auth"
	"github.com/opengovern/datacore/environment"
)

type globalFlags struct {
	configFile   string
	envFile      string
	envPrefix    string
	logLevel     string
	pretty       bool
	tokenURL     string
	clientID     string
	clientSecret string
	scopes       []string
}

type requestFlags struct {
	api     string
	path    string
	auth    bool
	noRetry bool
	query   map[string]string
	headers map[string]string
	data    string
}

func newRootCommand() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "datacore",
		Short:         "Send JSON requests through the datacore pipeline",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configFile, "config", "datacore.yaml", "YAML configuration file")
	pf.StringVar(&g.envFile, "env-file", ".env", "dotenv file")
	pf.StringVar(&g.envPrefix, "env-prefix", "", "only read environment variables with this prefix")
	pf.StringVar(&g.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.BoolVar(&g.pretty, "pretty", true, "human readable logs")
	pf.StringVar(&g.tokenURL, "token-url", "", "OAuth2 token endpoint for the client-credentials flow")
	pf.StringVar(&g.clientID, "client-id", "", "OAuth2 client id")
	pf.StringVar(&g.clientSecret, "client-secret", "", "OAuth2 client secret")
	pf.StringSliceVar(&g.scopes, "scope", nil, "OAuth2 scopes")

	root.AddCommand(newRequestCommand(g, "get"), newRequestCommand(g, "post"))
	return root
}

func newRequestCommand(g *globalFlags, method string) *cobra.Command {
	f := &requestFlags{}

	cmd := &cobra.Command{
		Use:   method,
		Short: fmt.Sprintf("Send a %s request", strings.ToUpper(method)),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRequest(cmd.Context(), cmd.OutOrStdout(), g, f, method)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.api, "api", "", "api segment of the endpoint")
	fl.StringVar(&f.path, "path", "", "path of the endpoint")
	fl.BoolVar(&f.auth, "auth", false, "send the bearer access token")
	fl.BoolVar(&f.noRetry, "no-retry", false, "disable retries")
	fl.StringToStringVar(&f.query, "query", nil, "query parameters (GET)")
	fl.StringToStringVar(&f.headers, "header", nil, "extra request headers")
	fl.StringVar(&f.data, "data", "", "JSON request body (POST)")
	_ = cmd.MarkFlagRequired("path")

	return cmd
}

func newLogger(level string, pretty bool, out io.Writer) zerolog.Logger {
	var l zerolog.Logger
	if pretty {
		l = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	} else {
		l = zerolog.New(out).With().Timestamp().Logger()
	}

	zLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		zLevel = zerolog.InfoLevel
	}
	return l.Level(zLevel)
}

func runRequest(ctx context.Context, out io.Writer, g *globalFlags, f *requestFlags, method string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newLogger(g.logLevel, g.pretty, os.Stderr)

	opts := []environment.LoadOption{
		environment.WithYAMLFile(g.configFile),
		environment.WithDotEnvFile(g.envFile),
		environment.WithEnvPrefix(g.envPrefix),
	}
	if g.clientID != "" {
		ts, err := auth.ClientCredentials{
			TokenURL:     g.tokenURL,
			ClientID:     g.clientID,
			ClientSecret: g.clientSecret,
			Scopes:       g.scopes,
		}.TokenSource(ctx)
		if err != nil {
			return err
		}
		opts = append(opts, environment.WithTokenSource(ts))
	}

	values, err := environment.Load(opts...)
	if err != nil {
		return err
	}
	cfg, err := values.Config()
	if err != nil {
		return err
	}
	if f.noRetry {
		cfg.MaxAttempts = 0
	}

	client, err := datacore.NewClient(
		adapters.NewTransport(cfg, logger),
		values,
		cfg,
		datacore.WithLogger(logger),
		datacore.WithMetrics(datacore.NewMetrics(prometheus.NewRegistry())),
	)
	if err != nil {
		return err
	}

	call := datacore.Call{
		Endpoint:               datacore.Endpoint{API: f.api, Path: f.path},
		RequiresAuthentication: f.auth,
		ExtraHeaders: func(_ context.Context, b datacore.HeadersBuilder) datacore.HeadersBuilder {
			for k, v := range f.headers {
				b = b.Add(k, v)
			}
			return b
		},
	}

	var result json.RawMessage
	switch method {
	case "get":
		result, err = datacore.GetWithRetry[json.RawMessage](ctx, client, call, datacore.QueryMap(f.query))
	case "post":
		var body any
		if f.data != "" {
			body = json.RawMessage(f.data)
		}
		result, err = datacore.PostWithRetry[json.RawMessage](ctx, client, call, body)
	default:
		return fmt.Errorf("unsupported method %q", method)
	}
	if err != nil {
		return err
	}

	return writeJSON(out, result)
}

func writeJSON(out io.Writer, raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		_, werr := fmt.Fprintln(out, string(raw))
		return werr
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
