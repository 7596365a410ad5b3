// cmd/registryctl/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dalemusser/stratacatalog/internal/app/adminclient"
	"github.com/dalemusser/stratacatalog/internal/app/registryclient"
	"github.com/dalemusser/stratacatalog/internal/app/system/timeouts"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// envPrefix is the prefix for environment overrides (REGISTRYCTL_BASE_URL, ...).
const envPrefix = "REGISTRYCTL"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "registryctl: %s\n", err)
		os.Exit(1)
	}
}

// env carries the resolved global options to every subcommand.
type env struct {
	v      *viper.Viper
	logger *zap.Logger
	http   *http.Client
}

func newRootCmd() *cobra.Command {
	e := &env{v: viper.New()}

	root := &cobra.Command{
		Use:   "registryctl",
		Short: "Inspect, edit and publish the catalog registry",
		Long: `registryctl works with the catalog registry document.

It normalizes and validates registry files locally, loads the published
registry, uploads assets through the signing endpoint, and saves edited
drafts with the same conflict handling as the admin editor.

Every flag can also be set from the environment, e.g. REGISTRYCTL_BASE_URL
or REGISTRYCTL_ADMIN_TOKEN.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.init()
		},
	}

	pf := root.PersistentFlags()
	pf.String("base-url", "http://localhost:8080", "Origin the local registry paths and the admin API are resolved against")
	pf.String("registry-url", "", "Authoritative registry URL (overrides the local candidates)")
	pf.String("admin-url", "", "Admin API origin (default: base-url)")
	pf.String("admin-token", "", "Admin token for sign and commit")
	pf.Duration("timeout", 2*time.Minute, "Overall HTTP client timeout")
	pf.Duration("request-timeout", timeouts.DefaultRequest, "Timeout for fetch and sign calls")
	pf.Duration("commit-timeout", timeouts.DefaultCommit, "Timeout for commit calls")
	pf.BoolP("verbose", "v", false, "Log pipeline steps to stderr")

	e.v.SetEnvPrefix(envPrefix)
	e.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	e.v.AutomaticEnv()
	if err := e.v.BindPFlags(pf); err != nil {
		panic(err)
	}

	root.AddCommand(
		normalizeCmd(e),
		validateCmd(e),
		fetchCmd(e),
		loginCmd(e),
		uploadCmd(e),
		saveCmd(e),
	)
	return root
}

func (e *env) init() error {
	level := zapcore.WarnLevel
	if e.v.GetBool("verbose") {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	e.logger = logger

	e.http = &http.Client{Timeout: e.v.GetDuration("timeout")}
	timeouts.Configure(timeouts.Config{
		Request: e.v.GetDuration("request-timeout"),
		Commit:  e.v.GetDuration("commit-timeout"),
	})
	return nil
}

func (e *env) adminOrigin() string {
	if u := strings.TrimSpace(e.v.GetString("admin-url")); u != "" {
		return strings.TrimRight(u, "/")
	}
	return strings.TrimRight(e.v.GetString("base-url"), "/")
}

func (e *env) loader() *registryclient.Loader {
	return registryclient.NewLoader(registryclient.Config{
		RemoteURL:  e.v.GetString("registry-url"),
		BaseURL:    e.v.GetString("base-url"),
		HTTPClient: e.http,
	}, e.logger)
}

func (e *env) adminClient() *adminclient.Client {
	origin := e.adminOrigin()
	return adminclient.New(adminclient.Config{
		SignURL:    origin + "/api/admin/sign",
		CommitURL:  origin + "/api/admin/commit",
		HTTPClient: e.http,
	}, e.logger)
}

// session logs in with the configured token.
func (e *env) session(ctx context.Context, c *adminclient.Client) (*adminclient.Session, error) {
	token := e.v.GetString("admin-token")
	if token == "" {
		return nil, fmt.Errorf("admin token required (--admin-token or %s_ADMIN_TOKEN)", envPrefix)
	}
	s := adminclient.NewSession(c, e.logger)
	if err := s.Login(ctx, token); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return s, nil
}

// readInput reads a file argument, or stdin for "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}
