package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/auth"
	"github.infra.cloudera.com/CAI/MLOpsHub/internal/datasource"
	"github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase"
	cbhttp "github.infra.cloudera.com/CAI/MLOpsHub/pkg/clientbase/http"
	lconfig "github.infra.cloudera.com/CAI/MLOpsHub/pkg/config"
	ltime "github.infra.cloudera.com/CAI/MLOpsHub/pkg/time"
)

// CLI holds what every hubctl command needs once the profile is resolved.
type CLI struct {
	fs          afero.Fs
	out         io.Writer
	profilePath string
	flags       Profile
	logLevel    string
	timeout     time.Duration
	token       string

	profile Profile
	saved   Profile
	session *auth.Session
	store   datasource.HubStore
}

func New(fs afero.Fs, out io.Writer) *CLI {
	return &CLI{fs: fs, out: out}
}

// NewRootCommand builds the hubctl command tree.
func (c *CLI) NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "hubctl",
		Short:         "Browse and operate the MLOps hub from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.profilePath, "profile", DefaultProfilePath(), "Profile file")
	flags.StringVar(&c.flags.ApiBaseUrl, "api-url", "", "Hub backend base url (overrides the profile)")
	flags.StringVar(&c.flags.IdentityUrl, "identity-url", "", "Identity broker url (overrides the profile)")
	flags.StringVar(&c.flags.Realm, "realm", "", "Identity realm (overrides the profile)")
	flags.StringVar(&c.flags.ClientId, "client-id", "", "Identity client id (overrides the profile)")
	flags.StringVar(&c.logLevel, "log-level", "warning", "Log level: debug|info|warning|error")
	flags.DurationVar(&c.timeout, "timeout", 30*time.Second, "Timeout of each request to the backend")
	flags.StringVar(&c.token, "token", "", "Bearer token to use instead of the stored session")

	root.AddCommand(
		c.loginCommand(),
		c.logoutCommand(),
		c.datasetsCommand(),
		c.experimentsCommand(),
		c.runsCommand(),
		c.artifactsCommand(),
		c.modelsCommand(),
		c.servicesCommand(),
		c.entrypointsCommand(),
	)
	return root
}

// Execute runs one command line. The profile is saved even when the command fails, so an expired session
// is forgotten.
func (c *CLI) Execute(ctx context.Context, args []string) error {
	root := c.NewRootCommand()
	root.SetArgs(args)
	root.SetOut(c.out)
	err := root.ExecuteContext(ctx)
	if perr := c.persist(); perr != nil && err == nil {
		err = perr
	}
	if errors.Is(err, datasource.ErrSessionExpired) || errors.Is(err, auth.ErrNotLoggedIn) {
		return errors.Wrap(err, "run hubctl login")
	}
	return err
}

// setup resolves the profile (file, then environment, then flags) and builds the clients.
func (c *CLI) setup() error {
	if err := (lconfig.LogConfig{Level: c.logLevel}).SetupLogging(); err != nil {
		return err
	}

	stored, err := LoadProfile(c.fs, c.profilePath)
	if err != nil {
		return err
	}

	authCfg, err := auth.NewConfigFromEnv()
	if err != nil {
		return err
	}
	sourceCfg, err := datasource.NewConfigFromEnv()
	if err != nil {
		return err
	}

	c.saved = stored.overlay(c.flags)
	c.profile = Profile{
		ApiBaseUrl:  sourceCfg.BaseUrl,
		IdentityUrl: authCfg.IdentityUrl,
		Realm:       authCfg.Realm,
		ClientId:    authCfg.ClientId,
	}.overlay(stored).overlay(envProfile()).overlay(c.flags)
	c.profile.Tokens = stored.Tokens

	authCfg.IdentityUrl = c.profile.IdentityUrl
	authCfg.Realm = c.profile.Realm
	authCfg.ClientId = c.profile.ClientId
	sourceCfg.BaseUrl = c.profile.ApiBaseUrl

	httpClient, err := cbhttp.NewInstance(&cbhttp.Config{Timeout: c.timeout})
	if err != nil {
		return err
	}
	connections, err := clientbase.NewConnections(&clientbase.Config{UserAgent: "hubctl"}, httpClient)
	if err != nil {
		return err
	}

	watch := ltime.NewWallWatch()
	c.session = auth.NewSession(authCfg, httpClient, watch)
	if c.profile.Tokens != nil {
		c.session.Restore(*c.profile.Tokens)
	}

	var tokens auth.TokenProvider = auth.OptionalSession{Session: c.session}
	if c.token != "" {
		tokens = auth.StaticTokenProvider(c.token)
	}
	client := datasource.NewClient(sourceCfg, connections, tokens, watch)
	if c.token == "" {
		client.OnSessionExpired(func(context.Context) { c.session.Invalidate() })
	}
	c.store = client

	log.Debugf("using backend %s", c.profile.ApiBaseUrl)
	return nil
}

// envProfile holds the settings explicitly set in the environment. Unset variables leave the profile alone.
func envProfile() Profile {
	return Profile{
		ApiBaseUrl:  os.Getenv("HUB_API_BASE_URL"),
		IdentityUrl: os.Getenv("IDENTITY_URL"),
		Realm:       os.Getenv("IDENTITY_REALM"),
		ClientId:    os.Getenv("IDENTITY_CLIENT_ID"),
	}
}

// persist saves the stored profile, the flags given and the session's current tokens, so a refresh or a
// logout survives the process.
func (c *CLI) persist() error {
	if c.session == nil {
		return nil
	}
	profile := c.saved
	profile.Tokens = nil
	if tokens, ok := c.session.Tokens(); ok {
		profile.Tokens = &tokens
	}
	return errors.Wrap(SaveProfile(c.fs, c.profilePath, profile), "saving profile")
}

func (c *CLI) print(v interface{}) error {
	encoder := json.NewEncoder(c.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
