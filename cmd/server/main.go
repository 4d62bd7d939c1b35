package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-oauth2-provider/clients"
	fakeclientrepo "github.com/jrsteele09/go-oauth2-provider/clients/fakerepo"
	postgresclientrepo "github.com/jrsteele09/go-oauth2-provider/clients/postgres"
	"github.com/jrsteele09/go-oauth2-provider/granter"
	"github.com/jrsteele09/go-oauth2-provider/granter/codes"
	refreshrepofake "github.com/jrsteele09/go-oauth2-provider/granter/refresh/repofake"
	"github.com/jrsteele09/go-oauth2-provider/internal/config"
	"github.com/jrsteele09/go-oauth2-provider/oauthmodel"
	"github.com/jrsteele09/go-oauth2-provider/server"
	"github.com/jrsteele09/go-oauth2-provider/token"
	"github.com/jrsteele09/go-oauth2-provider/users"
	fakeuserrepo "github.com/jrsteele09/go-oauth2-provider/users/repofake"
)

func main() {
	_ = godotenv.Load()

	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	configureLogging(c)
	displayAppname(c.GetAppName())

	handler, err := buildServer(c)
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func buildServer(c config.Config) (*server.Server, error) {
	clientRepo, err := newClientRepo(c)
	if err != nil {
		return nil, err
	}
	codeStore, err := newCodeStore(c)
	if err != nil {
		return nil, err
	}
	refreshStore := refreshrepofake.NewFakeRefreshTokenStore()

	minter, signer, err := newMinter(c)
	if err != nil {
		return nil, err
	}

	d := granter.NewDispatcher()

	cc, err := granter.NewClientCredentialsGranter(clientRepo, minter, c.GetAccessTokenExpiry())
	if err != nil {
		return nil, err
	}
	if err := d.Register(oauthmodel.GrantClientCredentials, cc); err != nil {
		return nil, err
	}

	ac, err := granter.NewAuthorizationCodeGranter(clientRepo, codeStore, minter, c.GetAccessTokenExpiry(),
		granter.WithRefreshTokenIssuance(refreshStore, c.GetRefreshTokenExpiry()))
	if err != nil {
		return nil, err
	}
	if err := d.Register(oauthmodel.GrantAuthorizationCode, ac); err != nil {
		return nil, err
	}

	rt, err := granter.NewRefreshTokenGranter(clientRepo, refreshStore, minter,
		c.GetAccessTokenExpiry(), c.GetRefreshTokenExpiry())
	if err != nil {
		return nil, err
	}
	if err := d.Register(oauthmodel.GrantRefreshToken, rt); err != nil {
		return nil, err
	}

	verifier, err := users.NewVerifier(fakeuserrepo.NewFakeUserRepo())
	if err != nil {
		return nil, err
	}
	pw, err := granter.NewPasswordGranter(clientRepo, verifier, minter, c.GetAccessTokenExpiry())
	if err != nil {
		return nil, err
	}
	if err := d.Register(oauthmodel.GrantPassword, pw); err != nil {
		return nil, err
	}

	options := []server.Option{}
	if signer != nil {
		options = append(options, server.WithTokenVerifier(signer))
	}
	return server.New(c, d, options...)
}

func newClientRepo(c config.Config) (clients.Repo, error) {
	if url := c.GetDatabaseURL(); url != "" {
		log.Info().Msg("Using Postgres client repository")
		return postgresclientrepo.New(url)
	}
	log.Info().Msg("Using in-memory client repository")
	return fakeclientrepo.NewFakeClientRepo(), nil
}

func newCodeStore(c config.Config) (codes.Store, error) {
	if url := c.GetRedisURL(); url != "" {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return nil, errors.Wrap(err, "[main.newCodeStore] parsing REDIS_URL")
		}
		log.Info().Msg("Using Redis authorization code store")
		return codes.NewRedisStore(redis.NewClient(opts))
	}
	log.Info().Msg("Using in-memory authorization code store")
	return codes.NewInMemoryStore(), nil
}

func newMinter(c config.Config) (token.Minter, token.Signer, error) {
	if secret := c.GetJWTSecret(); secret != "" {
		signer := token.NewHMACSigner(secret)
		minter, err := token.NewJWTMinter(signer, c.GetJWTIssuer())
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("issuer", c.GetJWTIssuer()).Msg("Minting signed JWT access tokens")
		return minter, signer, nil
	}
	log.Info().Msg("Minting opaque access tokens")
	return token.NewOpaqueMinter(), nil, nil
}

func configureLogging(c config.Config) {
	if c.GetEnv() == "DEV" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(httpServer *http.Server) error {
	log.Info().Str("addr", httpServer.Addr).Msg("Server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
