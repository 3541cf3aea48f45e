package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/mcp-oauth-gateway/auth"
	"github.com/jrsteele09/mcp-oauth-gateway/internal/config"
	"github.com/jrsteele09/mcp-oauth-gateway/server"
	"github.com/jrsteele09/mcp-oauth-gateway/storage/memory"
	"github.com/jrsteele09/mcp-oauth-gateway/token/keys"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 5 * time.Second
	sweepInterval   = time.Minute
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("gateway stopped")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var port, issuerURL string

	cmd := &cobra.Command{
		Use:          "mcp-oauth-gateway",
		Short:        "OAuth 2.1 authorization server and bearer-gated proxy for an MCP server",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := config.New(config.WithPort(port), config.WithIssuerURL(issuerURL))
			if err != nil {
				return errors.Wrap(err, "loading configuration")
			}
			setupLogging(c)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, c)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	cmd.Flags().StringVar(&issuerURL, "issuer-url", "", "public issuer URL including base path (overrides ISSUER_URL)")
	cmd.AddCommand(newKeygenCmd())
	return cmd
}

// newKeygenCmd prints a fresh PKCS#1 signing key suitable for SIGNING_KEY_PEM.
func newKeygenCmd() *cobra.Command {
	var bits int

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an RSA signing key for SIGNING_KEY_PEM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kp, err := keys.GenerateRSAKeyPair("", bits)
			if err != nil {
				return errors.Wrap(err, "generating signing key")
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), kp.ExportPrivateKeyPEM())
			return err
		},
	}

	cmd.Flags().IntVar(&bits, "bits", signingKeyBits, "RSA key size")
	return cmd
}

func run(ctx context.Context, c config.Config) error {
	displayAppname(c.GetAppName())

	store, err := openStore(ctx, c)
	if err != nil {
		return err
	}
	defer store.Close()

	keyRing, err := loadKeyRing(c)
	if err != nil {
		return err
	}

	handler, err := server.New(c, auth.NewStoreRepos(store), keyRing)
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if c.GetIssuerURL() == "" {
		log.Warn().Msg("ISSUER_URL is not set, protected resource metadata will answer 500")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", httpServer.Addr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server.ListenAndServe")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(httpServer)
	})
	if interval := c.GetSigningKeyRotateInterval(); interval > 0 {
		g.Go(func() error {
			rotateKeys(gctx, keyRing, interval)
			return nil
		})
	}
	if mem, ok := store.(*memory.Store); ok {
		g.Go(func() error {
			sweep(gctx, mem)
			return nil
		})
	}

	return g.Wait()
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	log.Info().Msg("server stopped")
	return nil
}

// sweep drops expired records from the in-memory store until ctx ends.
func sweep(ctx context.Context, store *memory.Store) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(); n > 0 {
				log.Debug().Int("removed", n).Msg("swept expired records")
			}
		}
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
