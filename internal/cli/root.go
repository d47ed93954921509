// Package cli wires the seed injector's two phases — reassembly and
// registry serving — behind a single cobra command.
package cli

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/zarf-dev/seed-injector/internal/chunk"
	"github.com/zarf-dev/seed-injector/internal/config"
	"github.com/zarf-dev/seed-injector/internal/layout"
	"github.com/zarf-dev/seed-injector/internal/registry"
	"github.com/zarf-dev/seed-injector/pkg/seederrors"
)

// Version is the seed injector's build version.
var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "seed-injector <sha256sum>",
	Short: "Reassembles and serves the cluster bootstrap seed image",
	Long: `seed-injector reassembles a gzip-compressed OCI image tarball from
zarf-payload-* chunks, verifies its SHA-256 digest, unpacks it into an
OCI image layout, and serves that one image over a read-only subset of
the Docker/OCI Distribution v2 HTTP API on :5000.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       Version,
	RunE:          run,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(_ *cobra.Command, args []string) error {
	expectedDigest := args[0]
	cfg := config.Load()

	fmt.Printf("reassembling payload from %s into %s\n", cfg.InitRoot, cfg.SeedRoot)
	if err := chunk.Reassemble(cfg.InitRoot, cfg.SeedRoot, expectedDigest); err != nil {
		return err
	}

	l, err := layout.Open(cfg.SeedRoot)
	if err != nil {
		return err
	}

	fmt.Printf("starting seed registry at %s on %s\n", cfg.SeedRoot, cfg.ListenAddr)
	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: registry.NewServer(l),
	}
	if err := server.ListenAndServe(); err != nil {
		return fmt.Errorf("%w: %v", seederrors.ErrBind, err)
	}
	return nil
}
