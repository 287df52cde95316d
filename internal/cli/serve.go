package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/winscope/pkg/cache"
	"github.com/matzehuels/winscope/pkg/pipeline"
	"github.com/matzehuels/winscope/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		maxUpload int64
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the trace API over HTTP",
		Long: `Serve the trace API over HTTP.

Uploaded traces are kept in Redis when the cache backend is redis, so
several instances can share them; otherwise they live in memory and are
lost on restart. Derived rectangles and rendered artifacts use the
configured cache. Set [cache] prefix to keep instances that share a Redis
server apart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = c.Config.Server.Addr
			}

			results, err := c.newCache(ctx, noCache)
			if err != nil {
				return err
			}
			runner := pipeline.NewRunner(results, c.Config.Cache.keyer(), c.Logger)
			defer runner.Close()

			var store cache.Cache
			if c.Config.Cache.Backend == backendRedis {
				rc, err := cache.NewRedisCache(ctx, c.Config.Cache.redisConfig())
				if err != nil {
					return err
				}
				store = rc
			} else {
				printWarning("Uploaded traces are kept in memory and lost on restart")
				store = cache.NewMemoryCache()
			}
			defer store.Close()

			srv := server.New(runner, server.Config{
				Store:          store,
				MaxUploadBytes: maxUpload,
				Logger:         c.Logger.WithPrefix("http"),
			})
			c.Logger.Info("listening", "addr", addr, "backend", c.Config.Cache.Backend)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, "+defaultServerAddr+")")
	cmd.Flags().Int64Var(&maxUpload, "max-upload", server.DefaultMaxUploadBytes, "maximum trace upload size in bytes")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result caching")

	return cmd
}
