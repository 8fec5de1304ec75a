package cmd

import (
	"context"

	"github.com/chunkd/chunkd/pkg/httpd"
	"github.com/chunkd/chunkd/pkg/web"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the store over HTTP",
	Long: `Serve the store over HTTP.

Reference counts are rebuilt from a full manifest scan before the
listener starts, so a restarted server garbage collects correctly.`,
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := newRuntime()
		if err != nil {
			wrapFatalln("initialize store", err)
			return
		}
		if err = rt.engine.Reconcile(context.Background()); err != nil {
			rt.Close()
			wrapFatalln("reconcile reference counts", err)
			return
		}
		srv, err := web.NewServer(web.ServerParams{Engine: rt.engine, Logger: rt.logger})
		if err != nil {
			rt.Close()
			wrapFatalln("initialize web server", err)
			return
		}
		server := httpd.New(
			httpd.ListensOn(params.web.listen),
			httpd.HandlesRequestsWith(web.InitRouter(srv)),
			httpd.WithTimeouts(params.web.readTimeout, params.web.writeTimeout),
			httpd.LogsWith(zapHTTPLogger{l: rt.logger}),
			httpd.OnShutdown(rt.pool.Shutdown),
		)
		rt.logger.Info("serving",
			zap.String("addr", params.web.listen),
			zap.String("store", params.store.path),
			zap.Int64("chunk_size", rt.engine.ChunkSize()),
		)
		if err = server.Serve(); err != nil {
			wrapFatalln("server terminated", err)
			return
		}
	},
}

// zapHTTPLogger adapts a zap logger to the printf-style server logger.
type zapHTTPLogger struct {
	l *zap.Logger
}

func (z zapHTTPLogger) Printf(format string, args ...interface{}) {
	z.l.Sugar().Infof(format, args...)
}

func (z zapHTTPLogger) Fatalf(format string, args ...interface{}) {
	z.l.Sugar().Fatalf(format, args...)
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addListenFlag(serveCmd)
	addTimeoutFlags(serveCmd)
}
