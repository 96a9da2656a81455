package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/satpel-tasikmalaya/jembatan/internal/server"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard HTTP API",
		Long: `Start a dashboard session and serve it over HTTP until interrupted.

The session subscribes to the remote store when one is configured and
reachable, and runs from local storage otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := flags.openSession(ctx)
			if err != nil {
				return err
			}
			defer s.close()

			if addr == "" {
				addr = s.cfg.Server.Addr
			}
			if s.log.IsLevelEnabled(logrus.DebugLevel) {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}
			router := server.SetupRouter(s.dash, s.board, s.metrics.Handler(), s.cfg.Server, s.log)
			s.log.WithField("mode", s.dash.Mode()).Info("dashboard session started")

			if err := server.Run(ctx, addr, router, s.log); err != nil {
				return sysError(err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr from config)")
	return cmd
}
