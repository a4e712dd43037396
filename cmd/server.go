package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"lendrisk/core"
	"lendrisk/handler"
	"lendrisk/store/snapshot"

	"github.com/drone/signal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "serve the read model over http",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideOptionalDatabase()
		if database != nil {
			defer database.Close()
		}

		limiter := provideRateLimiter(database)

		// with redis the worker process publishes, otherwise poll in process
		var snapshots core.ISnapshotStore
		if client := provideRedis(); client != nil {
			snapshots = snapshot.FromRedis(client, time.Duration(cfg.Redis.TTLS)*time.Second)
		} else {
			snapshots = provideSnapshotStore(nil)
			chainReader := provideChainReader()
			p := providePoller(chainReader, provideReserveConfigStore(chainReader), providePriceStore(database), limiter, snapshots)
			go p.Run(ctx)
		}

		srv := handler.New(rootCmd.Version, snapshots, provideObligationService(), limiter)

		port, _ := cmd.Flags().GetInt("port")
		addr := fmt.Sprintf(":%d", port)

		server := &http.Server{
			Addr:    addr,
			Handler: srv.Handler(),
		}

		ctx, quit := context.WithCancel(ctx)
		done := make(chan struct{}, 1)
		signal.WithContextFunc(ctx, func() {
			quit()

			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				logrus.WithError(err).Error("graceful shutdown server failed")
			}

			close(done)
		})

		logrus.Infoln("serve at", addr)
		err := server.ListenAndServe()
		if err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server aborted")
		}

		<-done
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().IntP("port", "p", 9000, "server port")
}
