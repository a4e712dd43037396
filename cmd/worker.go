package cmd

import (
	"sync"

	"lendrisk/worker"
	"lendrisk/worker/metadata"
	"lendrisk/worker/storemanager"

	"github.com/drone/signal"
	"github.com/fox-one/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "poll the market and publish the read model",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := signal.WithContext(cmd.Context())
		log := logger.FromContext(ctx)
		ctx = logger.WithContext(ctx, log)

		database := provideOptionalDatabase()
		if database != nil {
			defer database.Close()
		}

		chainReader := provideChainReader()
		configs := provideReserveConfigStore(chainReader)
		prices := providePriceStore(database)
		limiter := provideRateLimiter(database)
		snapshots := provideSnapshotStore(provideRedis())

		metadataJob, err := metadata.New(ctx, cfg.Poller.MetadataSpec, cfg.Location(), configs)
		if err != nil {
			log.WithError(err).Fatalln("metadata worker")
		}

		workers := []worker.Worker{
			providePoller(chainReader, configs, prices, limiter, snapshots),
			worker.Job(metadataJob),
		}
		if prices != nil {
			workers = append(workers, worker.Job(storemanager.New(ctx, cfg.Location(), cfg.PriceRetention(), prices)))
		}

		wg := sync.WaitGroup{}
		for _, w := range workers {
			wg.Add(1)

			go func(worker worker.Worker) {
				defer wg.Done()
				worker.Run(ctx)
			}(w)
		}

		wg.Wait()
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
