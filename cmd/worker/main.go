// Worker-only entrypoint: claims and runs queued jobs without serving
// the API. Useful for scaling rescore throughput independently.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kierolabs/dealdesk-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.Services.JobWorker.Start(ctx)
	if a.Metrics != nil {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		a.Metrics.StartJobQueueCollector(ctx, a.Log, a.DB)
	}
	a.Log.Info("Worker running", "types", a.Services.JobRegistry.Types())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	a.Log.Info("Worker shutting down")
}
