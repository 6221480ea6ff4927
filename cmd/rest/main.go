// Command rest starts the REST reverse proxy.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/discordnova/nova/internal/rest"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := rest.LoadConfig(rest.LoadOptions{})
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	app, err := rest.NewApplication(cfg)
	if err != nil {
		log.Fatalf("failed to create application: %v", err)
	}

	if err := app.Start(ctx); err != nil {
		log.Fatalf("failed to start application: %v", err)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.DrainTimeout)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("failed to shutdown application: %v", err)
	}
}
