package main

import (
	"context"
	"log"
	"time"

	"emergence-monitor-be/internal/bootstrap"
	"emergence-monitor-be/internal/config"
	"emergence-monitor-be/internal/server"
	"emergence-monitor-be/internal/tracer"
	"emergence-monitor-be/pkg/channel"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.Init("emergence-monitor-be", cfg.App.Environment)
	defer shutdownTracer(context.Background())

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)

	// 4. Start Background Services
	// Note: In a larger app, we might use an errgroup or supervisor here
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	container.StreamService.Start()

	// 5. Simulation Link Supervisor
	go superviseLink(cfg, container)

	// 6. Initialize Server
	srv := server.New(cfg, container)

	// 7. Run Server
	log.Fatal(srv.Run())
}

// superviseLink keeps the simulation link alive: dial, wait for the drop,
// redial with doubling backoff. The dashboards keep running either way; they
// just see a disconnected status until the link comes back.
func superviseLink(cfg *config.Config, container *bootstrap.Container) {
	dropped := make(chan struct{}, 1)
	container.Stream.Subscribe(channel.EventDisconnected, func(channel.Event) {
		select {
		case dropped <- struct{}{}:
		default:
		}
	})

	wait := cfg.Simulation.ReconnectMinWait
	for {
		if err := container.Stream.Connect(context.Background()); err != nil {
			log.Printf("[WARN] Simulation link unavailable: %v (retrying in %s)", err, wait)
			time.Sleep(wait)
			wait *= 2
			if wait > cfg.Simulation.ReconnectMaxWait {
				wait = cfg.Simulation.ReconnectMaxWait
			}
			continue
		}

		wait = cfg.Simulation.ReconnectMinWait
		container.StreamService.AnnounceLink(context.Background(), true)

		// Block until the read pump reports the drop, then go around again.
		<-dropped
	}
}
