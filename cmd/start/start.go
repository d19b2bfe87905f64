package start

import (
	"context"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"github.com/simsaas/simsaas/api"
	"github.com/simsaas/simsaas/api/rest/bind"
	"github.com/simsaas/simsaas/internal/event"
	"github.com/simsaas/simsaas/internal/jobstore"
	"github.com/simsaas/simsaas/internal/mesher"
	"github.com/simsaas/simsaas/internal/metrics"
	"github.com/simsaas/simsaas/internal/queue"
	"github.com/simsaas/simsaas/internal/worker"
	"github.com/simsaas/simsaas/pkg/db"
	"github.com/simsaas/simsaas/pkg/env"
	"github.com/simsaas/simsaas/pkg/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const (
	usage   = "start"
	short   = "Start a simsaas instance"
	long    = "This command starts the simsaas API and/or the mesh worker. With neither flag set both run in one process."
	example = "simsaas start --worker"
)

var (
	// Cmd is the start command.
	Cmd = &cobra.Command{
		Use:        usage,
		Short:      short,
		Long:       long,
		Aliases:    []string{"s"},
		SuggestFor: []string{"launch", "boot", "up", "run", "begin", "serve"},
		Example:    example,
		RunE:       start,
	}

	runAPI    bool
	runWorker bool
)

func init() {
	Cmd.Flags().BoolVar(&runAPI, "api", false, "Serve the HTTP API")
	Cmd.Flags().BoolVar(&runWorker, "worker", false, "Process queued jobs")
}

// instance holds what start brought up so shutdown can release it in order.
type instance struct {
	db      *gorm.DB
	queue   *queue.Service
	server  *api.Server
	worker  *worker.Worker
	janitor *queue.Janitor
}

func start(cmd *cobra.Command, args []string) error {
	if !runAPI && !runWorker {
		runAPI, runWorker = true, true
	}

	vars := env.Variables()
	metrics.Register()

	gdb, err := db.Connection()
	if err != nil {
		return err
	}

	inst := &instance{db: gdb, queue: queue.New(queue.ConfigFromEnv(vars))}
	defer inst.shutdown()

	if err := inst.queue.Ping(cmd.Context()); err != nil {
		log.Warn("broker not reachable yet", "addr", vars.RedisAddr, "error", err)
	}

	errs := make(chan error, 2)

	if runWorker {
		bus := event.New()
		handler := worker.NewHandler(jobstore.New(gdb), inst.queue, mesher.NewSimulated(vars.MeshWorkDuration), bus)
		inst.worker = worker.New(inst.queue, handler, bus, worker.ConfigFromEnv(vars))

		log.Info("launching mesh worker", "concurrency", vars.WorkerConcurrency, "rate_limit", vars.WorkerRateLimit)
		if err := inst.worker.Start(); err != nil {
			inst.worker = nil
			return err
		}

		if inst.janitor, err = queue.NewJanitor(inst.queue, vars.JanitorSchedule); err != nil {
			return err
		}
		inst.janitor.Start()
	}

	if runAPI {
		inst.server = api.New(bind.Deps{DB: gdb, Queue: inst.queue}, vars.Port)

		go func() {
			log.Info("spinning up api")
			errs <- inst.server.Start()
		}()
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGUSR1, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	for {
		select {
		case err := <-errs:
			return err
		case s := <-signals:
			if s == syscall.SIGUSR1 {
				log.Info("dumping stack traces due to SIGUSR1 signal")
				if profile := pprof.Lookup("goroutine"); profile != nil {
					if err := profile.WriteTo(os.Stdout, 1); err != nil {
						log.Error("write goroutine profile", "error", err)
					}
				}
				continue
			}

			log.Info("gracefully shutting down", "signal", s.String())
			return nil
		}
	}
}

// shutdown stops intake before draining: the API stops accepting
// submissions, the worker stops pulling, in-flight work drains, then the
// janitor, the broker connections and the database are released.
func (i *instance) shutdown() {
	timeout := env.Variables().ShutdownTimeout

	if i.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		if err := i.server.Shutdown(ctx); err != nil {
			log.Error("api shutdown failure", "error", err)
		}
		cancel()
	}

	if i.worker != nil {
		i.worker.Stop()
		i.worker.Shutdown()
	}

	if i.janitor != nil {
		i.janitor.Stop()
	}

	if err := i.queue.Close(); err != nil {
		log.Error("queue close failure", "error", err)
	}

	db.Close(i.db)
}
