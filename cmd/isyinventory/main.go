// ISY Inventory - Polyglot node server
//
// This is the main entry point of the ISY inventory node server. It polls
// an ISY controller's REST interface for its nodes, scenes, variables and
// programs, and publishes the counts as driver values of a controller node
// through the Polyglot host.
//
// Polyglot starts the process and talks to it over MQTT; everything else
// (history, time series, status API) is optional and set up from
// configs/config.yaml.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/simplextech/udi-poly-inventory/migrations"

	"github.com/simplextech/udi-poly-inventory/internal/api"
	"github.com/simplextech/udi-poly-inventory/internal/controller"
	"github.com/simplextech/udi-poly-inventory/internal/heartbeat"
	"github.com/simplextech/udi-poly-inventory/internal/infrastructure/config"
	"github.com/simplextech/udi-poly-inventory/internal/infrastructure/database"
	"github.com/simplextech/udi-poly-inventory/internal/infrastructure/influxdb"
	"github.com/simplextech/udi-poly-inventory/internal/infrastructure/logging"
	"github.com/simplextech/udi-poly-inventory/internal/infrastructure/mqtt"
	"github.com/simplextech/udi-poly-inventory/internal/inventory"
	"github.com/simplextech/udi-poly-inventory/internal/isy"
	"github.com/simplextech/udi-poly-inventory/internal/polyglot"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1) //nolint:gocritic // cancel called explicitly above
	}
}

// run is the node server itself, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - configPath: Path to the YAML configuration file
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, configPath string) error { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting ISY inventory node server",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	var recorders []inventory.Recorder

	// Cycle history (optional)
	var db *database.DB
	var history *inventory.SQLiteHistory
	if cfg.Database.Enabled {
		db, err = database.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		log.Info("database connected", "path", db.Path())

		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("database migrations complete")

		history = inventory.NewSQLiteHistory(db.DB, cfg.Database.Retention)
		recorders = append(recorders, history)
		logLastCycle(ctx, history, log)
	} else {
		log.Info("cycle history disabled")
	}

	// Time series (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		recorders = append(recorders, &influxRecorder{client: influxClient})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Status API (optional)
	if cfg.API.Enabled {
		deps := api.Deps{
			Config:  cfg.API,
			WS:      cfg.WebSocket,
			Logger:  log,
			Version: version,
		}
		if history != nil {
			deps.History = history
		}
		apiServer, apiErr := api.New(deps)
		if apiErr != nil {
			return fmt.Errorf("creating status API: %w", apiErr)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting status API: %w", startErr)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing status API", "error", closeErr)
			}
		}()
		recorders = append(recorders, apiServer)
	} else {
		log.Info("status API disabled")
	}

	// Polyglot host bus
	mqttClient, err := mqtt.Connect(cfg.MQTT, cfg.Polyglot.ProfileNum)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
		"profile", cfg.Polyglot.ProfileNum,
	)

	// #nosec G115 -- qos validated to 0..2
	iface := polyglot.New(mqttClient, cfg.Polyglot.ProfileNum, byte(cfg.MQTT.QoS))
	iface.SetLogger(log)

	address := cfg.Polyglot.ControllerAddress

	isyClient := isy.NewClient(cfg.ISY.Timeout)
	isyClient.SetLogger(log)

	collector := inventory.NewCollector(inventory.CollectorOptions{
		Fetcher:   isyClient,
		Publisher: inventory.NewReporter(iface, address),
		Recorders: recorders,
		Logger:    log,
	})

	pulse := heartbeat.New(iface, address)
	pulse.SetLogger(log)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	ctrl := controller.New(controller.Options{
		Host:      iface,
		Cycler:    collector,
		Heartbeat: pulse,
		Logger:    log,
		Node: controller.NodeConfig{
			Address:   address,
			Name:      cfg.Polyglot.ControllerName,
			NodeDefID: cfg.Polyglot.NodeDefID,
		},
		OnShutdown: stop,
	})

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	if err := iface.Start(runCtx, ctrl); err != nil {
		return fmt.Errorf("starting Polyglot interface: %w", err)
	}

	if cfg.Polling.Enabled {
		scheduler := controller.NewScheduler(ctrl, cfg.Polling.ShortInterval, cfg.Polling.LongInterval)
		scheduler.Start(runCtx)
		defer scheduler.Stop()
		log.Info("local poll scheduler started",
			"short_interval", cfg.Polling.ShortInterval,
			"long_interval", cfg.Polling.LongInterval,
		)
	}

	log.Info("initialisation complete, waiting for Polyglot")

	<-runCtx.Done()

	log.Info("shutting down")
	iface.Wait()

	log.Info("ISY inventory node server stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses ISYINV_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ISYINV_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database to check (nil if history is disabled)
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// logLastCycle reports the newest stored cycle, so a restart shows where
// the previous run left off.
func logLastCycle(ctx context.Context, history inventory.History, log *logging.Logger) {
	records, err := history.Recent(ctx, 1)
	if err != nil {
		log.Warn("reading cycle history failed", "error", err)
		return
	}
	if len(records) == 0 {
		log.Info("no cycles recorded yet")
		return
	}
	last := records[0]
	log.Info("last recorded cycle",
		"cycle_id", last.ID,
		"host", last.Host,
		"started_at", last.StartedAt.Format(time.RFC3339),
		"total_nodes", last.Counts.TotalNodes,
		"failed_resources", len(last.Failures),
	)
}

// influxRecorder adapts the InfluxDB client to inventory.Recorder.
type influxRecorder struct {
	client *influxdb.Client
}

func (r *influxRecorder) RecordCycle(_ context.Context, cycle inventory.Cycle) error {
	r.client.WriteInventory(cycle.Host, cycle.Counts.Fields(), len(cycle.Failures), cycle.StartedAt)
	return nil
}
