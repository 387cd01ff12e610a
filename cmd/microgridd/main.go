// microgridd is the per-node load-balancing agent of a microgrid.
//
// Each physical node runs one instance. The agent samples its local
// devices on a fixed period, classifies the node as supply, demand or
// normal, and negotiates power migrations with peer agents over the
// group's MQTT broker using the distributed drafting protocol.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	_ "github.com/voltmesh/microgrid-core/migrations"

	"github.com/voltmesh/microgrid-core/internal/balance"
	"github.com/voltmesh/microgrid-core/internal/device"
	"github.com/voltmesh/microgrid-core/internal/infrastructure/config"
	"github.com/voltmesh/microgrid-core/internal/infrastructure/database"
	"github.com/voltmesh/microgrid-core/internal/infrastructure/influxdb"
	"github.com/voltmesh/microgrid-core/internal/infrastructure/logging"
	"github.com/voltmesh/microgrid-core/internal/infrastructure/mqtt"
	"github.com/voltmesh/microgrid-core/internal/statecol"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting microgrid agent",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Resolve node identity
	selfUUID := cfg.Agent.UUID
	if selfUUID == "" {
		selfUUID = uuid.NewString()
		log.Warn("agent.uuid not configured, generated ephemeral identity", "uuid", selfUUID)
	}
	log.Info("node identity resolved", "uuid", selfUUID)

	// Open database and run migrations
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	// Build the device manager from the configured roster
	devices, err := buildDevices(cfg)
	if err != nil {
		return fmt.Errorf("building device roster: %w", err)
	}
	log.Info("device roster initialised", "devices", devices.Count())

	// Connect to the group broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
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
	mqttClient.SetOnConnect(func() { log.Info("MQTT reconnected") })
	mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Connect to InfluxDB (optional)
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
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Assemble the drafting agent
	view := balance.NewView(devices, cfg.Agent.GatewayDeviceID, cfg.Agent.UnitScale)
	transport := balance.NewMQTTTransport(mqttClient, selfUUID, byte(cfg.MQTT.QoS), log.With("component", "transport"))
	agent := balance.NewAgent(selfUUID, cfg.GetTickPeriod(), view, transport, log.With("component", "lb"))
	agent.SetHistory(device.NewSQLiteHistoryRepository(db.DB))
	if influxClient != nil {
		agent.SetTelemetry(influxClient)
	}

	if err := agent.Start(); err != nil {
		return fmt.Errorf("registering lb handler: %w", err)
	}

	// State collection poller (optional)
	var collector *statecol.Collector
	if cfg.Agent.StateCollection.Enabled {
		collector = statecol.NewCollector(selfUUID, cfg.GetStateCollectionInterval(),
			agent.Peers(), transport, log.With("component", "sc"))
		if influxClient != nil {
			collector.SetTelemetry(influxClient)
		}
		if err := collector.Start(); err != nil {
			return fmt.Errorf("registering sc handler: %w", err)
		}
	}

	// Verify all connections are healthy before entering the loop
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Drive the control loop; collector runs beside it when enabled
	errCh := make(chan error, 2)
	go func() { errCh <- agent.Run(ctx) }()
	if collector != nil {
		go func() { errCh <- collector.Run(ctx) }()
	}

	log.Info("initialisation complete, load balancing active",
		"tick_period", cfg.GetTickPeriod(),
		"gateway", cfg.Agent.GatewayDeviceID,
	)

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")
	if err := <-errCh; err != nil {
		return err
	}

	log.Info("microgrid agent stopped")
	return nil
}

// buildDevices registers the configured simulator devices.
func buildDevices(cfg *config.Config) (*device.Manager, error) {
	manager := device.NewManager()
	for _, dc := range cfg.Devices.Simulated {
		typ, err := device.ParseType(dc.Type)
		if err != nil {
			return nil, err
		}
		if err := manager.Register(device.NewSimDevice(dc.ID, typ, dc.Power)); err != nil {
			return nil, fmt.Errorf("registering device %q: %w", dc.ID, err)
		}
	}
	return manager, nil
}

// getConfigPath returns the configuration file path.
// Uses the MICROGRID_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := strings.TrimSpace(os.Getenv("MICROGRID_CONFIG")); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
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
