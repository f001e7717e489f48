package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jackc/pgx/v5"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tim-hellhake/homie-adapter/internal/pkg/config"
	"github.com/tim-hellhake/homie-adapter/internal/pkg/database"
	"github.com/tim-hellhake/homie-adapter/internal/pkg/database/migration"
	"github.com/tim-hellhake/homie-adapter/internal/pkg/homie"
	"github.com/tim-hellhake/homie-adapter/internal/pkg/mqtt"
	"github.com/tim-hellhake/homie-adapter/internal/pkg/publisher"
	"github.com/tim-hellhake/homie-adapter/internal/pkg/server"
)

// HomieCommand is the main entry point for the homie adapter CLI
// command. It validates configuration and starts all required services.
func HomieCommand(ctx *cli.Context) error {
	tuning, err := config.TuningFromEnv()
	if err != nil {
		return err
	}

	cfg := &config.Config{
		MqttCfg: &config.MqttConfig{
			Host:     ctx.String("mqtt-host"),
			Port:     ctx.Int("mqtt-port"),
			Username: ctx.String("mqtt-user"),
			Password: ctx.String("mqtt-pass"),
			Tuning:   tuning,
		},
		DatabaseURL:   ctx.String("database-url"),
		MigrationsDir: ctx.String("migrations-folder"),
		ListenAddr:    ctx.String("listen-addr"),
		APITokenHash:  ctx.String("api-token-hash"),
		LogLevel:      ctx.String("log-level"),
	}

	return run(ctx.Context, cfg, paho_mqtt.NewClient)
}

// clientFactory lets tests swap the real paho client for a fake.
type clientFactory func(opts *paho_mqtt.ClientOptions) paho_mqtt.Client

func run(ctx context.Context, cfg *config.Config, newClient clientFactory) error {
	errorChan := make(chan error, 1000)
	var err error

	eg, ctx := errgroup.WithContext(ctx)
	logCfg := zap.NewProductionConfig()

	logCfg.Level, err = zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	logger := zap.Must(logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)))
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()
	zap.ReplaceGlobals(logger)

	var db *database.Database
	if cfg.DatabaseURL != "" {
		if cfg.MigrationsDir != "" {
			if err := migration.Migrate(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
				return err
			}
		}
		conn, err := pgx.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		db = database.NewDatabase(conn)
		defer db.Close()

		if err := publisher.RegisterPublisher("postgres", db); err != nil {
			return err
		}

		eg.Go(func() error {
			return cronDbCleanup(db, errorChan)
		})
	}

	var broker mqttService
	var registry *homie.Registry

	opts := clientOptions(cfg.MqttCfg)
	opts.SetOnConnectHandler(func(_ paho_mqtt.Client) {
		// Runs on every (re)connect, restoring the subscription.
		if err := broker.Subscribe(homie.SubscriptionFilter, registry.HandleMessage); err != nil {
			errorChan <- err
		}
	})

	client := newClient(opts)
	broker = mqtt.New(client, cfg.MqttCfg.Tuning.QoS)
	registry = homie.NewRegistry(broker)

	srv := server.New(registry)
	if db != nil {
		srv = srv.WithHistory(db)
	}
	if err := publisher.RegisterPublisher("http", srv); err != nil {
		return err
	}

	if err := broker.Connect(); err != nil {
		return err
	}
	defer broker.Disconnect()

	eg.Go(func() error {
		httpSrv := &http.Server{
			Handler:      srv.Router(cfg.APITokenHash),
			Addr:         cfg.ListenAddr,
			WriteTimeout: 15 * time.Second,
			ReadTimeout:  15 * time.Second,
		}

		return httpSrv.ListenAndServe()
	})

	eg.Go(func() error {
		// handle any async errors from services
		for {
			select {
			case err := <-errorChan:
				if errors.Is(err, errCron) {
					logger.Error("cron error", zap.Error(err))
					return err
				}
				logger.Error("async error", zap.Error(err))
			case <-ctx.Done():
				logger.Info("context done")
				return ctx.Err()
			}
		}
	})

	return eg.Wait()
}

func clientOptions(cfg *config.MqttConfig) *paho_mqtt.ClientOptions {
	opts := paho_mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)).
		SetClientID(cfg.Tuning.ClientID).
		SetKeepAlive(cfg.Tuning.KeepAlive).
		SetWriteTimeout(cfg.Tuning.WriteTimeout).
		SetCleanSession(cfg.Tuning.CleanSession).
		SetOrderMatters(cfg.Tuning.OrderedDelivery).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	return opts
}

var errCron = errors.New("cron error")

func cronDbCleanup(db *database.Database, errChan chan error) error {
	if err := db.Cleanup(context.Background()); err != nil {
		return err
	}

	// CRON automation
	c := cron.New()
	if _, err := c.AddFunc("0 3 * * *", func() {
		if err := db.Cleanup(context.Background()); err != nil {
			zap.L().Error("error cleaning up database", zap.Error(err))
			errChan <- errCron
			return
		}
		zap.L().Info("cleaned up old property values")
	}); err != nil {
		return err
	}

	c.Run()
	return nil
}
