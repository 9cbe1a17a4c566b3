package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/eringen/routeweb"
	"github.com/eringen/routeweb/gateway"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(); err != nil {
			log.WithError(err).Fatal("routeweb stopped")
		}
	case "health":
		if err := runHealth(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("routeweb %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`routeweb - the web front end of the MargaMetis route planner

Usage:
  routeweb <command>

Commands:
  serve         Start the web server
  health        Probe the route-planning backend once
  version       Print the routeweb version
  help          Show this help message

Configuration is read from the environment and from .env (override the
path with ENV_FILE). SESSION_SECRET is required.`)
}

func loadEnv() {
	path := routeweb.EnvOr("ENV_FILE", ".env")
	if err := godotenv.Load(path); err != nil {
		log.WithField("path", path).Warn("no .env file loaded, using environment only")
	}
}

func setupLogging(level string) *log.Logger {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	if lvl, err := log.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	}
	return log.StandardLogger()
}

func runServe() error {
	loadEnv()
	cfg, err := routeweb.LoadConfig()
	if err != nil {
		return err
	}
	logger := setupLogging(cfg.LogLevel)

	app := routeweb.New(cfg, routeweb.DefaultViews(), routeweb.WithLogger(logger))

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		app.Close()
		return err
	case sig := <-quit:
		log.Infof("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("routeweb stopped")
	return nil
}

func runHealth() error {
	loadEnv()
	url := routeweb.EnvOr("API_URL", gateway.DefaultBaseURL)
	logger := setupLogging(routeweb.EnvOr("LOG_LEVEL", "warn"))

	g, err := gateway.New(gateway.Config{BaseURL: url, Timeout: 10 * time.Second, Logger: logger})
	if err != nil {
		return err
	}
	status, err := g.Route.HealthCheck(context.Background())
	if err != nil {
		return fmt.Errorf("%s: %s", url, gateway.Message(err, "Service unavailable"))
	}
	fmt.Printf("%s: %s\n", url, status.Status)
	return nil
}
