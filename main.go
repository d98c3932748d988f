package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"expense-manager/config"
	"expense-manager/database"
	"expense-manager/middleware"
	"expense-manager/router"
	"expense-manager/service"

	"golang.org/x/sync/errgroup"
)

//go:generate swag init -g main.go -o docs

// @title Household Expense Manager API
// @version 1.0
// @description Track household expenses by category, split them between members and chart monthly spending.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const version = "1.0.0"

var (
	profile     string
	configFile  string
	port        string
	showVersion bool
)

func init() {
	flag.StringVar(&profile, "profile", "", "configuration profile: dev or prod (default dev)")
	flag.StringVar(&configFile, "config", "", "optional external config file")
	flag.StringVar(&configFile, "c", "", "optional external config file (shorthand)")
	flag.StringVar(&port, "port", "", "listen port, e.g. 8080 or :8080")
	flag.StringVar(&port, "p", "", "listen port (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.BoolVar(&showVersion, "v", false, "print version and exit (shorthand)")
}

// resolveProfile lets the profile be given as a flag or as the single positional argument
func resolveProfile(flagValue string, args []string) (string, error) {
	if len(args) > 1 {
		return "", fmt.Errorf("unexpected arguments: %s", strings.Join(args, " "))
	}
	if len(args) == 1 {
		if flagValue != "" && flagValue != args[0] {
			return "", fmt.Errorf("profile given twice: -profile %s and %s", flagValue, args[0])
		}
		return config.NormalizeProfile(args[0])
	}
	return config.NormalizeProfile(flagValue)
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Printf("expense-manager v%s\n", version)
		return
	}

	name, err := resolveProfile(profile, flag.Args())
	if err != nil {
		log.Fatalf("invalid profile: %v", err)
	}

	cfg, err := config.LoadConfig(name, configFile)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
		log.Printf("port from command line: %s", port)
	}
	config.PrintConfig()

	if err := database.Init(cfg); err != nil {
		log.Fatalf("init database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := service.New(ctx, database.GetDB(), cfg)
	if err != nil {
		log.Fatalf("init services: %v", err)
	}
	middleware.InitJWT(cfg)

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router.SetupRouter(cfg, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("expense manager listening on %s (%s)", cfg.Server.Port, cfg.Profile)
	log.Printf("  swagger: http://localhost%s/swagger/index.html", cfg.Server.Port)
	log.Printf("  api:     http://localhost%s/api/v1/", cfg.Server.Port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server: %v", err)
	}

	if sqlDB, err := database.GetDB().DB(); err == nil {
		sqlDB.Close()
	}
}
