package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"

	"github.com/holofood-data/holofood-go/internal/pkg/application/proxy"
	"github.com/holofood-data/holofood-go/internal/pkg/infrastructure/router"
	"github.com/holofood-data/holofood-go/internal/pkg/infrastructure/storage"
	"github.com/holofood-data/holofood-go/internal/pkg/presentation/api/portal"
)

const appName string = "holofood-proxy"

func main() {
	appVersion := buildinfo.SourceVersion()

	ctx, log, cleanup := o11y.Init(context.Background(), appName, appVersion, "json")
	defer cleanup()

	configPath := env.GetVariableOrDefault(ctx, "UPSTREAMS_CONFIG", "/opt/holofood/config/upstreams.yaml")
	opaPath := env.GetVariableOrDefault(ctx, "AUTHZ_POLICY", "/opt/holofood/config/authz.rego")

	configFile, err := os.Open(configPath)
	if err != nil {
		log.Error("failed to open upstream configuration", "path", configPath, "err", err.Error())
		os.Exit(1)
	}

	cfg, err := proxy.LoadConfiguration(configFile)
	configFile.Close()
	if err != nil {
		log.Error("failed to parse upstream configuration", "err", err.Error())
		os.Exit(1)
	}

	app, err := proxy.New(ctx, cfg)
	if err != nil {
		log.Error("failed to configure upstream portals", "err", err.Error())
		os.Exit(1)
	}

	var cache storage.Cache

	storageConfig := storage.LoadConfiguration(ctx)
	if storageConfig.Enabled() {
		cache, err = storage.Connect(ctx, storageConfig)
		if err != nil {
			log.Error("failed to connect to response cache", "err", err.Error())
			os.Exit(1)
		}

		go storage.RunPurger(ctx, cache, 10*time.Minute)
	} else {
		log.Info("no response cache configured, proxying without one")
	}

	policies, err := os.Open(opaPath)
	if err != nil {
		log.Error("failed to open authorization policies", "path", opaPath, "err", err.Error())
		os.Exit(1)
	}
	defer policies.Close()

	r := router.New(appName)

	err = portal.RegisterHandlers(ctx, r, policies, app, cache)
	if err != nil {
		log.Error("failed to register handlers", "err", err.Error())
		os.Exit(1)
	}

	port := env.GetVariableOrDefault(ctx, "SERVICE_PORT", "8080")
	log.Info("starting to listen for connections", "port", port)

	err = http.ListenAndServe(":"+port, r)
	if err != nil {
		log.Error("failed to listen for connections", "err", err.Error())
		os.Exit(1)
	}
}
