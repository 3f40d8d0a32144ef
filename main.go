// Package main is the entry point for the journal service: the backend of
// an academic journal's editorial workflow. It wires configuration,
// logging, the document store, the domain stores, and the HTTP server.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"journal.evalgo.org/auth"
	"journal.evalgo.org/comments"
	"journal.evalgo.org/common"
	"journal.evalgo.org/config"
	"journal.evalgo.org/db"
	"journal.evalgo.org/httpx"
	"journal.evalgo.org/manuscripts"
	"journal.evalgo.org/people"
	"journal.evalgo.org/text"
	"journal.evalgo.org/version"
)

func main() {
	cfgFile := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgFile)
	if err != nil {
		common.Logger.WithError(err).Fatal("failed to load configuration")
	}

	logger := common.NewLogger(common.LoggerConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	log := common.ServiceLogger(logger, "journal", version.GetVersion())

	store, err := db.NewCouchStore(db.CouchConfig{
		URL:             cfg.Database.BuildURL(),
		Database:        cfg.Database.Database,
		CreateIfMissing: cfg.Database.CreateIfMissing,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to document store")
	}
	defer store.Close()

	peopleStore := people.NewStore(store, logger)
	textStore := text.NewStore(store, logger)
	manuscriptStore := manuscripts.NewStore(store, textStore, logger)
	commentStore := comments.NewStore(store, manuscriptStore, peopleStore, logger)

	tokens := auth.NewTokenService(cfg.Security.JWTSecret, cfg.Security.JWTExpiration)
	authService := auth.NewService(peopleStore, tokens, logger)

	serverCfg := httpx.ServerConfig{
		Port:            cfg.Server.Port,
		Debug:           cfg.Server.Debug,
		BodyLimit:       "10M",
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		RateLimit:       cfg.Server.RateLimit,
	}
	e := httpx.NewEchoServer(serverCfg, logger)
	e.Use(auth.Identity(peopleStore))

	httpx.NewPeopleHandler(peopleStore).RegisterRoutes(e)
	httpx.NewManuscriptHandler(manuscriptStore).RegisterRoutes(e)
	httpx.NewTextHandler(textStore).RegisterRoutes(e)
	httpx.NewCommentHandler(commentStore).RegisterRoutes(e)
	httpx.NewAuthHandler(authService).RegisterRoutes(e)
	httpx.RegisterMetaRoutes(e, cfg.Journal)

	go func() {
		if err := httpx.StartServer(e, serverCfg, logger); err != nil {
			log.WithError(err).Info("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	if err := httpx.GracefulShutdown(e, serverCfg.ShutdownTimeout, logger); err != nil {
		log.WithError(err).Error("shutdown failed")
		os.Exit(1)
	}
}
