package main

import (
	"flag"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/sib-utrecht/portal"
	"github.com/sib-utrecht/portal/config"
	"github.com/sib-utrecht/portal/http"
	"github.com/sib-utrecht/portal/storage"
)

func main() {
	configPath := flag.String("config", "config.json", "full path to config file")
	migrations := flag.Bool("migrations", false, "only run migrations and exit")
	flag.Parse()

	// secrets are usually injected via PORTAL_* variables; a .env file
	// is a convenience for local development
	if err := godotenv.Load(); err != nil {
		log.Debug().Str("c", "dotenv_skip").Err(err).Msg("")
	}

	config, err := config.Configure(*configPath)
	if err != nil {
		log.Fatal().Str("c", "load_config").Str("path", *configPath).Err(err).Msg("")
		return
	}

	if err := portal.Init(config); err != nil {
		log.Fatal().Str("c", "portal_init").Err(err).Msg("")
		return
	}

	if *migrations || config.Migrations == nil || *config.Migrations {
		if err := storage.DB.EnsureMigrations(); err != nil {
			log.Fatal().Str("c", "portal_migrations").Err(err).Msg("")
			return
		}
	} else {
		log.Info().Str("c", "migrations_skip").Msg("")
	}

	if *migrations {
		return
	}

	http.Listen()
}
