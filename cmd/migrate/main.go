// migrate applies the embedded schema migrations to DATABASE_URL.
package main

import (
	"flag"
	"os"

	"github.com/jrsteele09/go-expense-tracker/internal/config"
	"github.com/jrsteele09/go-expense-tracker/internal/db/migrate"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	c, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	if err := migrate.Run(c.GetDatabaseURL(), *direction); err != nil {
		log.Fatal().Err(err).Str("direction", *direction).Msg("migrate")
	}
	log.Info().Str("direction", *direction).Msg("migrations applied")
}
