package database

import (
	"github.com/rs/zerolog/log"

	"github.com/they-call-me-electronerd/Ai-Girlfriend/models"
)

func Migrate() {
	err := DB.AutoMigrate(
		&models.ChatSession{},
		&models.Message{},
		&models.ClientState{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("migrations completed")
}
