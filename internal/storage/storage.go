// Package storage aggregates the system's persistence collaborators: MySQL
// for the three collections, Redis for transcripts and the change feed,
// MinIO for resume documents and RabbitMQ for the rating pipeline.
package storage

import (
	"fmt"
	"strings"

	"ats-agent-go/internal/config"
	"ats-agent-go/internal/logger"
)

// Storage bundles the persistence collaborators.
type Storage struct {
	MySQL    *MySQL
	Redis    *Redis
	MinIO    *MinIO
	RabbitMQ *RabbitMQ
}

// NewStorage initializes every collaborator. MySQL is mandatory; the others
// degrade to nil with a warning so a partial deployment still serves the
// endpoints that do not need them.
func NewStorage(cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}

	s := &Storage{}
	var degraded []string

	mysql, err := NewMySQL(&cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("init mysql: %w", err)
	}
	s.MySQL = mysql

	if s.Redis, err = NewRedis(&cfg.Redis); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, chat memory and change feed disabled")
		degraded = append(degraded, "redis")
	}
	if s.MinIO, err = NewMinIO(&cfg.MinIO); err != nil {
		logger.Warn().Err(err).Msg("minio unavailable, resume storage disabled")
		degraded = append(degraded, "minio")
	}
	if cfg.RabbitMQ.URL != "" {
		if s.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ); err != nil {
			logger.Warn().Err(err).Msg("rabbitmq unavailable, automatic rating disabled")
			degraded = append(degraded, "rabbitmq")
		}
	} else {
		degraded = append(degraded, "rabbitmq (not configured)")
	}

	if len(degraded) > 0 {
		logger.Warn().Str("degraded", strings.Join(degraded, ", ")).Msg("storage initialized with degraded collaborators")
	} else {
		logger.Info().Msg("storage initialized")
	}
	return s, nil
}

// Close releases every collaborator, ignoring individual close errors.
func (s *Storage) Close() {
	if s.RabbitMQ != nil {
		s.RabbitMQ.Close()
	}
	if s.Redis != nil {
		s.Redis.Close()
	}
	if s.MySQL != nil {
		s.MySQL.Close()
	}
}
