// internal/database/listener.go
package database

import (
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/clubhub/internal/config"
)

const (
	minReconnectInterval = 2 * time.Second
	maxReconnectInterval = time.Minute
)

// NewListener opens a LISTEN connection on the configured notify channel.
func NewListener(cfg config.DatabaseConfig) (*pq.Listener, error) {
	log := logrus.WithFields(logrus.Fields{"component": "listener", "channel": cfg.NotifyChannel})

	listener := pq.NewListener(cfg.DSN(), minReconnectInterval, maxReconnectInterval,
		func(event pq.ListenerEventType, err error) {
			switch event {
			case pq.ListenerEventConnected:
				log.Info("Listener connected")
			case pq.ListenerEventDisconnected:
				log.WithError(err).Warn("Listener disconnected")
			case pq.ListenerEventReconnected:
				log.Info("Listener reconnected")
			case pq.ListenerEventConnectionAttemptFailed:
				log.WithError(err).Warn("Listener connection attempt failed")
			}
		})

	if err := listener.Listen(cfg.NotifyChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.NotifyChannel, err)
	}

	return listener, nil
}
