package notify

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/oisentinel/models"
)

// Multiplexer fans one alert out to every configured channel. Channels
// are independent and best-effort: a failing channel is logged and never
// blocks the others or the polling cycle.
type Multiplexer struct {
	channels []namedChannel
	logger   zerolog.Logger
}

type namedChannel struct {
	name string
	ch   models.Notifier
}

func NewMultiplexer() *Multiplexer {
	return &Multiplexer{
		logger: log.With().Str("component", "notifier").Logger(),
	}
}

// Add registers a channel under a name used in delivery logs.
func (m *Multiplexer) Add(name string, ch models.Notifier) {
	m.channels = append(m.channels, namedChannel{name: name, ch: ch})
}

// Notify delivers to all channels, swallowing per-channel errors.
func (m *Multiplexer) Notify(subject, body string) error {
	for _, nc := range m.channels {
		if err := nc.ch.Notify(subject, body); err != nil {
			m.logger.Error().Err(err).Str("channel", nc.name).Msg("Alert delivery failed")
			continue
		}
		m.logger.Debug().Str("channel", nc.name).Msg("Alert delivered")
	}
	return nil
}

// ConsoleNotifier prints the alert body to stdout, mirroring the plain
// console output operators tail in a terminal.
type ConsoleNotifier struct{}

func NewConsoleNotifier() *ConsoleNotifier { return &ConsoleNotifier{} }

func (c *ConsoleNotifier) Notify(subject, body string) error {
	fmt.Println(body)
	return nil
}
