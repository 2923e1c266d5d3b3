package badger

import "github.com/rs/zerolog"

// zerologAdapter routes badger's internal logging into zerolog.
type zerologAdapter struct {
	log *zerolog.Logger
}

func (a zerologAdapter) Errorf(format string, args ...interface{}) {
	a.log.Error().Msgf(format, args...)
}

func (a zerologAdapter) Warningf(format string, args ...interface{}) {
	a.log.Warn().Msgf(format, args...)
}

func (a zerologAdapter) Infof(format string, args ...interface{}) {
	a.log.Debug().Msgf(format, args...)
}

func (a zerologAdapter) Debugf(format string, args ...interface{}) {
	a.log.Trace().Msgf(format, args...)
}
