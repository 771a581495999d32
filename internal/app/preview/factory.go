package preview

import (
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/moodbox/internal/infra/config"
	"github.com/osa030/moodbox/internal/infra/deezer"
	"github.com/osa030/moodbox/internal/infra/itunes"
)

// ITunesSettings represents settings for the iTunes searcher.
type ITunesSettings struct {
	Country           string  `mapstructure:"country" default:"US" validate:"len=2"`
	RequestsPerMinute float64 `mapstructure:"requests_per_minute" default:"20" validate:"gt=0"`
	BaseURL           string  `mapstructure:"base_url" validate:"omitempty,url"`
}

// DeezerSettings represents settings for the Deezer searcher.
type DeezerSettings struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" default:"10" validate:"gt=0"`
	BaseURL           string  `mapstructure:"base_url" validate:"omitempty,url"`
}

// NewSearcherFromConfig creates the fallback searcher selected in configuration.
// Returns a nil Searcher when the fallback is disabled.
func NewSearcherFromConfig(cfg config.SearchConfig, spotify SpotifyClient) (Searcher, error) {
	zlog.Debug().Msgf("creating preview searcher: type=%s settings=%+v", cfg.Type, cfg.Settings)

	switch cfg.Type {
	case "none", "":
		zlog.Info().Msg("preview fallback search disabled")
		return nil, nil

	case "itunes":
		var s ITunesSettings
		if err := decodeSettings(cfg.Settings, &s); err != nil {
			return nil, errors.Wrap(err, "invalid itunes settings")
		}
		client := itunes.New(itunes.Config{
			Country:           s.Country,
			RequestsPerMinute: s.RequestsPerMinute,
			BaseURL:           s.BaseURL,
		})
		zlog.Info().Msgf("registered preview searcher: type=itunes country=%s rpm=%.0f", s.Country, s.RequestsPerMinute)
		return NewITunesSearcher(client), nil

	case "deezer":
		var s DeezerSettings
		if err := decodeSettings(cfg.Settings, &s); err != nil {
			return nil, errors.Wrap(err, "invalid deezer settings")
		}
		client := deezer.New(deezer.Config{
			RequestsPerSecond: s.RequestsPerSecond,
			BaseURL:           s.BaseURL,
		})
		zlog.Info().Msgf("registered preview searcher: type=deezer rps=%.0f", s.RequestsPerSecond)
		return NewDeezerSearcher(client), nil

	case "spotify":
		if spotify == nil {
			return nil, errors.New("spotify client is required")
		}
		zlog.Info().Msg("registered preview searcher: type=spotify")
		return NewSpotifySearcher(spotify), nil

	default:
		return nil, errors.Newf("unsupported preview search type: %s", cfg.Type)
	}
}

// decodeSettings decodes, defaults and validates a provider settings map.
func decodeSettings(settings map[string]any, out any) error {
	if len(settings) > 0 {
		if err := mapstructure.Decode(settings, out); err != nil {
			return errors.Wrap(err, "failed to decode settings")
		}
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
