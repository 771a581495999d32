// Package sorter orders track lists by an audio feature.
package sorter

import (
	"cmp"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/moodbox/internal/domain/track"
)

// Key is a sort key.
type Key string

const (
	KeyDefault      Key = "default"
	KeyEnergy       Key = "energy"
	KeyDanceability Key = "danceability"
	KeyTempo        Key = "tempo"
)

// Keys lists every supported key.
var Keys = []Key{KeyDefault, KeyEnergy, KeyDanceability, KeyTempo}

// ErrUnknownKey is returned by ParseKey for unsupported names.
var ErrUnknownKey = errors.New("unknown sort key")

// ParseKey parses a sort key name. An empty name is KeyDefault.
func ParseKey(s string) (Key, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return KeyDefault, nil
	}
	for _, k := range Keys {
		if string(k) == name {
			return k, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownKey, "%q", s)
}

// Sort returns the tracks ordered by key. KeyDefault keeps input order.
// Feature keys sort descending; ties keep their input order and missing features count as 0.
// The input slice is never modified.
func Sort(tracks []track.Track, key Key) []track.Track {
	result := slices.Clone(tracks)
	value := valueFunc(key)
	if value == nil {
		return result
	}
	slices.SortStableFunc(result, func(a, b track.Track) int {
		return cmp.Compare(value(&b), value(&a))
	})
	return result
}

func valueFunc(key Key) func(*track.Track) float64 {
	switch key {
	case KeyEnergy:
		return (*track.Track).Energy
	case KeyDanceability:
		return (*track.Track).Danceability
	case KeyTempo:
		return (*track.Track).Tempo
	default:
		return nil
	}
}
