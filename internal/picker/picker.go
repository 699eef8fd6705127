// Package picker chooses a random episode of a show, honouring a season range
// and avoiding episodes the viewer has already seen.
package picker

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/Digital-Shane/episode-roulette/internal/provider"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// DefaultAttempts is the number of episode lookups made before an episode
// without a title or plot is accepted.
const DefaultAttempts = 5

// Source is the part of the metadata adapter the picker reads from.
type Source interface {
	ShowDetails(ctx context.Context, id string) (*provider.Show, error)
	SeasonDetails(ctx context.Context, id string, season int) (*provider.Season, error)
	EpisodeDetails(ctx context.Context, id string, season, episode int) (*provider.Episode, error)
}

// Rand supplies uniform integers in [0, n).
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Picker runs the random episode selection against a Source.
type Picker struct {
	source   Source
	rand     Rand
	attempts int
	logger   logrus.FieldLogger
}

// Option customises a Picker.
type Option func(*Picker)

// WithRand replaces the random source. The default is safe for concurrent
// use; a replacement must be too if the Picker is shared.
func WithRand(r Rand) Option {
	return func(p *Picker) {
		if r != nil {
			p.rand = r
		}
	}
}

// WithAttempts sets the lookup budget. Values below 1 are ignored.
func WithAttempts(n int) Option {
	return func(p *Picker) {
		if n >= 1 {
			p.attempts = n
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(p *Picker) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Picker reading from source.
func New(source Source, opts ...Option) *Picker {
	p := &Picker{
		source:   source,
		rand:     globalRand{},
		attempts: DefaultAttempts,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Request carries the raw, unvalidated inputs of a pick.
type Request struct {
	ShowID    string
	SeasonMin string
	SeasonMax string
	History   string
}

// Selection is the outcome of a pick.
type Selection struct {
	Show     *provider.Show
	Episode  *provider.Episode
	Range    SeasonRange
	Attempts int
}

// Pick selects a random episode of the requested show. Only show lookups and
// upstream failures produce errors; malformed inputs are normalised.
func (p *Picker) Pick(ctx context.Context, req Request) (*Selection, error) {
	show, err := p.source.ShowDetails(ctx, req.ShowID)
	if err != nil {
		return nil, fmt.Errorf("show %s: %w", req.ShowID, err)
	}

	seasons := ClampSeasonRange(req.SeasonMin, req.SeasonMax, show.TotalSeasons)
	history := ParseHistory(req.History)
	counts := make(map[int]int)

	selection := &Selection{Show: show, Range: seasons}

	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		season := seasons.Min + p.rand.IntN(seasons.Max-seasons.Min+1)

		numEpisodes, err := p.episodeCount(ctx, show, req.ShowID, season, counts)
		if err != nil {
			return nil, err
		}

		number := chooseEpisode(p.rand, numEpisodes, history.Episodes(season))

		episode, err := p.source.EpisodeDetails(ctx, req.ShowID, season, number)
		switch {
		case provider.IsNotFound(err):
			episode = &provider.Episode{}
		case err != nil:
			return nil, fmt.Errorf("episode S%02dE%02d of %s: %w", season, number, req.ShowID, err)
		case episode == nil:
			episode = &provider.Episode{}
		}
		episode.Season = season
		episode.Episode = number

		selection.Episode = episode
		selection.Attempts = attempt

		p.logger.WithFields(logrus.Fields{
			"show":     req.ShowID,
			"season":   season,
			"episode":  number,
			"episodes": numEpisodes,
			"attempt":  attempt,
		}).Debug("episode candidate")

		if episode.HasMetadata() || numEpisodes == 1 {
			break
		}
	}

	return selection, nil
}

// episodeCount returns how many episodes season has, preferring counts from
// the show details and falling back to a season lookup. Unknown counts are 1.
func (p *Picker) episodeCount(ctx context.Context, show *provider.Show, id string, season int, cache map[int]int) (int, error) {
	if n, ok := show.EpisodeCount(season); ok {
		return n, nil
	}
	if n, ok := cache[season]; ok {
		return n, nil
	}

	n := 1
	details, err := p.source.SeasonDetails(ctx, id, season)
	switch {
	case provider.IsNotFound(err):
	case err != nil:
		return 0, fmt.Errorf("season %d of %s: %w", season, id, err)
	case details != nil && details.EpisodeCount > 0:
		n = details.EpisodeCount
	}

	cache[season] = n
	return n, nil
}

// chooseEpisode draws an episode number in [1, numEpisodes]. While some
// episodes of the season are unseen only those are eligible; once every
// episode has been seen, any but the most recently seen one is.
func chooseEpisode(r Rand, numEpisodes int, seen []int) int {
	if numEpisodes <= 1 {
		return 1
	}

	all := lo.RangeFrom(1, numEpisodes)
	watched := lo.Uniq(lo.Filter(seen, func(e int, _ int) bool {
		return e >= 1 && e <= numEpisodes
	}))

	var candidates []int
	if len(watched) < numEpisodes {
		candidates = lo.Without(all, watched...)
	} else {
		candidates = lo.Without(all, seen[len(seen)-1])
	}

	return candidates[r.IntN(len(candidates))]
}
