package session

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/Digital-Shane/episode-roulette/internal/picker"
	"github.com/mozillazg/go-unidecode"
	"github.com/samber/lo"
)

// Storage keys.
const (
	KeyFavourites       = "favourites"
	KeySeasonRanges     = "seasonRangeById"
	KeySpoilerAvoidance = "spoilerAvoidanceMode"
)

// Store is a string key/value store that survives restarts.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Favourite is a show the user pinned to the idle screen.
type Favourite struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Preferences reads and writes the user's persisted choices. Values that no
// longer decode are treated as unset.
type Preferences struct {
	store Store
}

func NewPreferences(store Store) *Preferences {
	return &Preferences{store: store}
}

func (p *Preferences) favourites() []Favourite {
	raw, ok := p.store.Get(KeyFavourites)
	if !ok {
		return nil
	}
	var favs []Favourite
	if err := json.Unmarshal([]byte(raw), &favs); err != nil {
		return nil
	}
	return favs
}

func (p *Preferences) saveFavourites(favs []Favourite) error {
	if favs == nil {
		favs = []Favourite{}
	}
	data, err := json.Marshal(favs)
	if err != nil {
		return err
	}
	return p.store.Set(KeyFavourites, string(data))
}

// Favourites lists favourites ordered by title, ignoring case, accents and a
// leading "The".
func (p *Preferences) Favourites() []Favourite {
	favs := p.favourites()
	slices.SortStableFunc(favs, func(a, b Favourite) int {
		return strings.Compare(NormaliseTitle(a.Title), NormaliseTitle(b.Title))
	})
	return favs
}

func (p *Preferences) IsFavourite(id string) bool {
	return lo.ContainsBy(p.favourites(), func(f Favourite) bool { return f.ID == id })
}

// AddFavourite pins fav. Adding a show twice is a no-op.
func (p *Preferences) AddFavourite(fav Favourite) error {
	favs := p.favourites()
	if lo.ContainsBy(favs, func(f Favourite) bool { return f.ID == fav.ID }) {
		return nil
	}
	return p.saveFavourites(append(favs, fav))
}

func (p *Preferences) RemoveFavourite(id string) error {
	return p.saveFavourites(lo.Reject(p.favourites(), func(f Favourite, _ int) bool {
		return f.ID == id
	}))
}

// ToggleFavourite adds or removes fav and reports whether it is now pinned.
func (p *Preferences) ToggleFavourite(fav Favourite) (bool, error) {
	if p.IsFavourite(fav.ID) {
		return false, p.RemoveFavourite(fav.ID)
	}
	return true, p.AddFavourite(fav)
}

func (p *Preferences) seasonRanges() map[string][]int {
	ranges := map[string][]int{}
	raw, ok := p.store.Get(KeySeasonRanges)
	if !ok {
		return ranges
	}
	if err := json.Unmarshal([]byte(raw), &ranges); err != nil || ranges == nil {
		return map[string][]int{}
	}
	return ranges
}

// SeasonRange returns the range stored for a show.
func (p *Preferences) SeasonRange(id string) (picker.SeasonRange, bool) {
	bounds, ok := p.seasonRanges()[id]
	if !ok || len(bounds) != 2 || bounds[0] < 1 || bounds[1] < bounds[0] {
		return picker.SeasonRange{}, false
	}
	return picker.SeasonRange{Min: bounds[0], Max: bounds[1]}, true
}

// SetSeasonRange remembers r for a show. The full range [1, totalSeasons] is
// the default, so storing it removes the entry instead.
func (p *Preferences) SetSeasonRange(id string, r picker.SeasonRange, totalSeasons int) error {
	ranges := p.seasonRanges()
	if r.Min == 1 && r.Max == totalSeasons {
		delete(ranges, id)
	} else {
		ranges[id] = []int{r.Min, r.Max}
	}

	data, err := json.Marshal(ranges)
	if err != nil {
		return err
	}
	return p.store.Set(KeySeasonRanges, string(data))
}

func (p *Preferences) SpoilerAvoidance() bool {
	raw, _ := p.store.Get(KeySpoilerAvoidance)
	return raw == "true"
}

func (p *Preferences) SetSpoilerAvoidance(on bool) error {
	value := "false"
	if on {
		value = "true"
	}
	return p.store.Set(KeySpoilerAvoidance, value)
}

// NormaliseTitle is the sort key for show titles.
func NormaliseTitle(title string) string {
	t := strings.ToLower(strings.TrimSpace(unidecode.Unidecode(title)))
	if rest, ok := strings.CutPrefix(t, "the "); ok {
		return strings.TrimSpace(rest)
	}
	return t
}
