package picker

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/samber/lo"
)

// SeasonRange is an inclusive, 1-based range of seasons.
type SeasonRange struct {
	Min int
	Max int
}

// Contains reports whether season lies within the range.
func (r SeasonRange) Contains(season int) bool {
	return season >= r.Min && season <= r.Max
}

// ClampSeasonRange turns raw seasonMin/seasonMax query values into a range
// satisfying 1 <= Min <= Max <= totalSeasons. Missing, unparseable and zero
// values fall back to the full range.
func ClampSeasonRange(rawMin, rawMax string, totalSeasons int) SeasonRange {
	if totalSeasons < 1 {
		totalSeasons = 1
	}

	parsedMin := 1
	if v, ok := ParseLeadingInt(rawMin); ok && v != 0 {
		parsedMin = v
	}
	parsedMin = max(1, parsedMin)

	parsedMax := totalSeasons
	if v, ok := ParseLeadingInt(rawMax); ok && v != 0 {
		parsedMax = v
	}

	start := min(max(1, parsedMin), totalSeasons)
	end := max(min(parsedMax, totalSeasons), start)

	return SeasonRange{Min: start, Max: end}
}

// ParseLeadingInt reads a base 10 integer from the start of s: optional
// leading whitespace, an optional sign, then digits. Anything after the
// digits is ignored. ok is false when no digits are present. Values outside
// the int32 range saturate.
func ParseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	negative := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}

	v, err := strconv.ParseInt(s[:end], 10, 32)
	if err != nil {
		v = math.MaxInt32
	}
	if negative {
		v = -v
	}
	return int(v), true
}

// Entry is one watched (season, episode) pair.
type Entry struct {
	Season  int
	Episode int
}

// History is the client supplied list of watched episodes, oldest first.
type History []Entry

// Episodes returns the episode numbers recorded for season, in order.
func (h History) Episodes(season int) []int {
	return lo.FilterMap(h, func(e Entry, _ int) (int, bool) {
		return e.Episode, e.Season == season
	})
}

// ParseHistory decodes a JSON array of [season, episode] pairs. Any decode
// failure, a non-array value or a malformed element yields an empty history.
func ParseHistory(raw string) History {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var items [][]*float64
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}

	history := make(History, 0, len(items))
	for _, item := range items {
		if len(item) != 2 {
			return nil
		}
		season, ok := integral(item[0])
		if !ok {
			return nil
		}
		episode, ok := integral(item[1])
		if !ok {
			return nil
		}
		history = append(history, Entry{Season: season, Episode: episode})
	}
	return history
}

func integral(v *float64) (int, bool) {
	if v == nil || math.Trunc(*v) != *v || math.Abs(*v) > math.MaxInt32 {
		return 0, false
	}
	return int(*v), true
}
