package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/Digital-Shane/episode-roulette/internal/picker"
	"github.com/Digital-Shane/episode-roulette/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, service.ErrorResponse{Error: message})
}

// respondServiceError maps a catalog error onto a status code.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logger := s.requestLogger(r)

	switch {
	case service.IsInvalidRequest(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case service.IsNotFound(err):
		logger.Warn("show not found")
		respondError(w, http.StatusNotFound, "not found")
	default:
		logger.WithError(err).Error(msg)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) searchShows(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondError(w, http.StatusBadRequest, "missing search query")
		return
	}

	logger := s.requestLogger(r)
	logger.WithField("query", query).Info("querying shows")

	shows, err := s.catalog.SearchShows(r.Context(), query)
	if err != nil {
		s.respondServiceError(w, r, "error while querying shows", err)
		return
	}

	if len(shows) == 0 {
		logger.Info("no show results")
	} else {
		logger.WithField("amount", len(shows)).Info("show results")
	}

	respondJSON(w, http.StatusOK, shows)
}

func (s *Server) getShow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.requestLogger(r).WithField("showId", id).Info("querying show")

	show, err := s.catalog.Show(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, r, "error while querying show", err)
		return
	}

	respondJSON(w, http.StatusOK, show)
}

func (s *Server) randomEpisode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	query := r.URL.Query()

	logger := s.requestLogger(r)
	logger.WithField("showId", id).Info("querying show")

	resp, err := s.catalog.RandomEpisode(r.Context(), picker.Request{
		ShowID:    id,
		SeasonMin: query.Get("seasonMin"),
		SeasonMax: query.Get("seasonMax"),
		History:   query.Get("history"),
	})
	if err != nil {
		s.respondServiceError(w, r, "error while querying show", err)
		return
	}

	logger.WithFields(logrus.Fields{
		"season":   resp.Episode.Season,
		"episode":  resp.Episode.Episode,
		"attempts": resp.Episode.Attempts,
	}).Info("show result")

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) getEpisode(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	season, err := strconv.Atoi(vars["season"])
	if err != nil || season < 1 {
		respondError(w, http.StatusBadRequest, "season must be a positive integer")
		return
	}
	episode, err := strconv.Atoi(vars["episode"])
	if err != nil || episode < 1 {
		respondError(w, http.StatusBadRequest, "episode must be a positive integer")
		return
	}

	logger := s.requestLogger(r)
	logger.WithFields(logrus.Fields{
		"showId":  id,
		"season":  season,
		"episode": episode,
	}).Info("querying show")

	resp, err := s.catalog.Episode(r.Context(), id, season, episode)
	if err != nil {
		s.respondServiceError(w, r, "error while querying episode", err)
		return
	}

	logger.WithFields(logrus.Fields{
		"season":  resp.Episode.Season,
		"episode": resp.Episode.Episode,
	}).Info("show result")

	respondJSON(w, http.StatusOK, resp)
}
