package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/playlister/internal/apperror"
	"github.com/sakif/playlister/internal/auth"
	"github.com/sakif/playlister/internal/model"
	"github.com/sakif/playlister/internal/service"
)

// PlaylistHandler serves the /store endpoints. Every route sits behind
// auth.RequireAuth; the requester is always the token subject.
type PlaylistHandler struct {
	playlists *service.PlaylistService
	logger    *slog.Logger
}

func NewPlaylistHandler(playlists *service.PlaylistService, logger *slog.Logger) *PlaylistHandler {
	return &PlaylistHandler{playlists: playlists, logger: logger}
}

// playlistBody is the editable part of a playlist. Any ownerEmail in the
// request is ignored; ownership comes from the session.
type playlistBody struct {
	Name  string       `json:"name"`
	Songs []model.Song `json:"songs"`
}

type updateRequest struct {
	Playlist playlistBody `json:"playlist"`
}

type playlistResponse struct {
	Success  bool            `json:"success"`
	Playlist *model.Playlist `json:"playlist"`
}

// HandleCreate stores a new playlist for the requester.
//
// HTTP: POST /store/playlist
// REQUEST BODY: {"name": "Road Trip", "songs": [{"title": ..., "artist": ..., "youTubeId": ...}]}
func (h *PlaylistHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterID(w, r)
	if !ok {
		return
	}
	var body playlistBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}

	playlist, err := h.playlists.Create(r.Context(), requester, body.Name, body.Songs)
	if err != nil {
		h.fail(w, "create", err)
		return
	}
	writeJSON(w, http.StatusCreated, playlistResponse{Success: true, Playlist: playlist})
}

// HandleGet returns one of the requester's playlists.
//
// HTTP: GET /store/playlist/{id}
func (h *PlaylistHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterID(w, r)
	if !ok {
		return
	}

	playlist, err := h.playlists.Get(r.Context(), requester, pathID(r))
	if err != nil {
		h.fail(w, "get", err)
		return
	}
	writeJSON(w, http.StatusOK, playlistResponse{Success: true, Playlist: playlist})
}

// HandleUpdate replaces a playlist's name and songs.
//
// HTTP: PUT /store/playlist/{id}
// REQUEST BODY: {"playlist": {"name": "...", "songs": [...]}}
func (h *PlaylistHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterID(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.playlists.Update(r.Context(), requester, pathID(r), req.Playlist.Name, req.Playlist.Songs)
	if err != nil {
		h.fail(w, "update", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"id":       updated.ID,
		"message":  "Playlist updated!",
		"playlist": updated,
	})
}

// HandleDelete removes a playlist and returns it.
//
// HTTP: DELETE /store/playlist/{id}
func (h *PlaylistHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterID(w, r)
	if !ok {
		return
	}

	deleted, err := h.playlists.Delete(r.Context(), requester, pathID(r))
	if err != nil {
		h.fail(w, "delete", err)
		return
	}
	writeJSON(w, http.StatusOK, playlistResponse{Success: true, Playlist: deleted})
}

// HandleList returns the requester's playlists with songs.
//
// HTTP: GET /store/playlists
func (h *PlaylistHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterID(w, r)
	if !ok {
		return
	}

	lists, err := h.playlists.List(r.Context(), requester)
	if err != nil {
		h.fail(w, "list", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": lists})
}

// HandlePairs returns {_id, name} for each of the requester's playlists.
//
// HTTP: GET /store/playlistpairs
func (h *PlaylistHandler) HandlePairs(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterID(w, r)
	if !ok {
		return
	}

	pairs, err := h.playlists.Pairs(r.Context(), requester)
	if err != nil {
		h.fail(w, "pairs", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "idNamePairs": pairs})
}

func (h *PlaylistHandler) fail(w http.ResponseWriter, op string, err error) {
	if statusFor(err) == http.StatusInternalServerError {
		h.logger.Error("playlist request failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
	}
	writeError(w, err)
}

// requesterID reads the token subject. RequireAuth guarantees it on these
// routes; the check covers a misrouted handler.
func requesterID(w http.ResponseWriter, r *http.Request) (model.ID, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Unauthorized"))
		return "", false
	}
	return id, true
}

func pathID(r *http.Request) model.ID {
	return model.ID(chi.URLParam(r, "id"))
}
