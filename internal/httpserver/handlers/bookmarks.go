package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/smartmark/internal/api"
	"github.com/MrSnakeDoc/smartmark/internal/auth"
	"github.com/MrSnakeDoc/smartmark/internal/domain"
	"github.com/MrSnakeDoc/smartmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/smartmark/internal/ingest"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
	"github.com/MrSnakeDoc/smartmark/internal/store"
)

const maxBodyBytes = 16 << 10

// CreateBookmark runs the ingestion pipeline for the caller.
//
//	201 {bookmark, warning}   saved, warning null unless fallback metadata was used
//	400 {error}               URL missing or invalid, title too long
//	409 {error, duplicate...} an existing bookmark matches
//	500 {error}               write failed
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var body api.CreateBookmarkRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		ctx := r.Context()
		if d.IngestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.IngestTimeout)
			defer cancel()
		}

		res, err := d.Ingester.Ingest(ctx, ingest.Request{OwnerID: userID, URL: body.URL, Title: body.Title})

		var (
			inputErr *ingest.InputError
			dupErr   *ingest.DuplicateError
		)
		switch {
		case errors.As(err, &inputErr):
			writeError(w, http.StatusBadRequest, inputErr.Error())
			return
		case errors.As(err, &dupErr):
			writeJSON(w, http.StatusConflict, api.ErrorResponse{
				Error:              "Duplicate bookmark detected",
				Duplicate:          true,
				Confidence:         dupErr.Confidence,
				ExistingBookmarkID: dupErr.MatchID,
			})
			return
		case err != nil:
			d.Logger.Error("create bookmark failed", logger.String("user_id", userID), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to save bookmark")
			return
		}

		resp := api.CreateBookmarkResponse{Bookmark: res.Bookmark}
		if res.Warning != "" {
			warning := res.Warning
			resp.Warning = &warning
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

// ListBookmarks returns the caller's bookmarks filtered by q, category and
// tag, ordered by sort, with stats over the whole collection.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		all, err := d.Gateway.List(r.Context(), userID)
		if err != nil {
			d.Logger.Error("list bookmarks failed", logger.String("user_id", userID), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to load bookmarks")
			return
		}

		q := r.URL.Query()
		query := domain.ListQuery{
			Search: q.Get("q"),
			Tag:    q.Get("tag"),
			Sort:   domain.ParseSortOrder(q.Get("sort")),
		}
		if c := q.Get("category"); c != "" {
			query.Category = domain.Category(c)
		}

		writeJSON(w, http.StatusOK, api.ListBookmarksResponse{
			Bookmarks: query.Apply(all),
			Stats:     domain.ComputeStats(all, d.Now()),
		})
	}
}

// DeleteBookmark removes one of the caller's bookmarks. Someone else's
// bookmark answers 404, like a missing one.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		id := chi.URLParam(r, "id")
		err := d.Gateway.Delete(r.Context(), userID, id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Bookmark not found")
		case err != nil:
			d.Logger.Error("delete bookmark failed",
				logger.String("user_id", userID),
				logger.String("bookmark_id", id),
				logger.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to delete bookmark")
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}
}
