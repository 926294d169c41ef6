// Package handlers adapts HTTP requests to the item application services.
// Every route sits behind auth.RequireBearer, so handlers only run for an
// authenticated principal.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/itemlocations/pkg/errhttp"
	"github.com/ghuser/itemlocations/pkg/httpx"
	"github.com/ghuser/itemlocations/pkg/logger"
	itemdomain "github.com/ghuser/itemlocations/services/item/domain"
)

// decodeDocument reads the body as an untyped JSON document. Numbers stay
// json.Number so the schema validator sees exactly what the client sent.
func decodeDocument(r *http.Request) (any, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", itemdomain.ErrMalformedBody, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after document", itemdomain.ErrMalformedBody)
	}
	return doc, nil
}

// itemID parses the {id} path segment. An id that is not a UUID cannot name
// an item, so it is reported as not found.
func itemID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, itemdomain.ErrItemNotFound
	}
	return id, nil
}

// writeError logs err at a level matching its status and writes the response.
func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, op string, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		log.WarnContext(r.Context(), op+": request body too large", "limit", tooLarge.Limit)
		httpx.JSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	status := errhttp.Status(err)
	switch {
	case status >= http.StatusInternalServerError:
		log.ErrorContext(r.Context(), op+" failed", "status", status, "error", err)
	case status != http.StatusNotFound:
		log.WarnContext(r.Context(), op+" rejected", "status", status, "error", err)
	}
	errhttp.WriteError(w, err)
}
