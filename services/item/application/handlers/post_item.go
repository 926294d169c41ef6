package handlers

import (
	"net/http"

	"github.com/ghuser/itemlocations/pkg/auth"
	"github.com/ghuser/itemlocations/pkg/httpx"
	"github.com/ghuser/itemlocations/pkg/logger"
	appsvcs "github.com/ghuser/itemlocations/services/item/application/services"
)

// PostItemHandler handles POST /items requests.
type PostItemHandler struct {
	svc *appsvcs.Services
	log logger.Logger
}

// NewPostItemHandler returns a PostItemHandler backed by the given services.
func NewPostItemHandler(svc *appsvcs.Services, log logger.Logger) *PostItemHandler {
	return &PostItemHandler{svc: svc, log: log}
}

// Execute validates and ingests a new item, then fans it out to the
// notification topic and the audit stream.
//
//	@Summary		Create item
//	@Description	Validates an item document, stores it and publishes it. A failed notification does not fail the request; a failed audit stream write does.
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		models.Item	true	"Item document"
//	@Success		201		{object}	models.Item
//	@Failure		400		{object}	errhttp.ErrorResponse
//	@Failure		401		{object}	errhttp.ErrorResponse
//	@Failure		502		{object}	errhttp.ErrorResponse
//	@Failure		503		{object}	errhttp.ErrorResponse
//	@Router			/items [post]
func (h *PostItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.PrincipalFromCtx(r.Context())
	if err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "Authentication failed: "+err.Error())
		return
	}

	doc, err := decodeDocument(r)
	if err != nil {
		writeError(w, r, h.log, "create item", err)
		return
	}

	item, err := h.svc.Item.Create(r.Context(), principal, doc)
	if err != nil {
		writeError(w, r, h.log, "create item", err)
		return
	}

	h.log.InfoContext(r.Context(), "item created", "item_id", item.ID, "subject", principal.Subject)
	httpx.JSON(w, http.StatusCreated, item)
}
