package handlers

import (
	"net/http"

	"github.com/ghuser/itemlocations/pkg/httpx"
	"github.com/ghuser/itemlocations/pkg/logger"
	appsvcs "github.com/ghuser/itemlocations/services/item/application/services"
)

// PatchItemHandler handles PATCH /items/{id} requests.
type PatchItemHandler struct {
	svc *appsvcs.Services
	log logger.Logger
}

// NewPatchItemHandler returns a PatchItemHandler backed by the given services.
func NewPatchItemHandler(svc *appsvcs.Services, log logger.Logger) *PatchItemHandler {
	return &PatchItemHandler{svc: svc, log: log}
}

// Execute applies a partial document. Supplied fields are validated against
// the item schema; absent fields keep their stored values.
//
//	@Summary	Update item
//	@Tags		items
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string		true	"Item ID"	format(uuid)
//	@Param		request	body		models.Item	true	"Fields to change"
//	@Success	200		{object}	models.Item
//	@Failure	400		{object}	errhttp.ErrorResponse
//	@Failure	401		{object}	errhttp.ErrorResponse
//	@Failure	404		{object}	errhttp.ErrorResponse
//	@Router		/items/{id} [patch]
func (h *PatchItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		writeError(w, r, h.log, "update item", err)
		return
	}

	doc, err := decodeDocument(r)
	if err != nil {
		writeError(w, r, h.log, "update item", err)
		return
	}

	item, err := h.svc.Item.Update(r.Context(), id, doc)
	if err != nil {
		writeError(w, r, h.log, "update item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}
