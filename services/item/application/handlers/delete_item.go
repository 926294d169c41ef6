package handlers

import (
	"net/http"

	"github.com/ghuser/itemlocations/pkg/httpx"
	"github.com/ghuser/itemlocations/pkg/logger"
	appsvcs "github.com/ghuser/itemlocations/services/item/application/services"
)

// DeleteItemHandler handles DELETE /items/{id} requests.
type DeleteItemHandler struct {
	svc *appsvcs.Services
	log logger.Logger
}

// NewDeleteItemHandler returns a DeleteItemHandler backed by the given services.
func NewDeleteItemHandler(svc *appsvcs.Services, log logger.Logger) *DeleteItemHandler {
	return &DeleteItemHandler{svc: svc, log: log}
}

// Execute deletes one item.
//
//	@Summary	Delete item
//	@Tags		items
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Item ID"	format(uuid)
//	@Success	204
//	@Failure	401	{object}	errhttp.ErrorResponse
//	@Failure	404	{object}	errhttp.ErrorResponse
//	@Router		/items/{id} [delete]
func (h *DeleteItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		writeError(w, r, h.log, "delete item", err)
		return
	}

	if err := h.svc.Item.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.log, "delete item", err)
		return
	}
	h.log.InfoContext(r.Context(), "item deleted", "item_id", id)
	httpx.NoContent(w)
}
