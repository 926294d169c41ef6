package handlers

import (
	"net/http"

	"github.com/ghuser/itemlocations/pkg/httpx"
	"github.com/ghuser/itemlocations/pkg/logger"
	appsvcs "github.com/ghuser/itemlocations/services/item/application/services"
)

// GetItemHandler handles GET /items/{id} requests.
type GetItemHandler struct {
	svc *appsvcs.Services
	log logger.Logger
}

// NewGetItemHandler returns a GetItemHandler backed by the given services.
func NewGetItemHandler(svc *appsvcs.Services, log logger.Logger) *GetItemHandler {
	return &GetItemHandler{svc: svc, log: log}
}

// Execute returns one item.
//
//	@Summary	Get item
//	@Tags		items
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Item ID"	format(uuid)
//	@Success	200	{object}	models.Item
//	@Failure	401	{object}	errhttp.ErrorResponse
//	@Failure	404	{object}	errhttp.ErrorResponse
//	@Router		/items/{id} [get]
func (h *GetItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		writeError(w, r, h.log, "get item", err)
		return
	}

	item, err := h.svc.Item.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, "get item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}
