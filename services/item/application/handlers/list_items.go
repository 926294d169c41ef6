package handlers

import (
	"net/http"
	"strconv"

	"github.com/ghuser/itemlocations/pkg/httpx"
	"github.com/ghuser/itemlocations/pkg/logger"
	pkgvalidator "github.com/ghuser/itemlocations/pkg/validator"
	appsvcs "github.com/ghuser/itemlocations/services/item/application/services"
	"github.com/ghuser/itemlocations/services/item/domain/models"
	"github.com/ghuser/itemlocations/services/item/domain/repositories"
)

const defaultPageSize = 50

// ListItemsQuery holds the pagination parameters of GET /items.
type ListItemsQuery struct {
	Limit  int `json:"limit"  validate:"gte=1,lte=100"`
	Offset int `json:"offset" validate:"gte=0"`
}

// ListItemsResponse is one page of items.
type ListItemsResponse struct {
	Items  []*models.Item `json:"items"`
	Total  int            `json:"total"  example:"120"`
	Limit  int            `json:"limit"  example:"50"`
	Offset int            `json:"offset" example:"0"`
} // @name ListItemsResponse

// ListItemsHandler handles GET /items requests.
type ListItemsHandler struct {
	svc *appsvcs.Services
	log logger.Logger
}

// NewListItemsHandler returns a ListItemsHandler backed by the given services.
func NewListItemsHandler(svc *appsvcs.Services, log logger.Logger) *ListItemsHandler {
	return &ListItemsHandler{svc: svc, log: log}
}

// Execute lists items, newest first.
//
//	@Summary	List items
//	@Tags		items
//	@Produce	json
//	@Security	BearerAuth
//	@Param		limit	query		int	false	"Page size (1-100)"	default(50)
//	@Param		offset	query		int	false	"Items to skip"		default(0)
//	@Success	200		{object}	ListItemsResponse
//	@Failure	400		{object}	errhttp.ErrorResponse
//	@Failure	401		{object}	errhttp.ErrorResponse
//	@Router		/items [get]
func (h *ListItemsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	q, ok := parseListQuery(w, r)
	if !ok {
		return
	}
	if !pkgvalidator.ValidateQuery(w, q) {
		return
	}

	items, total, err := h.svc.Item.List(r.Context(), repositories.QueryOpts{Limit: q.Limit, Offset: q.Offset})
	if err != nil {
		writeError(w, r, h.log, "list items", err)
		return
	}
	if items == nil {
		items = []*models.Item{}
	}

	httpx.JSON(w, http.StatusOK, ListItemsResponse{
		Items:  items,
		Total:  total,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
}

func parseListQuery(w http.ResponseWriter, r *http.Request) (*ListItemsQuery, bool) {
	q := &ListItemsQuery{Limit: defaultPageSize}
	for name, dst := range map[string]*int{"limit": &q.Limit, "offset": &q.Offset} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, name+" must be an integer")
			return nil, false
		}
		*dst = n
	}
	return q, true
}
