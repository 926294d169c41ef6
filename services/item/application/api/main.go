package api

import (
	"fmt"

	"github.com/go-chi/chi/v5"

	"github.com/ghuser/itemlocations/pkg/app"
	"github.com/ghuser/itemlocations/pkg/auth"
	"github.com/ghuser/itemlocations/services/item/application/handlers"
	appsvcs "github.com/ghuser/itemlocations/services/item/application/services"
)

// ItemRoutes registers item endpoints on the provided chi router. Every route
// requires a bearer token; authentication runs before any body is read and
// rejected requests are still counted under their operation.
func ItemRoutes(r chi.Router, a *app.Application) error {
	svcs, err := appsvcs.New(a)
	if err != nil {
		return fmt.Errorf("item services: %w", err)
	}
	Mount(r, a, svcs)
	return nil
}

// Mount registers the item routes backed by svcs.
func Mount(r chi.Router, a *app.Application, svcs *appsvcs.Services) {
	op := a.Metrics.Operation
	authn := auth.RequireBearer(a.Authorizer, a.Logger)
	r.Route("/items", func(r chi.Router) {
		r.With(op("CreateItem"), authn).Post("/", handlers.NewPostItemHandler(svcs, a.Logger).Execute)
		r.With(op("ListItems"), authn).Get("/", handlers.NewListItemsHandler(svcs, a.Logger).Execute)
		r.With(op("GetItem"), authn).Get("/{id}", handlers.NewGetItemHandler(svcs, a.Logger).Execute)
		r.With(op("UpdateItem"), authn).Patch("/{id}", handlers.NewPatchItemHandler(svcs, a.Logger).Execute)
		r.With(op("DeleteItem"), authn).Delete("/{id}", handlers.NewDeleteItemHandler(svcs, a.Logger).Execute)
	})
}
