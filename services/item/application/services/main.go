package services

import (
	"fmt"

	"github.com/ghuser/itemlocations/pkg/app"
	"github.com/ghuser/itemlocations/pkg/cache"
	domainsvcs "github.com/ghuser/itemlocations/services/item/domain/services"
	"github.com/ghuser/itemlocations/services/item/infrastructure/auditstream"
	"github.com/ghuser/itemlocations/services/item/infrastructure/geocode"
	"github.com/ghuser/itemlocations/services/item/infrastructure/notify"
	"github.com/ghuser/itemlocations/services/item/infrastructure/persistence/postgres"
)

// Services is the application-layer service container for this bounded context.
// It wires domain services with their infrastructure implementations.
type Services struct {
	Item *ItemService
}

// New wires all item application services with infrastructure from the Application container.
func New(a *app.Application) (*Services, error) {
	validator, err := domainsvcs.NewValidator(domainsvcs.NewItemSchema())
	if err != nil {
		return nil, fmt.Errorf("compile item schema: %w", err)
	}

	var observer Observer
	if a.DispatchObserver != nil {
		observer = a.DispatchObserver
	}
	dispatcher := NewDispatcher(
		notify.NewSink(a.EventBus, a.Config.NotificationTopic),
		auditstream.NewSink(a.Stream),
		observer,
		a.Config.DispatchTimeout,
		a.Logger,
	)

	var opts []ItemServiceOption
	if a.Redis != nil {
		opts = append(opts, WithCache(cache.NewItemCache(a.Redis)))
	}
	if a.Config.GeocoderEnabled {
		opts = append(opts, WithGeocoder(geocode.NewZippopotamClient(a.Config.GeocoderBaseURL, a.Config.GeocoderTimeout)))
	}

	return &Services{
		Item: NewItemService(postgres.NewItemRepository(a.Db), validator, dispatcher, a.Logger, opts...),
	}, nil
}
