package models

import (
	"time"

	"github.com/google/uuid"
)

// Direction is a compass quadrant relative to the reference point.
type Direction string

const (
	DirectionNE Direction = "NE"
	DirectionNW Direction = "NW"
	DirectionSE Direction = "SE"
	DirectionSW Direction = "SW"
)

// Directions lists the accepted quadrants in declaration order.
var Directions = []Direction{DirectionNE, DirectionNW, DirectionSE, DirectionSW}

// Valid reports whether d is one of the four quadrants.
func (d Direction) Valid() bool {
	for _, v := range Directions {
		if d == v {
			return true
		}
	}
	return false
}

// Item is the core aggregate for this bounded context. Optional fields are
// pointers so an absent value stays distinguishable from a zero value. Users
// is always encoded: null when absent, [] when the client sent an empty list.
type Item struct {
	ID                     uuid.UUID  `json:"id"`
	Name                   ItemName   `json:"name"`
	Postcode               string     `json:"postcode"`
	Latitude               *float64   `json:"latitude,omitempty"`
	Longitude              *float64   `json:"longitude,omitempty"`
	DirectionFromReference *Direction `json:"directionFromReference,omitempty"`
	DistanceFromReference  *float64   `json:"distanceFromReference,omitempty"`
	Title                  *string    `json:"title,omitempty"`
	Users                  []string   `json:"users"`
	StartDate              time.Time  `json:"startDate"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
}

// AssignIdentity gives a freshly validated item its id and timestamps.
func (i *Item) AssignIdentity(id uuid.UUID, now time.Time) {
	i.ID = id
	i.CreatedAt = now.UTC()
	i.UpdatedAt = i.CreatedAt
}

// HasCoordinates reports whether both latitude and longitude are set.
func (i *Item) HasCoordinates() bool {
	return i.Latitude != nil && i.Longitude != nil
}

// ItemPatch is a partial update. Nil fields are left untouched.
type ItemPatch struct {
	Name                   *ItemName
	Postcode               *string
	Latitude               *float64
	Longitude              *float64
	DirectionFromReference *Direction
	Title                  *string
	Users                  *[]string
	StartDate              *time.Time
}

// Empty reports whether the patch changes nothing.
func (p *ItemPatch) Empty() bool {
	return p.Name == nil && p.Postcode == nil && p.Latitude == nil && p.Longitude == nil &&
		p.DirectionFromReference == nil && p.Title == nil && p.Users == nil && p.StartDate == nil
}

// Apply merges p into i. Users is replaced as a whole, never merged.
// Changing the postcode without new coordinates clears the derived location
// so it can be recomputed.
func (i *Item) Apply(p *ItemPatch, now time.Time) {
	if p.Name != nil {
		i.Name = *p.Name
	}
	if p.Postcode != nil && *p.Postcode != i.Postcode {
		i.Postcode = *p.Postcode
		if p.Latitude == nil && p.Longitude == nil {
			i.Latitude, i.Longitude = nil, nil
			i.DirectionFromReference, i.DistanceFromReference = nil, nil
		}
	}
	if p.Latitude != nil {
		i.Latitude = p.Latitude
		i.DistanceFromReference = nil
	}
	if p.Longitude != nil {
		i.Longitude = p.Longitude
		i.DistanceFromReference = nil
	}
	if p.DirectionFromReference != nil {
		i.DirectionFromReference = p.DirectionFromReference
	}
	if p.Title != nil {
		i.Title = p.Title
	}
	if p.Users != nil {
		i.Users = append([]string(nil), (*p.Users)...)
	}
	if p.StartDate != nil {
		i.StartDate = *p.StartDate
	}
	i.UpdatedAt = now.UTC()
}
