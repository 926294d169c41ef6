package models

// ItemName is the display name of an item. Length is counted in characters,
// not bytes, and is enforced by the item schema.
type ItemName string

// MaxItemNameLength bounds names and user entries.
const MaxItemNameLength = 50

// String returns the underlying string value.
func (n ItemName) String() string {
	return string(n)
}
