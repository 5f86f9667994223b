package models

// Group represents a set of people sharing expenses.
// A group is soft-deactivated rather than deleted so that its transaction
// history survives.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "Roommates", "Goa Trip").
	Name string `json:"name"`

	// Currency is the ISO code all amounts in this group are denominated in.
	// No conversion happens anywhere in the engine.
	Currency string `json:"currency"`

	// Active is false once the group has been deactivated.
	Active bool `json:"active"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `json:"created_at"`
}
