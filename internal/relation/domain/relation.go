package domain

// Relation is the net amount between two users from the viewpoint of Self.
// Positive means Self lent to Other on balance.
type Relation struct {
	Self   string
	Other  string
	Amount int64
}
