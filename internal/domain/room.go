package domain

// ReviewID names a review session. It is opaque and caller supplied;
// nothing here checks it against stored reviews.
type ReviewID string

type Room struct {
	ID ReviewID
}
