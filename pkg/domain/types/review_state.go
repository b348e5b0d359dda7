package types

// ReviewState represents the disposition state of an incidence.
// It is derived from the status/valid pair carried on the wire:
// status=true means the incidence is still awaiting admin review,
// status=false with valid=true means it was confirmed and counts
// toward the period score, status=false with valid=false means it
// was annulled and is excluded from scoring.
type ReviewState string

const (
	ReviewStatePending   ReviewState = "pending_review"
	ReviewStateConfirmed ReviewState = "confirmed"
	ReviewStateAnnulled  ReviewState = "annulled"
)

// String returns the string representation of the state
func (s ReviewState) String() string {
	return string(s)
}

// IsTerminal returns true when the state admits no further admin disposition
func (s ReviewState) IsTerminal() bool {
	return s == ReviewStateConfirmed || s == ReviewStateAnnulled
}

// Disposition represents an admin resolve action
type Disposition string

const (
	DispositionConfirm Disposition = "confirm"
	DispositionAnnul   Disposition = "annul"
)

// String returns the string representation of the disposition
func (d Disposition) String() string {
	return string(d)
}

// IsValid checks if the disposition is valid
func (d Disposition) IsValid() bool {
	return d == DispositionConfirm || d == DispositionAnnul
}
