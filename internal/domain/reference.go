package domain

import "time"

type ReferenceStatus string

const (
	StatusPending  ReferenceStatus = "pendiente"
	StatusApproved ReferenceStatus = "aprobado"
	StatusRejected ReferenceStatus = "rechazado"
	StatusMixed    ReferenceStatus = "mixto"
)

// Reference is one submission of user photos, created by replying /winter to
// the message (or album) that carries them. Submitter fields are a snapshot
// taken at submission time, not a live lookup.
type Reference struct {
	ID           int64           `json:"id" db:"id"`
	MediaGroupID string          `json:"media_group_id" db:"media_group_id"`
	Caption      string          `json:"caption" db:"caption"`
	UserID       int64           `json:"user_id" db:"user_id"`
	Username     string          `json:"username" db:"username"`
	Name         string          `json:"name" db:"name"`
	Status       ReferenceStatus `json:"status" db:"status"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// ReferencePhoto is one photo belonging to a reference. Photos are reviewed
// independently; insertion order (ascending id) is the presentation order.
type ReferencePhoto struct {
	ID          int64           `json:"id" db:"id"`
	ReferenceID int64           `json:"referencia_id" db:"referencia_id"`
	FileID      string          `json:"file_id" db:"file_id"`
	Caption     string          `json:"caption" db:"caption"`
	Status      ReferenceStatus `json:"status" db:"status"`
}

// Submitter is the identity snapshot recorded on a new reference.
type Submitter struct {
	ID       int64
	Username string
	FullName string
}

type RankingEntry struct {
	Username string `json:"username" db:"username"`
	Total    int64  `json:"total" db:"total"`
}

// DeriveStatus rolls the per-photo counts of a reference up into its
// aggregate status. Any pending photo keeps the reference pending; once all
// photos are decided the reference is approved, rejected, or mixed.
func DeriveStatus(pending, approved, rejected int64) ReferenceStatus {
	if pending > 0 {
		return StatusPending
	}
	switch {
	case approved > 0 && rejected == 0:
		return StatusApproved
	case approved == 0 && rejected > 0:
		return StatusRejected
	default:
		return StatusMixed
	}
}
