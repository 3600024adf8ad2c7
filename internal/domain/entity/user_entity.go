package entity

import "strconv"

// User is the aggregate root for the user domain.
// Stored under users/{UserID}; the aggregate fields are only ever mutated
// through Rating updates, never by profile edits.
type User struct {
	UserID          int64   `json:"userId"`
	Email           string  `json:"email"`
	Name            string  `json:"name"`
	PhoneNumber     string  `json:"phoneNumber"`
	Role            Role    `json:"role"`
	HashedPassword  string  `json:"hashedPassword"`
	AverageRating   float64 `json:"averageRating"`
	NumberReviewers int     `json:"numberReviewers"`
}

// Key returns the store key of the user (decimal id)
func (u *User) Key() string { return strconv.FormatInt(u.UserID, 10) }

// Rating returns the aggregate pair of the user
func (u *User) Rating() Rating {
	return Rating{AverageRating: u.AverageRating, NumberReviewers: u.NumberReviewers}
}

// ProfilePatch carries the non-aggregate fields a profile update may overwrite
type ProfilePatch struct {
	Email          string
	Name           string
	PhoneNumber    string
	HashedPassword string
}

// Fields returns the non-empty patch values as a store field map keyed by the
// record's JSON names. Empty values leave the stored field as it is.
func (p ProfilePatch) Fields() map[string]any {
	out := make(map[string]any, 4)
	for k, v := range map[string]string{
		"email":          p.Email,
		"name":           p.Name,
		"phoneNumber":    p.PhoneNumber,
		"hashedPassword": p.HashedPassword,
	} {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
