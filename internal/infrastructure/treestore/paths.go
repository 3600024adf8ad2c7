package treestore

import "strconv"

// Persisted layout
const (
	UsersPath     = "users"
	FeedbacksPath = "feedbacks"
	CounterPath   = "userIdCounter"
)

func userPath(id int64) string      { return Join(UsersPath, strconv.FormatInt(id, 10)) }
func feedbackPath(id string) string { return Join(FeedbacksPath, id) }
