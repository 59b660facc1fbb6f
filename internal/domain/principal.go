package domain

// Principal is the verified caller of a request. Never persisted.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
