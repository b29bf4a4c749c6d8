package types

// User is an account known to the service, identified by email.
type User struct {
	Email string `json:"email"`
}
