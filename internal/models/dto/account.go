package dto

// CredentialsRequest is the body of /register and /login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest distinguishes an absent password (nil) from an empty one.
type UpdateProfileRequest struct {
	Password *string `json:"password"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

// ProfileResponse is the public view returned by GET /me.
type ProfileResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}
