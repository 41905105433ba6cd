package models

// Identity is the verified caller identity resolved by the upstream
// auth layer and forwarded on trusted headers.
type Identity struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
