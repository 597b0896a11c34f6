package core

// User is the identity record of the logged-in account as issued by the
// backend after the provider round-trip.
type User struct {
	ID          string `json:"id" validate:"required"`
	DisplayName string `json:"displayName"`
	PictureURL  string `json:"pictureUrl,omitempty" validate:"omitempty,url"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
}

// Durable storage keys owned by the session manager.
const (
	// KeyUser holds the JSON-serialized User record
	KeyUser = "user"
	// KeyToken holds the raw bearer token
	KeyToken = "token"
	// KeyOAuthState holds the anti-forgery state of an in-flight login
	KeyOAuthState = "oauth_state"
	// KeyLoginRedirect holds the path to return to after login
	KeyLoginRedirect = "login_redirect"
)

// Storage defines the contract for durable key/value persistence used by the
// session manager. It mirrors browser local storage: string keys, string
// values, synchronous calls.
//
// Implementations must be safe for concurrent use. Remove must not fail when
// the key is absent.
type Storage interface {
	// Get returns the stored value and whether the key was present
	Get(key string) (value string, found bool, err error)
	// Set stores value under key, replacing any previous value
	Set(key, value string) error
	// Remove deletes key
	Remove(key string) error

	// Close releases the underlying resources
	Close() error
}
