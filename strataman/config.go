package strataman

import (
	"net/http"
	"time"
)

type Config struct {
	// APIURL is the base URL of the chain's REST API, e.g. https://api.strata.example
	APIURL string
	// TokenContract identifies the bridged fungible token; balance entries
	// are keyed by "<contract-id>::<token-name>" and matched by this prefix.
	TokenContract string
	// RequestTimeout bounds a single HTTP round trip. Zero uses the default.
	RequestTimeout time.Duration
	// HTTPClient overrides the default client; injected by tests.
	HTTPClient *http.Client
}
