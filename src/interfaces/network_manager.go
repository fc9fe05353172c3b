package interfaces

import "context"

// -----------------------------------------------------------------------------
// INetworkManager abstracts the HTTP side of the venue (credential exchange
// and authenticated REST calls).
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// PostJSON sends a JSON body and returns status code plus raw response
	// body. Transport failures return a non-nil error; non-2xx statuses do
	// not (classification is the caller's job).
	PostJSON(ctx context.Context, url string, body interface{}, headers map[string]string) (int, []byte, error)

	// -----------------------------------------------------------------------------

	// Get performs a GET request with query parameters.
	Get(ctx context.Context, url string, params map[string]string, headers map[string]string) (int, []byte, error)
}
