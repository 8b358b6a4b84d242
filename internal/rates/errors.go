package rates

import "errors"

// ErrConfiguration is returned before any resolution work when the source
// chain is missing, empty or made only of cache-backed sources.
var ErrConfiguration = errors.New("rate source chain misconfigured")
