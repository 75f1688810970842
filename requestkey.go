package dashfetch

import "net/url"

// RequestKey canonizes a URL and its extra query parameters into a
// deterministic cache key. Two keys are equal iff the URL and the encoded
// parameter string are byte-identical; absent or empty params contribute
// nothing.
func RequestKey(rawURL string, params map[string]string) string {
	if len(params) == 0 {
		return rawURL
	}
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	// Values.Encode sorts by key, so equal maps always serialize
	// identically.
	return rawURL + "?" + values.Encode()
}
