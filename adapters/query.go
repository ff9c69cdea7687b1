package adapters

import "net/url"

// withQuery merges q into the query string of rawURL.
func withQuery(rawURL string, q url.Values) (string, error) {
	if len(q) == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	existing := u.Query()
	for k, vals := range q {
		for _, v := range vals {
			existing.Add(k, v)
		}
	}
	u.RawQuery = existing.Encode()
	return u.String(), nil
}
