package apicommon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"go.vocdoni.io/dvote/log"
)

// HTTPWriteJSON helper function allows to write a JSON response.
func HTTPWriteJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warnw("failed to write on response", "error", err)
	}
}

// RedirectDetails collects the parameters the provider attached to the
// shopper redirect. GET redirects carry them in the query string and POST
// redirects in a form or JSON body. The parameter named exclude (the order
// reference) is skipped, as are parameters with several values.
func RedirectDetails(r *http.Request, exclude string) (map[string]string, error) {
	details := make(map[string]string)
	add := func(values url.Values) {
		for k, v := range values {
			if k == exclude || len(v) != 1 {
				continue
			}
			details[k] = v[0]
		}
	}
	add(r.URL.Query())
	if r.Method != http.MethodPost {
		return details, nil
	}
	switch mediaType(r.Header.Get("Content-Type")) {
	case "application/json":
		body := map[string]any{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("invalid redirect body: %w", err)
		}
		for k, v := range body {
			if k == exclude {
				continue
			}
			switch val := v.(type) {
			case string:
				details[k] = val
			case nil:
			default:
				raw, err := json.Marshal(val)
				if err != nil {
					return nil, err
				}
				details[k] = string(raw)
			}
		}
	default:
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("invalid redirect form: %w", err)
		}
		add(r.PostForm)
	}
	return details, nil
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return mt
}
