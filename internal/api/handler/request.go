package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/taaha-0548/Coders-Cup-Problems/internal/common"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON value from the request body into dst. An empty body
// leaves dst untouched so callers can rely on their defaults.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: invalid request: %v", common.ErrBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid request: unexpected data after JSON body", common.ErrBadRequest)
	}
	return nil
}

func respondError(w http.ResponseWriter, err error) {
	common.RespondWithDomainError(w, err)
}
