package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"connectrpc.com/connect"
)

var (
	errInvalidID  = errors.New("id must be an integer")
	errIDMismatch = errors.New("body id does not match path id")
)

func pathID(r *http.Request) (int, error) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: %q", errInvalidID, raw))
	}
	return id, nil
}
