package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nightmarlin/birthdays/cmd/birthdayserver/internal"
)

// maxBodyBytes bounds the PUT body; a date of birth needs a few dozen bytes.
const maxBodyBytes = 1 << 12

var errInvalidBody = errors.New("Invalid request body")

type BirthdaySetter func(context.Context, internal.Name, internal.Birthday) error

type putBirthdayRequest struct {
	DateOfBirth string `json:"dateOfBirth"`
}

func PutBirthdayHandler(setBirthday BirthdaySetter, now func() time.Time) (string, http.Handler) {
	return fmt.Sprintf("PUT /hello/{%s}", usernamePathValue),
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				ctx := r.Context()

				name, err := internal.ParseName(r.PathValue(usernamePathValue))
				if err != nil {
					writeError(w, http.StatusBadRequest, err)
					return
				}

				req, err := decodePutBirthday(http.MaxBytesReader(w, r.Body, maxBodyBytes))
				if err != nil {
					writeError(w, http.StatusBadRequest, errInvalidBody)
					return
				}

				birthday, err := internal.ParseBirthday(req.DateOfBirth, now())
				if err != nil {
					writeError(w, http.StatusBadRequest, err)
					return
				}

				if err := setBirthday(ctx, name, birthday); err != nil {
					writeStorageError(ctx, w, "failed to store birthday", name, err)
					return
				}

				w.WriteHeader(http.StatusNoContent)
			},
		)
}

// decodePutBirthday reads exactly one JSON object from body.
func decodePutBirthday(body io.Reader) (putBirthdayRequest, error) {
	var req putBirthdayRequest
	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		return putBirthdayRequest{}, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return putBirthdayRequest{}, errors.New("unexpected data after request body")
	}
	return req, nil
}
