package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nightmarlin/birthdays/cmd/birthdayserver/internal"
)

const usernamePathValue = `username`

type BirthdayGetter func(context.Context, internal.Name) (internal.Birthday, error)

type greeting struct {
	Message string `json:"message"`
}

func GetBirthdayHandler(getBirthday BirthdayGetter, now func() time.Time) (string, http.Handler) {
	return fmt.Sprintf("GET /hello/{%s}", usernamePathValue),
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				ctx := r.Context()

				name, err := internal.ParseName(r.PathValue(usernamePathValue))
				if err != nil {
					writeError(w, http.StatusBadRequest, err)
					return
				}

				birthday, err := getBirthday(ctx, name)
				if err != nil {
					if errors.Is(err, internal.ErrNotFound) {
						writeError(w, http.StatusNotFound, err)
						return
					}
					writeStorageError(ctx, w, "failed to fetch birthday", name, err)
					return
				}

				_, days := internal.NextBirthday(birthday, now())
				writeJSON(w, http.StatusOK, greeting{Message: internal.Greeting(name, days)})
			},
		)
}
