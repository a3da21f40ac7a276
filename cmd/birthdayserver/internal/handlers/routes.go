package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nightmarlin/birthdays/cmd/birthdayserver/internal"
)

var (
	errRouteNotFound    = errors.New("Not found")
	errMethodNotAllowed = errors.New("Method not allowed")
)

// NewMux routes the greeting endpoints. Requests no endpoint accepts still get
// a JSON error body.
func NewMux(getBirthday BirthdayGetter, setBirthday BirthdaySetter, now func() time.Time) *http.ServeMux {
	mux := &http.ServeMux{}
	mux.Handle(GetBirthdayHandler(getBirthday, now))
	mux.Handle(PutBirthdayHandler(setBirthday, now))
	mux.Handle(EmptyUsernameHandler())
	mux.Handle(MethodNotAllowedHandler(http.MethodGet, http.MethodPut))
	mux.Handle(NotFoundHandler())
	return mux
}

// EmptyUsernameHandler answers /hello/ with no username at all.
func EmptyUsernameHandler() (string, http.Handler) {
	return "/hello/{$}",
		http.HandlerFunc(
			func(w http.ResponseWriter, _ *http.Request) {
				writeError(w, http.StatusBadRequest, internal.ErrInvalidUsername)
			},
		)
}

func MethodNotAllowedHandler(allowed ...string) (string, http.Handler) {
	return fmt.Sprintf("/hello/{%s}", usernamePathValue),
		http.HandlerFunc(
			func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Allow", strings.Join(allowed, ", "))
				writeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
			},
		)
}

func NotFoundHandler() (string, http.Handler) {
	return "/",
		http.HandlerFunc(
			func(w http.ResponseWriter, _ *http.Request) {
				writeError(w, http.StatusNotFound, errRouteNotFound)
			},
		)
}
