package middleware

// identity.go defines helpers shared across middleware files.  userID turns
// the caller resolved by the Session middleware into the user field of the
// request log.  Anonymous callers are "guest".

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

func userID(c echo.Context) string {
    caller := CallerFrom(c)
    if !caller.Authenticated() {
        return "guest"
    }
    return strconv.FormatInt(caller.ID, 10)
}
