package handler // handler defines http handlers

import (
	"errors"  // errors provides sentinel values used by the claim helpers
	"strconv" // strconv converts strings to numeric types

	"github.com/labstack/echo/v4" // echo defines request context types
)

// claimUint64 extracts a numeric JWT claim stored in the echo context and
// converts it to uint64.  Claims decoded from JSON arrive as float64, but
// values set directly in tests may be other numeric types.
func claimUint64(c echo.Context, key string) (uint64, error) {
	v := c.Get(key)
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid " + key + " in context")
}

// getEstablishmentID resolves the acting establishment from the
// authenticated admin token.  Every tenant-scoped operation starts here.
func getEstablishmentID(c echo.Context) (uint64, error) {
	return claimUint64(c, "establishment_id")
}
