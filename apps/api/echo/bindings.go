package echoapi

import (
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/igreja/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// intQuery reads an integer query parameter, falling back to def when absent or malformed.
func intQuery(ctx echo.Context, name string, def int) int {
	if v, err := strconv.Atoi(ctx.QueryParam(name)); err == nil {
		return v
	}
	return def
}

func boolQuery(ctx echo.Context, name string) bool {
	v, _ := strconv.ParseBool(ctx.QueryParam(name))
	return v
}

// sendList writes list as a JSON array, never null.
func sendList(ctx echo.Context, list interface{}) error {
	if v := reflect.ValueOf(list); v.Kind() == reflect.Slice && v.IsNil() {
		list = []struct{}{}
	}
	return ctx.JSON(http.StatusOK, list)
}

type (
	SuccessResponse struct {
		Success string `json:"success"`
	}

	CountResponse struct {
		Count int `json:"count"`
	}

	PersonRequest struct {
		PersonID string `json:"person_id"`
	}
)
