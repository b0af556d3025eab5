package handlers

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/edconsult/commitdb/pkg/middleware"
	"github.com/edconsult/commitdb/pkg/models"
	"github.com/edconsult/commitdb/pkg/week"
)

func actorOf(c echo.Context) (models.Actor, bool) {
	return middleware.ActorFromContext(c)
}

// rangeOf resolves the view/start/end query parameters to a date range.
// Custom start+end win over the named view; the default is the current week.
func rangeOf(c echo.Context) (week.DateRange, error) {
	startParam := c.QueryParam("start")
	endParam := c.QueryParam("end")

	if startParam != "" && endParam != "" {
		start, err := time.Parse("2006-01-02", startParam)
		if err != nil {
			return week.DateRange{}, err
		}
		end, err := time.Parse("2006-01-02", endParam)
		if err != nil {
			return week.DateRange{}, err
		}
		return week.CustomRange(start, end), nil
	}

	view := c.QueryParam("view")
	if view == "" {
		view = week.ViewCurrentWeek
	}
	return week.DateRangeOf(view, time.Now())
}
