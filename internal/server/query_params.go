package server

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/milkroute/milkroute/internal/clock"
)

const dateLayout = "2006-01-02"

func parseIDParam(c *gin.Context, name string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param(name)))
	if err != nil || id == 0 {
		return 0, newValidationError(name, "invalid_"+name, "invalid "+name)
	}
	return id, nil
}

func parseIDField(value, field string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, newValidationError(field, "invalid_"+field, "invalid "+field)
	}
	return id, nil
}

func parseDate(value, field string) (time.Time, error) {
	parsed, err := time.ParseInLocation(dateLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return time.Time{}, newValidationError(field, "invalid_"+field, "expected YYYY-MM-DD")
	}
	return parsed, nil
}

// parseDateOrNow treats an omitted value as "today" per the request clock.
func parseDateOrNow(value, field string, clk clock.Clock) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return clk.Now(), nil
	}
	return parseDate(value, field)
}
