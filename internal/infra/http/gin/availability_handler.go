package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	availabilityapp "staycal/internal/app/handlers/availability"
	"staycal/internal/app/queries"
	"staycal/internal/domain/calendar"
)

// AvailabilityHandler serves the widget fetch endpoint and the property
// calendar API.
type AvailabilityHandler struct {
	Queries  queries.Bus
	Commands commands.Bus
}

// Payload answers GET {endpoint}:propertyID?startDate=&endDate=, the request
// the picker widget issues for its fetched window.
func (h AvailabilityHandler) Payload(c *gin.Context) {
	query := availabilityapp.GetPayloadQuery{
		PropertyID: c.Param("propertyID"),
		StartDate:  c.Query("startDate"),
		EndDate:    c.Query("endDate"),
	}
	result, err := queries.Ask[availabilityapp.GetPayloadQuery, calendar.Payload](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Days(c *gin.Context) {
	query := availabilityapp.GetResolvedDaysQuery{
		PropertyID: c.Param("id"),
		StartDate:  c.Query("startDate"),
		EndDate:    c.Query("endDate"),
	}
	result, err := queries.Ask[availabilityapp.GetResolvedDaysQuery, dto.ResolvedDays](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) ExportICS(c *gin.Context) {
	query := availabilityapp.ExportICSQuery{
		PropertyID: c.Param("id"),
		StartDate:  c.Query("startDate"),
		EndDate:    c.Query("endDate"),
	}
	doc, err := queries.Ask[availabilityapp.ExportICSQuery, dto.CalendarDocument](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+doc.PropertyID+`.ics"`)
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}

// ImportJSON stores a payload body; ?mode=replace drops the previous table.
func (h AvailabilityHandler) ImportJSON(c *gin.Context) {
	h.importBody(c, availabilityapp.FormatJSON)
}

func (h AvailabilityHandler) ImportICS(c *gin.Context) {
	h.importBody(c, availabilityapp.FormatICS)
}

func (h AvailabilityHandler) importBody(c *gin.Context, format string) {
	body, err := c.GetRawData()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := availabilityapp.ImportCalendarCommand{
		PropertyID: c.Param("id"),
		Format:     format,
		Mode:       strings.ToLower(c.DefaultQuery("mode", string(calendar.ImportMerge))),
		Source:     c.DefaultQuery("source", "http:"+format),
		Body:       body,
		RequestKey: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[availabilityapp.ImportCalendarCommand, *dto.ImportResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Publish(c *gin.Context) {
	cmd := availabilityapp.PublishICSCommand{
		PropertyID: c.Param("id"),
		RequestKey: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[availabilityapp.PublishICSCommand, *dto.PublishResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
