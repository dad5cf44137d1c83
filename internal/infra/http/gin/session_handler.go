package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	sessionapp "staycal/internal/app/handlers/sessions"
	"staycal/internal/app/queries"
)

// SessionHandler hosts picker widgets for clients that cannot run one.
type SessionHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type openSessionRequest struct {
	PropertyID      string `json:"property_id"`
	TwoCalendars    bool   `json:"two_calendars"`
	Months          []int  `json:"months"`
	DefaultDate     string `json:"default_date"`
	Locale          string `json:"locale"`
	HoverClass      string `json:"hover_class"`
	HoverClassStart string `json:"hover_class_start"`
	HoverClassEnd   string `json:"hover_class_end"`
	Wait            bool   `json:"wait"`
}

type pointerRequest struct {
	Role  string  `json:"role"`
	Date  string  `json:"date"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Width float64 `json:"width"`
}

type navigateRequest struct {
	Year  int  `json:"year"`
	Month int  `json:"month"`
	Wait  bool `json:"wait"`
}

func (h SessionHandler) Open(c *gin.Context) {
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.dispatch(c, http.StatusCreated, sessionapp.OpenSessionCommand{
		PropertyID:      req.PropertyID,
		TwoCalendars:    req.TwoCalendars,
		Months:          req.Months,
		DefaultDate:     req.DefaultDate,
		Locale:          req.Locale,
		HoverClass:      req.HoverClass,
		HoverClassStart: req.HoverClassStart,
		HoverClassEnd:   req.HoverClassEnd,
		Wait:            req.Wait,
	})
}

func (h SessionHandler) Hover(c *gin.Context) {
	var req pointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.dispatch(c, http.StatusOK, sessionapp.HoverCommand{
		SessionID: c.Param("id"),
		Role:      req.Role,
		Date:      req.Date,
		X:         req.X,
		Y:         req.Y,
		Width:     req.Width,
	})
}

func (h SessionHandler) Leave(c *gin.Context) {
	h.dispatch(c, http.StatusOK, sessionapp.LeaveCommand{SessionID: c.Param("id")})
}

func (h SessionHandler) Click(c *gin.Context) {
	var req pointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.dispatch(c, http.StatusOK, sessionapp.ClickCommand{SessionID: c.Param("id"), Role: req.Role, Date: req.Date})
}

func (h SessionHandler) Close(c *gin.Context) {
	var req pointerRequest
	// An empty body closes the start calendar.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	h.dispatch(c, http.StatusOK, sessionapp.CloseCalendarCommand{SessionID: c.Param("id"), Role: req.Role})
}

func (h SessionHandler) Navigate(c *gin.Context) {
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.dispatch(c, http.StatusOK, sessionapp.NavigateCommand{
		SessionID: c.Param("id"),
		Year:      req.Year,
		Month:     req.Month,
		Wait:      req.Wait,
	})
}

func (h SessionHandler) View(c *gin.Context) {
	query := sessionapp.GetViewQuery{
		SessionID: c.Param("id"),
		Role:      c.Query("role"),
		From:      c.Query("from"),
		To:        c.Query("to"),
	}
	result, err := queries.Ask[sessionapp.GetViewQuery, dto.SessionView](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SessionHandler) dispatch(c *gin.Context, status int, cmd commands.Command) {
	res, err := h.Commands.Dispatch(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	session, ok := res.(dto.Session)
	if !ok {
		respondError(c, commands.ErrResultType)
		return
	}
	c.JSON(status, session)
}

var _ SessionHTTP = SessionHandler{}
