package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"video-overlay/internal/log"
	"video-overlay/internal/player"
	"video-overlay/internal/registry"
)

// API handles HTTP control endpoints.
type API struct {
	ctl     Controller
	buffer  int
	timeout time.Duration
	log     *logrus.Entry
}

// NewAPI creates the HTTP handlers. buffer sizes event stream subscriptions and
// timeout bounds every control call.
func NewAPI(ctl Controller, buffer int, timeout time.Duration) *API {
	return &API{
		ctl:     ctl,
		buffer:  buffer,
		timeout: timeout,
		log:     log.WithComponent("api"),
	}
}

// OpenRequest is the request body for the open endpoint.
type OpenRequest struct {
	URL string `json:"url"`
}

// PlayerResponse is the response for player control endpoints.
type PlayerResponse struct {
	Status   string `json:"status"`
	PlayerID string `json:"player_id,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
	Message  string `json:"message,omitempty"`
}

// CloseAllResponse is the response for the close-all endpoint.
type CloseAllResponse struct {
	Status string `json:"status"`
	Closed int    `json:"closed"`
}

// ListResponse is the response for the player list endpoint.
type ListResponse struct {
	Count   int             `json:"count"`
	Players []player.Status `json:"players"`
}

func (a *API) context(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), a.timeout)
}

// Open creates a player for a media url.
func (a *API) Open(c *gin.Context) {
	var req OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, PlayerResponse{
			Status:  "error",
			Message: "invalid request: " + err.Error(),
		})
		return
	}

	a.log.Debugf("open request: url=%s", req.URL)

	ctx, cancel := a.context(c)
	defer cancel()
	id, err := a.ctl.Open(ctx, req.URL)
	switch {
	case errors.Is(err, registry.ErrDuplicateID):
		c.JSON(http.StatusConflict, PlayerResponse{Status: "error", PlayerID: id, Message: errorMessage(err)})
	case err != nil:
		c.JSON(http.StatusInternalServerError, PlayerResponse{Status: "error", PlayerID: id, Message: err.Error()})
	case id == "":
		c.JSON(http.StatusOK, PlayerResponse{Status: "ignored", Message: "empty url"})
	default:
		c.JSON(http.StatusCreated, PlayerResponse{Status: "opened", PlayerID: id})
	}
}

// Event dispatches a named event to a player. An optional JSON body is the payload.
func (a *API) Event(c *gin.Context) {
	id := c.Param("id")
	name := c.Param("event")

	var payload any
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, PlayerResponse{
				Status:   "error",
				PlayerID: id,
				Message:  "invalid payload: " + err.Error(),
			})
			return
		}
	}

	ctx, cancel := a.context(c)
	defer cancel()
	out, found := a.ctl.Dispatch(ctx, id, name, payload)
	if !found {
		c.JSON(http.StatusNotFound, PlayerResponse{Status: "not_found", PlayerID: id})
		return
	}
	if out.Kind == player.Failed {
		c.JSON(http.StatusInternalServerError, PlayerResponse{
			Status:   "error",
			PlayerID: id,
			Outcome:  out.Kind.String(),
			Message:  out.Err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, PlayerResponse{Status: "ok", PlayerID: id, Outcome: out.Kind.String()})
}

// CloseAll tears down every player.
func (a *API) CloseAll(c *gin.Context) {
	ctx, cancel := a.context(c)
	defer cancel()
	n := a.ctl.CloseAll(ctx)
	c.JSON(http.StatusOK, CloseAllResponse{Status: "closed", Closed: n})
}

// List returns every player's status.
func (a *API) List(c *gin.Context) {
	players := a.ctl.Statuses()
	c.JSON(http.StatusOK, ListResponse{Count: len(players), Players: players})
}

// Status returns one player's status.
func (a *API) Status(c *gin.Context) {
	id := c.Param("id")
	st, ok := a.ctl.Status(id)
	if !ok {
		c.JSON(http.StatusNotFound, PlayerResponse{Status: "not_found", PlayerID: id})
		return
	}
	c.JSON(http.StatusOK, st)
}

// Stream sends a player's outward events as server-sent events until the client
// goes away. A "subscribed" event is sent first so clients know nothing emitted
// from then on is missed.
func (a *API) Stream(c *gin.Context) {
	id := c.Param("id")
	sub := a.ctl.Subscribe(id, a.buffer)
	defer sub.Cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Render(-1, sse.Event{Event: "subscribed", Data: gin.H{"player_id": id}})
	c.Writer.Flush()

	done := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-sub.C:
			if !ok {
				return false
			}
			c.Render(-1, sse.Event{Event: msg.Event, Data: msg})
			return true
		case <-done:
			return false
		}
	})
}
