package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/flathunt/platform/shared/cqrs"
	"github.com/flathunt/platform/shared/middleware"
	"github.com/flathunt/platform/shared/models"
	"github.com/flathunt/platform/shared/result"
	"github.com/gin-gonic/gin"
)

const (
	MsgApartmentAdded = "Appartment successfully added"
	MsgSearchResults  = "Apartments matching your search"
	MsgApartmentFound = "Apartment found"
)

// ApartmentCommander defines the write-side operations used by ApartmentHandler.
type ApartmentCommander interface {
	AddApartment(context.Context, cqrs.AddApartmentCommand) (*models.ApartmentView, error)
}

// ApartmentQuerier defines the read-side operations used by ApartmentHandler.
type ApartmentQuerier interface {
	Search(context.Context, cqrs.SearchApartmentsQuery) ([]models.ApartmentView, error)
	FindApartment(context.Context, cqrs.GetApartmentQuery) (*models.ApartmentView, error)
}

// ApartmentHandler handles listing HTTP requests.
type ApartmentHandler struct {
	commands ApartmentCommander
	queries  ApartmentQuerier
}

type AddApartmentRequest struct {
	Description string   `json:"description"`
	Rooms       *int     `json:"rooms"`
	Country     string   `json:"country"`
	City        string   `json:"city"`
	Lng         *float64 `json:"lng"`
	Lat         *float64 `json:"lat"`
}

func NewApartmentHandler(commands ApartmentCommander, queries ApartmentQuerier) *ApartmentHandler {
	return &ApartmentHandler{commands: commands, queries: queries}
}

func (h *ApartmentHandler) RegisterRoutes(v1 *gin.RouterGroup) {
	v1.POST("/apartments", h.AddApartment)
	v1.GET("/apartments", h.Search)
	v1.GET("/apartments/:apartmentId", h.FindApartment)
}

func (h *ApartmentHandler) AddApartment(c *gin.Context) {
	// Required fields are checked by the service after the token, so an
	// undecodable body is passed on empty.
	var req AddApartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = AddApartmentRequest{}
	}

	view, err := h.commands.AddApartment(c.Request.Context(), cqrs.AddApartmentCommand{
		Authorization: c.GetHeader(middleware.AuthorizationHeader),
		Description:   req.Description,
		Rooms:         req.Rooms,
		Country:       req.Country,
		City:          req.City,
		Lng:           req.Lng,
		Lat:           req.Lat,
	})
	middleware.Respond(c, result.From(view, err), http.StatusCreated, MsgApartmentAdded, "apartment")
}

// Search reads its filters from the query string:
// city, country, rooms, lng, lat and maxDistance (km).
func (h *ApartmentHandler) Search(c *gin.Context) {
	q, ok := parseSearchQuery(c)
	if !ok {
		middleware.RespondWithError(c, result.BadRequest(result.MsgInvalidRequest))
		return
	}
	views, err := h.queries.Search(c.Request.Context(), q)
	middleware.Respond(c, result.From(views, err), http.StatusOK, MsgSearchResults, "apartments")
}

func (h *ApartmentHandler) FindApartment(c *gin.Context) {
	view, err := h.queries.FindApartment(c.Request.Context(), cqrs.GetApartmentQuery{
		ApartmentID: c.Param("apartmentId"),
	})
	middleware.Respond(c, result.From(view, err), http.StatusOK, MsgApartmentFound, "apartment")
}

func parseSearchQuery(c *gin.Context) (cqrs.SearchApartmentsQuery, bool) {
	var q cqrs.SearchApartmentsQuery
	if v, ok := c.GetQuery("city"); ok && v != "" {
		q.City = &v
	}
	if v, ok := c.GetQuery("country"); ok && v != "" {
		q.Country = &v
	}
	if v, ok := c.GetQuery("rooms"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, false
		}
		q.Rooms = &n
	}
	for name, dst := range map[string]**float64{"lng": &q.Lng, "lat": &q.Lat, "maxDistance": &q.MaxDistance} {
		v, ok := c.GetQuery(name)
		if !ok || v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return q, false
		}
		*dst = &f
	}
	return q, true
}
