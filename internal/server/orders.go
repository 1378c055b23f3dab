package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/frer-max/fassr/internal/api"
	"github.com/frer-max/fassr/internal/state"
)

func (s *Server) listOrders(c *gin.Context) {
	var (
		query api.OrderQuery
		err   error
	)
	if query.Page, err = intQuery(c, "page"); err != nil {
		s.fail(c, err)
		return
	}
	if query.Limit, err = intQuery(c, "limit"); err != nil {
		s.fail(c, err)
		return
	}
	query.Search = c.Query("search")
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		query.Status = api.OrderStatus(raw)
		if !query.Status.Valid() {
			s.fail(c, badRequest("invalid status %q", raw))
			return
		}
	}

	page, err := s.repo.ListOrders(c.Request.Context(), query)
	if err != nil {
		s.fail(c, err)
		return
	}
	page.Items = nonNil(page.Items)
	c.JSON(http.StatusOK, page)
}

func (s *Server) createOrder(c *gin.Context) {
	var order api.Order
	if err := bindBody(c, &order); err != nil {
		s.fail(c, err)
		return
	}
	order.ID = 0
	created, err := s.repo.CreateOrder(c.Request.Context(), order)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.notify(c, state.Orders)
	c.JSON(http.StatusCreated, created)
}

func (s *Server) updateOrder(c *gin.Context) {
	var update api.StatusUpdate
	if err := bindBody(c, &update); err != nil {
		s.fail(c, err)
		return
	}
	updated, err := s.repo.UpdateOrder(c.Request.Context(), update)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.notify(c, state.Orders)
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteOrder(c *gin.Context) {
	id, err := idQuery(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.repo.DeleteOrder(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	s.notify(c, state.Orders)
	deleted(c)
}

func (s *Server) analytics(c *gin.Context) {
	summary, err := s.repo.Analytics(c.Request.Context(), s.now())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
