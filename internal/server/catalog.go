package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/frer-max/fassr/internal/api"
)

func (s *Server) listCategories(c *gin.Context) {
	categories, err := s.repo.ListCategories(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(categories))
}

func (s *Server) saveCategory(c *gin.Context) {
	var category api.Category
	if err := bindBody(c, &category); err != nil {
		s.fail(c, err)
		return
	}
	if err := checkID(c.Request.Method, category.ID); err != nil {
		s.fail(c, err)
		return
	}
	saved, err := s.repo.SaveCategory(c.Request.Context(), category)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(savedStatus(c.Request.Method), saved)
}

func (s *Server) deleteCategory(c *gin.Context) {
	id, err := idQuery(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.repo.DeleteCategory(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	deleted(c)
}

// listMeals answers with the bare list when no parameter is given and with
// a page otherwise.
func (s *Server) listMeals(c *gin.Context) {
	var (
		query api.MealQuery
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
	if raw := strings.TrimSpace(c.Query("categoryId")); raw != "" {
		id, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil || id < 0 {
			s.fail(c, badRequest("invalid categoryId %q", raw))
			return
		}
		query.CategoryID = id
	}
	if raw := strings.TrimSpace(c.Query("active")); raw != "" {
		active, perr := strconv.ParseBool(raw)
		if perr != nil {
			s.fail(c, badRequest("invalid active %q", raw))
			return
		}
		query.Active = &active
	}
	query.Search = c.Query("search")

	page, err := s.repo.ListMeals(c.Request.Context(), query)
	if err != nil {
		s.fail(c, err)
		return
	}
	if query.IsZero() {
		c.JSON(http.StatusOK, nonNil(page.Items))
		return
	}
	page.Items = nonNil(page.Items)
	c.JSON(http.StatusOK, page)
}

func (s *Server) saveMeal(c *gin.Context) {
	var meal api.Meal
	if err := bindBody(c, &meal); err != nil {
		s.fail(c, err)
		return
	}
	if err := checkID(c.Request.Method, meal.ID); err != nil {
		s.fail(c, err)
		return
	}
	saved, err := s.repo.SaveMeal(c.Request.Context(), meal)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(savedStatus(c.Request.Method), saved)
}

func (s *Server) deleteMeal(c *gin.Context) {
	id, err := idQuery(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.repo.DeleteMeal(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	deleted(c)
}

func (s *Server) getSettings(c *gin.Context) {
	settings, err := s.repo.GetSettings(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) saveSettings(c *gin.Context) {
	var update api.Settings
	if err := bindBody(c, &update); err != nil {
		s.fail(c, err)
		return
	}
	merged, err := s.repo.SaveSettings(c.Request.Context(), update)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, merged)
}

// checkID enforces that POST creates and PUT updates.
func checkID(method string, id int64) error {
	switch {
	case method == http.MethodPost && id != 0:
		return badRequest("id must be empty on create")
	case method == http.MethodPut && id <= 0:
		return badRequest("id is required on update")
	}
	return nil
}

func savedStatus(method string) int {
	if method == http.MethodPost {
		return http.StatusCreated
	}
	return http.StatusOK
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
