package handlers

import (
	"net/http"
	"time"

	"taskhub/internal/domain"
	"taskhub/internal/domain/models"
	"taskhub/internal/http/middleware"
	"taskhub/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler is the users facade: it binds payloads, forwards the
// identity context and shapes responses. No business rules live here.
type UserHandler struct {
	Users *service.UserService
}

type userResponse struct {
	ID        int64     `json:"id"`
	Fullname  string    `json:"fullname"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

func userResponseFrom(u *models.User) userResponse {
	resp := userResponse{
		ID:        u.ID,
		Fullname:  u.Fullname,
		Email:     u.Email,
		Type:      u.Type,
		CreatedAt: u.CreatedAt,
	}
	if u.Phone.Valid {
		phone := u.Phone.String
		resp.Phone = &phone
	}
	return resp
}

type userListResponse struct {
	Results        []userResponse `json:"results"`
	TotalItems     int64          `json:"total_items"`
	TotalPage      int64          `json:"total_page"`
	RecordsPerPage int            `json:"records_per_page"`
}

// GET /api/v1/users
func (h UserHandler) List(c *gin.Context) {
	ident := middleware.CurrentIdentity(c)
	params := ParseListParams(c)
	if params.Search != "" {
		params.SearchFields = []string{"fullname", "email"}
	}
	page, err := h.Users.GetAll(c.Request.Context(), ident, params, false)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	out := userListResponse{
		Results:        make([]userResponse, 0, len(page.Results)),
		TotalItems:     page.TotalItems,
		TotalPage:      page.TotalPage,
		RecordsPerPage: page.RecordsPerPage,
	}
	for i := range page.Results {
		out.Results = append(out.Results, userResponseFrom(&page.Results[i]))
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/v1/users/:id
func (h UserHandler) GetByID(c *gin.Context) {
	id, ok := ParseID(c)
	if !ok {
		return
	}
	ident := middleware.CurrentIdentity(c)
	user, err := h.Users.GetByID(c.Request.Context(), id, ident, false, false)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponseFrom(user))
}

// GET /api/v1/users/me
func (h UserHandler) Me(c *gin.Context) {
	ident := middleware.CurrentIdentity(c)
	if ident.UserID == nil {
		RespondDomainError(c, domain.UnauthorizedError{})
		return
	}
	user, err := h.Users.GetByID(c.Request.Context(), *ident.UserID, ident, false, false)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponseFrom(user))
}

type editUserRequest struct {
	Fullname *string `json:"fullname"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Phone    *string `json:"phone"`
}

func (r editUserRequest) patch() models.UserPatch {
	return models.UserPatch{Fullname: r.Fullname, Email: r.Email, Phone: r.Phone}
}

// PUT /api/v1/users/:id
func (h UserHandler) Update(c *gin.Context) {
	id, ok := ParseID(c)
	if !ok {
		return
	}
	h.update(c, id)
}

// PUT /api/v1/users/me
func (h UserHandler) UpdateMe(c *gin.Context) {
	ident := middleware.CurrentIdentity(c)
	if ident.UserID == nil {
		RespondDomainError(c, domain.UnauthorizedError{})
		return
	}
	h.update(c, *ident.UserID)
}

func (h UserHandler) update(c *gin.Context, id int64) {
	var req editUserRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	ident := middleware.CurrentIdentity(c)
	// Existence first, then edit: two calls by design, so a concurrent
	// delete in between surfaces as NotFound from the edit.
	if _, err := h.Users.GetByID(c.Request.Context(), id, ident, false, false); err != nil {
		RespondDomainError(c, err)
		return
	}
	user, err := h.Users.Edit(c.Request.Context(), id, req.patch(), ident)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if user == nil {
		RespondDomainError(c, domain.NotFoundError{Resource: "users"})
		return
	}
	c.JSON(http.StatusOK, userResponseFrom(user))
}

// POST /api/v1/users/:id/grant-admin
func (h UserHandler) GrantAdmin(c *gin.Context) {
	id, ok := ParseID(c)
	if !ok {
		return
	}
	ident := middleware.CurrentIdentity(c)
	user, err := h.Users.GrantAdmin(c.Request.Context(), id, ident)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponseFrom(user))
}

// DELETE /api/v1/users/:id (soft delete)
func (h UserHandler) Delete(c *gin.Context) {
	id, ok := ParseID(c)
	if !ok {
		return
	}
	ident := middleware.CurrentIdentity(c)
	if _, err := h.Users.SoftDeleteByID(c.Request.Context(), id, ident, false); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
