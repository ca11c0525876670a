package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-backend/services/auth-service/models"
	"github.com/yashrajoria/storefront-backend/services/auth-service/repository"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"github.com/yashrajoria/storefront-backend/services/common/pagination"
)

type UserServiceInterface interface {
	List(ctx context.Context, filter repository.UserFilter, page, limit int) ([]models.User, int64, *apperrors.ServiceError)
	UpdateRole(ctx context.Context, actorID, userID uuid.UUID, role string) *apperrors.ServiceError
	UpdateStatus(ctx context.Context, actorID, userID uuid.UUID, status string) *apperrors.ServiceError
}

type UserController struct {
	service UserServiceInterface
}

func NewUserController(service UserServiceInterface) *UserController {
	return &UserController{service: service}
}

func (uc *UserController) List(c *gin.Context) {
	page, limit := pagination.Parse(c)
	filter := repository.UserFilter{
		Query:  strings.TrimSpace(c.Query("q")),
		Role:   c.Query("role"),
		Status: c.Query("status"),
	}
	users, total, svcErr := uc.service.List(c.Request.Context(), filter, page, limit)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users, "meta": pagination.NewMeta(page, limit, total)})
}

func (uc *UserController) UpdateRole(c *gin.Context) {
	var req struct {
		Role string `json:"role" binding:"required,oneof=user admin"`
	}
	uc.update(c, &req, func(actor, id uuid.UUID) *apperrors.ServiceError {
		return uc.service.UpdateRole(c.Request.Context(), actor, id, req.Role)
	})
}

func (uc *UserController) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required,oneof=active suspended"`
	}
	uc.update(c, &req, func(actor, id uuid.UUID) *apperrors.ServiceError {
		return uc.service.UpdateStatus(c.Request.Context(), actor, id, req.Status)
	})
}

func (uc *UserController) update(c *gin.Context, req interface{}, apply func(actor, id uuid.UUID) *apperrors.ServiceError) {
	actor, id, ok := ownerAndID(c)
	if !ok {
		return
	}
	if err := c.ShouldBindJSON(req); err != nil {
		apperrors.BindError(c, err)
		return
	}
	if svcErr := apply(actor, id); svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User updated"})
}
