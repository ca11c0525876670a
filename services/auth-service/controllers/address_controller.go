package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-backend/services/auth-service/models"
	"github.com/yashrajoria/storefront-backend/services/auth-service/services"
	apperrors "github.com/yashrajoria/storefront-backend/services/common/errors"
	"github.com/yashrajoria/storefront-backend/services/common/middleware"
)

type AddressServiceInterface interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, *apperrors.ServiceError)
	Create(ctx context.Context, userID uuid.UUID, in services.AddressInput) (*models.Address, *apperrors.ServiceError)
	Update(ctx context.Context, userID, id uuid.UUID, in services.AddressInput) (*models.Address, *apperrors.ServiceError)
	Delete(ctx context.Context, userID, id uuid.UUID) *apperrors.ServiceError
	SetDefault(ctx context.Context, userID, id uuid.UUID) *apperrors.ServiceError
}

type AddressController struct {
	service AddressServiceInterface
}

func NewAddressController(service AddressServiceInterface) *AddressController {
	return &AddressController{service: service}
}

func (ac *AddressController) List(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	addresses, svcErr := ac.service.List(c.Request.Context(), userID)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": addresses})
}

func (ac *AddressController) Create(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	var input services.AddressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.BindError(c, err)
		return
	}
	address, svcErr := ac.service.Create(c.Request.Context(), userID, input)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Address created successfully", "data": address})
}

func (ac *AddressController) Update(c *gin.Context) {
	userID, id, ok := ownerAndID(c)
	if !ok {
		return
	}
	var input services.AddressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.BindError(c, err)
		return
	}
	address, svcErr := ac.service.Update(c.Request.Context(), userID, id, input)
	if svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Address updated successfully", "data": address})
}

func (ac *AddressController) Delete(c *gin.Context) {
	userID, id, ok := ownerAndID(c)
	if !ok {
		return
	}
	if svcErr := ac.service.Delete(c.Request.Context(), userID, id); svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Address deleted successfully"})
}

func (ac *AddressController) SetDefault(c *gin.Context) {
	userID, id, ok := ownerAndID(c)
	if !ok {
		return
	}
	if svcErr := ac.service.SetDefault(c.Request.Context(), userID, id); svcErr != nil {
		apperrors.Respond(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Default address updated"})
}

func ownerAndID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}
