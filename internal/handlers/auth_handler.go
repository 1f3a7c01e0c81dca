package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sjperalta/car-ledger-api/internal/services"
)

const (
	serviceName    = "car-ledger-api"
	serviceVersion = "1.0.0"
)

// HealthHandler answers the liveness probe. It also tells the desktop
// client which currency the ledger is kept in.
type HealthHandler struct {
	conversion *services.ConversionService
}

func NewHealthHandler(conversion *services.ConversionService) *HealthHandler {
	return &HealthHandler{conversion: conversion}
}

// @Summary Health Check
// @Description Liveness probe reporting the ledger currency and whether a conversion is running
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) Index(c *gin.Context) {
	body := gin.H{"service": serviceName, "version": serviceVersion}

	status, err := h.conversion.Status()
	if err != nil {
		_ = c.Error(err)
		body["status"] = "degraded"
		body["error"] = "conversion marker unreadable"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}

	body["status"] = "ok"
	body["currency"] = "RON"
	if status.Converted {
		body["currency"] = "EUR"
	}
	body["conversion_in_progress"] = status.ActiveRunID != ""
	c.JSON(http.StatusOK, body)
}

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// @Summary Operator login
// @Description Exchanges the operator credentials for a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Operator credentials"
// @Success 200 {object} services.LoginResult
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := BindAndValidate(c, "login", &req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
