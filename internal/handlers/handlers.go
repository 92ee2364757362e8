// Package handlers registers the JSON API consumed by the MockERP web UI.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mockerp/alchemy-bridge/internal/alchemy"
	"github.com/mockerp/alchemy-bridge/internal/config"
	"github.com/mockerp/alchemy-bridge/internal/errs"
	"github.com/mockerp/alchemy-bridge/internal/logger"
	"github.com/mockerp/alchemy-bridge/internal/materials"
	"github.com/mockerp/alchemy-bridge/internal/products"
	"github.com/mockerp/alchemy-bridge/internal/transfer"
	"github.com/mockerp/alchemy-bridge/internal/validation"
)

// Transferrer runs a material transfer. Satisfied by transfer.Orchestrator.
type Transferrer interface {
	Transfer(ctx context.Context, materialID string) (transfer.Result, error)
}

// TokenSource is the token-manager slice test-connection and clear-token use.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// HandlerConfig groups the dependencies the routes close over.
type HandlerConfig struct {
	Materials *materials.Store
	Products  *products.Store
	Config    *config.Manager
	Tokens    TokenSource
	Transfers Transferrer
	Log       *logger.Logger
}

// RegisterRoutes mounts every inbound operation on r.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	log := cfg.Log

	r.GET("/api/materials", func(c *gin.Context) {
		out := []materials.Material{}
		for m := range cfg.Materials.List() {
			out = append(out, m)
		}
		c.JSON(http.StatusOK, out)
	})

	r.POST("/api/materials", func(c *gin.Context) {
		var req validation.AddMaterialRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		m, err := cfg.Materials.Add(req.TradeName, req.Category, req.MaterialStatus)
		if err != nil {
			writeError(c, err)
			return
		}
		log.Info("material added", "id", m.ID)
		c.JSON(http.StatusCreated, m)
	})

	r.POST("/api/transfer", func(c *gin.Context) {
		var req validation.TransferRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		res, err := cfg.Transfers.Transfer(c.Request.Context(), req.MaterialID)
		if err != nil {
			log.Error("transfer failed", "material_id", req.MaterialID, "err", err.Error())
			writeError(c, err)
			return
		}
		log.Info("transfer complete", "material_id", req.MaterialID, "code", res.Code)
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"alchemyCode": res.Code,
			"alchemyUrl":  res.URL,
		})
	})

	r.POST("/api/revert-material/:id", func(c *gin.Context) {
		if _, err := cfg.Materials.Revert(c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Material reverted to pending status"})
	})

	r.DELETE("/api/delete-material/:id", func(c *gin.Context) {
		if err := cfg.Materials.Delete(c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Material deleted successfully"})
	})

	r.POST("/api/test-connection", func(c *gin.Context) {
		if _, err := cfg.Tokens.Token(c.Request.Context()); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Connection successful!"})
	})

	r.POST("/api/save-credentials", func(c *gin.Context) {
		var req validation.SaveCredentialsRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		cfg.Config.Save(config.Update{
			Email:        req.Email,
			Password:     req.Password,
			Tenant:       req.Tenant,
			MaterialType: req.MaterialType,
		})
		log.Info("configuration saved")
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Configuration saved successfully!"})
	})

	r.POST("/api/clear-credentials", func(c *gin.Context) {
		cfg.Config.Clear()
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Credentials and token cleared."})
	})

	r.POST("/api/clear-token", func(c *gin.Context) {
		cfg.Tokens.Invalidate()
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Authentication token cleared. Next API call will re-authenticate."})
	})

	r.POST("/api/change-tenant", func(c *gin.Context) {
		var req validation.ChangeTenantRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		if err := cfg.Config.ChangeTenant(req.Tenant); err != nil {
			writeError(c, err)
			return
		}
		log.Info("tenant changed", "tenant", req.Tenant)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Tenant changed to " + req.Tenant})
	})

	r.POST("/api/products", func(c *gin.Context) {
		var req validation.ProductPayload
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		p, err := cfg.Products.Receive(products.Payload{
			RecordID:    req.RecordID,
			Code:        req.Code,
			ProductName: req.ProductName,
			Category:    req.Category,
			Status:      req.Status,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	})

	r.GET("/api/products", func(c *gin.Context) {
		c.JSON(http.StatusOK, cfg.Products.List())
	})
}

// writeError maps store/client errors onto the {success, message} wire
// contract with the matching HTTP status.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var apiErr *errs.ExternalAPIError
	switch {
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, errs.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.As(err, &apiErr):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"success": false, "message": err.Error()})
}

// Client compile-time checks: the concrete types satisfy the interfaces.
var (
	_ Transferrer = (*transfer.Orchestrator)(nil)
	_ TokenSource = (*alchemy.TokenManager)(nil)
)
