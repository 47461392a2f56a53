package controllers

import (
	"net/http"
	"time"

	"github.com/dukaanhq/dukaan-backend/api/responses"
	"github.com/dukaanhq/dukaan-backend/api/validators"
	shopsvc "github.com/dukaanhq/dukaan-backend/internal/shop"
	"github.com/dukaanhq/dukaan-backend/pkg/db/models"
	"github.com/dukaanhq/dukaan-backend/pkg/logger"
)

// ShopProfile returns the singleton shop settings.
func ShopProfile(svc shopsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := svc.Profile(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newShopProfileResponse(profile))
	}
}

type updateShopProfileRequest struct {
	Name              *string `json:"name"`
	State             *string `json:"state"`
	GSTNumber         *string `json:"gst_number"`
	Address           *string `json:"address"`
	LowStockThreshold *int    `json:"low_stock_threshold"`
}

func ShopProfileUpdate(svc shopsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload updateShopProfileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Update(r.Context(), shopsvc.UpdateProfileInput{
			Name:              payload.Name,
			State:             payload.State,
			GSTNumber:         payload.GSTNumber,
			Address:           payload.Address,
			LowStockThreshold: payload.LowStockThreshold,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newShopProfileResponse(profile))
	}
}

type shopProfileResponse struct {
	Name              string    `json:"name"`
	State             string    `json:"state"`
	GSTNumber         string    `json:"gst_number,omitempty"`
	Address           string    `json:"address,omitempty"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func newShopProfileResponse(profile *models.ShopProfile) shopProfileResponse {
	return shopProfileResponse{
		Name:              profile.Name,
		State:             profile.State,
		GSTNumber:         profile.GSTNumber,
		Address:           profile.Address,
		LowStockThreshold: profile.LowStockThreshold,
		UpdatedAt:         profile.UpdatedAt,
	}
}
