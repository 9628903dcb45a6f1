package handlers

import (
	"net/http"

	"github.com/courtsidehq/courtside/services"
)

type AdminHandler struct {
	adminService  services.AdminService
	configService services.SystemConfigService
}

func NewAdminHandler(adminService services.AdminService, configService services.SystemConfigService) *AdminHandler {
	return &AdminHandler{adminService: adminService, configService: configService}
}

func (h *AdminHandler) ResetStamina(w http.ResponseWriter, r *http.Request) {
	affected, err := h.adminService.ResetAllStamina(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"affected": affected}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) Rerank(w http.ResponseWriter, r *http.Request) {
	affected, err := h.adminService.Rerank(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"affected": affected}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) Backfill(w http.ResponseWriter, r *http.Request) {
	completed, err := h.adminService.BackfillTournamentPoints(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"completed": completed}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) GetFlags(w http.ResponseWriter, r *http.Request) {
	staminaRequired, err := h.configService.IsStaminaRequired(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	verificationRequired, err := h.configService.IsVerificationRequired(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"require_stamina_to_join":    staminaRequired,
		"require_match_verification": verificationRequired,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) ToggleStaminaRequired(w http.ResponseWriter, r *http.Request) {
	value, err := h.configService.ToggleStaminaRequired(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"require_stamina_to_join": value}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) ToggleVerificationRequired(w http.ResponseWriter, r *http.Request) {
	value, err := h.configService.ToggleVerificationRequired(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"require_match_verification": value}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
