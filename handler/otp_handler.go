package handler

import (
	"encoding/json"
	"go-trustbank/common"
	"go-trustbank/model"
	"go-trustbank/service"
	"net/http"
)

// OTPHandler holds dependencies for mobile verification endpoints.
type OTPHandler struct {
	service *service.OTPService
}

func NewOTPHandler(s *service.OTPService) *OTPHandler {
	return &OTPHandler{service: s}
}

// IssueOTP godoc
// @Summary      Send a mobile verification code
// @Description  Issues a time-boxed 6-digit code for the caller's mobile number and delivers it out of band.
// @Tags         otp
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body model.IssueOTPRequest true "Mobile number to verify"
// @Success      200  {object}  map[string]bool
// @Failure      400  {object}  common.AppError
// @Failure      401  {object}  common.AppError
// @Failure      429  {object}  common.AppError "A code was issued too recently"
// @Failure      502  {object}  common.AppError "Delivery failed; the code remains issued"
// @Router       /api/otp/issue [post]
func (h *OTPHandler) IssueOTP(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.IssueOTPRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	if _, err := h.service.IssueOTP(r.Context(), userID, req.MobileNumber); err != nil {
		switch err {
		case service.ErrOTPRequestTooSoon:
			return common.NewAppError(http.StatusTooManyRequests, err.Error(), err)
		case service.ErrOTPDeliveryFailed:
			return common.NewAppError(http.StatusBadGateway, err.Error(), err)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not issue verification code", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
	return nil
}

// VerifyOTP godoc
// @Summary      Verify a mobile verification code
// @Description  Validates the presented code against the most recently issued one and, on success, marks the caller's mobile number as verified.
// @Tags         otp
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body model.VerifyOTPRequest true "Mobile number and presented code"
// @Success      200  {object}  map[string]bool
// @Failure      400  {object}  common.AppError "Expired or wrong code"
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError "No active code for this mobile number"
// @Router       /api/otp/verify [post]
func (h *OTPHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.VerifyOTPRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	if err := h.service.VerifyOTP(r.Context(), userID, req.MobileNumber, req.OTPCode); err != nil {
		switch err {
		case service.ErrNoActiveOTP:
			return common.NewAppError(http.StatusNotFound, err.Error(), err)
		case service.ErrOTPExpired, service.ErrOTPCodeMismatch:
			return common.NewAppError(http.StatusBadRequest, err.Error(), err)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not verify code", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
	return nil
}
