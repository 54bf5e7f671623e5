package services

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gigboard/backend/internal/access"
	"github.com/gigboard/backend/internal/ledger"
	"github.com/gigboard/backend/internal/middleware"
)

// AdminService exposes the operational surface of the ledger: custody
// withdrawals, inbound deposits, the pause switch and role
// administration.
type AdminService struct {
	ledger    *ledger.Ledger
	roles     *access.RoleService
	validator *ValidationHelper
}

type WithdrawRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"` // in cents
}

type DepositRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"` // in cents
}

type RoleRequest struct {
	Role      string `json:"role" validate:"required,oneof=admin pauser gig_owner"`
	AccountID string `json:"accountId" validate:"required,len=10"`
}

func NewAdminService(gigLedger *ledger.Ledger, roles *access.RoleService) *AdminService {
	return &AdminService{
		ledger:    gigLedger,
		roles:     roles,
		validator: NewValidationHelper(),
	}
}

// Withdraw transfers part of the custody balance to the admin caller
// @Summary Withdraw custody funds
// @Tags settlement
// @Accept json
// @Produce json
// @Param withdrawal body WithdrawRequest true "Withdrawal amount"
// @Success 200 {object} object{success=bool,balance=int}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /withdrawals [post]
func (as *AdminService) Withdraw(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r)

	var req WithdrawRequest
	if !as.decodeBody(w, r, &req) {
		return
	}

	if err := as.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if err := as.ledger.Withdraw(r.Context(), caller, req.Amount); err != nil {
		log.Printf("[ADMIN] Withdrawal failed for %s: %v", caller, err)
		SendErrorResponse(w, err.Error(), StatusForLedgerError(err), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"balance": as.ledger.Balance(),
	})
}

// Deposit records inbound funds with no matching operation
// @Summary Deposit funds into custody
// @Tags settlement
// @Accept json
// @Produce json
// @Param deposit body DepositRequest true "Deposit amount"
// @Success 200 {object} object{success=bool,balance=int}
// @Failure 400 {object} ErrorResponse
// @Router /deposits [post]
func (as *AdminService) Deposit(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r)

	var req DepositRequest
	if !as.decodeBody(w, r, &req) {
		return
	}

	if err := as.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if err := as.ledger.Deposit(r.Context(), caller, req.Amount); err != nil {
		log.Printf("[ADMIN] Deposit failed for %s: %v", caller, err)
		SendErrorResponse(w, err.Error(), StatusForLedgerError(err), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"balance": as.ledger.Balance(),
	})
}

// Pause stops all state-mutating ledger operations
// @Summary Pause the ledger
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 403 {object} ErrorResponse
// @Router /admin/pause [post]
func (as *AdminService) Pause(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r)

	if err := as.ledger.Pause(r.Context(), caller); err != nil {
		SendErrorResponse(w, err.Error(), StatusForLedgerError(err), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "paused"})
}

// Unpause resumes state-mutating ledger operations
// @Summary Unpause the ledger
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 403 {object} ErrorResponse
// @Router /admin/unpause [post]
func (as *AdminService) Unpause(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r)

	if err := as.ledger.Unpause(r.Context(), caller); err != nil {
		SendErrorResponse(w, err.Error(), StatusForLedgerError(err), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "active"})
}

// GrantRole adds an account to a role
// @Summary Grant a role
// @Tags admin
// @Accept json
// @Produce json
// @Param grant body RoleRequest true "Role grant"
// @Success 200 {object} map[string]string
// @Failure 403 {object} ErrorResponse
// @Router /admin/roles/grant [post]
func (as *AdminService) GrantRole(w http.ResponseWriter, r *http.Request) {
	as.changeRole(w, r, as.roles.Grant)
}

// RevokeRole removes an account from a role
// @Summary Revoke a role
// @Tags admin
// @Accept json
// @Produce json
// @Param revoke body RoleRequest true "Role revocation"
// @Success 200 {object} map[string]string
// @Failure 403 {object} ErrorResponse
// @Router /admin/roles/revoke [post]
func (as *AdminService) RevokeRole(w http.ResponseWriter, r *http.Request) {
	as.changeRole(w, r, as.roles.Revoke)
}

func (as *AdminService) changeRole(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, role, identity string) error) {
	caller := middleware.Caller(r)

	isAdmin, err := as.roles.HasRole(r.Context(), ledger.RoleAdmin, caller)
	if err != nil {
		log.Printf("[ADMIN] Role check failed for %s: %v", caller, err)
		SendErrorResponse(w, "Role check failed", http.StatusInternalServerError, nil)
		return
	}
	if !isAdmin {
		SendErrorResponse(w, "Admin role required", http.StatusForbidden, nil)
		return
	}

	var req RoleRequest
	if !as.decodeBody(w, r, &req) {
		return
	}

	if err := as.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if err := apply(r.Context(), req.Role, req.AccountID); err != nil {
		log.Printf("[ADMIN] Role change failed: %v", err)
		SendErrorResponse(w, "Role change failed", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (as *AdminService) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}

	return true
}
