package services

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gigboard/backend/internal/ledger"
	"github.com/gigboard/backend/internal/middleware"
)

type GigService struct {
	ledger    *ledger.Ledger
	validator *ValidationHelper
}

type CreateGigRequest struct {
	Image       string   `json:"image" validate:"max=512"`
	Description string   `json:"description" validate:"required,max=2000"`
	KPIs        []string `json:"kpis" validate:"max=20,dive,max=200"`
	Amount      int64    `json:"amount" validate:"required,gt=0"` // bounty in cents
}

type SubmitApplicationRequest struct {
	CoverLetter string `json:"coverLetter" validate:"required,max=4000"`
}

type SelectWorkerRequest struct {
	ApplicationID uint64 `json:"applicationId" validate:"required"`
}

func NewGigService(gigLedger *ledger.Ledger) *GigService {
	return &GigService{
		ledger:    gigLedger,
		validator: NewValidationHelper(),
	}
}

// CreateGig posts a new funded gig
// @Summary Create a gig
// @Description Post a paid task; the bounty is captured into marketplace custody on creation
// @Tags gigs
// @Accept json
// @Produce json
// @Param gig body CreateGigRequest true "Gig data"
// @Success 201 {object} object{gigId=int}
// @Failure 400 {object} ErrorResponse
// @Failure 402 {object} ErrorResponse
// @Router /gigs [post]
func (gs *GigService) CreateGig(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r)

	var req CreateGigRequest
	if !gs.decodeBody(w, r, &req) {
		return
	}

	if err := gs.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	gigID, err := gs.ledger.CreateGig(r.Context(), caller, req.Image, req.Description, req.KPIs, req.Amount)
	if err != nil {
		gs.sendLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{"gigId": gigID})
}

// GetGig retrieves a gig by id
// @Summary Get gig by ID
// @Tags gigs
// @Produce json
// @Param gigId path int true "Gig ID"
// @Success 200 {object} models.Gig
// @Failure 404 {object} ErrorResponse
// @Router /gigs/{gigId} [get]
func (gs *GigService) GetGig(w http.ResponseWriter, r *http.Request) {
	gigID, ok := parseID(w, r, "gigId")
	if !ok {
		return
	}

	gig, err := gs.ledger.Gig(gigID)
	if err != nil {
		gs.sendLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(gig)
}

// ListGigs retrieves every gig ordered by id
// @Summary List all gigs
// @Tags gigs
// @Produce json
// @Success 200 {object} object{gigs=[]models.Gig,count=int}
// @Failure 404 {object} ErrorResponse
// @Router /gigs [get]
func (gs *GigService) ListGigs(w http.ResponseWriter, r *http.Request) {
	gigs, err := gs.ledger.AllGigs()
	if err != nil {
		gs.sendLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"gigs":  gigs,
		"count": len(gigs),
	})
}

// ListMyGigs retrieves the caller's gigs in creation order
// @Summary List the caller's gigs
// @Tags gigs
// @Produce json
// @Success 200 {object} object{gigs=[]models.Gig,count=int}
// @Router /gigs/mine [get]
func (gs *GigService) ListMyGigs(w http.ResponseWriter, r *http.Request) {
	gigs := gs.ledger.GigsByOwner(middleware.Caller(r))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"gigs":  gigs,
		"count": len(gigs),
	})
}

// SubmitApplication submits a bid for a gig
// @Summary Apply to a gig
// @Tags applications
// @Accept json
// @Produce json
// @Param gigId path int true "Gig ID"
// @Param application body SubmitApplicationRequest true "Application data"
// @Success 201 {object} object{applicationId=int}
// @Failure 400 {object} ErrorResponse
// @Router /gigs/{gigId}/applications [post]
func (gs *GigService) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r)

	gigID, ok := parseID(w, r, "gigId")
	if !ok {
		return
	}

	var req SubmitApplicationRequest
	if !gs.decodeBody(w, r, &req) {
		return
	}

	if err := gs.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	appID, err := gs.ledger.SubmitApplication(r.Context(), caller, gigID, req.CoverLetter)
	if err != nil {
		gs.sendLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{"applicationId": appID})
}

// ListApplicationsForGig retrieves the applications submitted to a gig
// @Summary List applications for a gig
// @Tags applications
// @Produce json
// @Param gigId path int true "Gig ID"
// @Success 200 {object} object{applications=[]models.Application,count=int}
// @Failure 404 {object} ErrorResponse
// @Router /gigs/{gigId}/applications [get]
func (gs *GigService) ListApplicationsForGig(w http.ResponseWriter, r *http.Request) {
	gigID, ok := parseID(w, r, "gigId")
	if !ok {
		return
	}

	apps, err := gs.ledger.ApplicationsForGig(gigID)
	if err != nil {
		gs.sendLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"applications": apps,
		"count":        len(apps),
	})
}

// ListMyApplications retrieves the caller's applications in submission order
// @Summary List the caller's applications
// @Tags applications
// @Produce json
// @Success 200 {object} object{applications=[]models.Application,count=int}
// @Router /applications/mine [get]
func (gs *GigService) ListMyApplications(w http.ResponseWriter, r *http.Request) {
	apps := gs.ledger.ApplicationsByApplicant(middleware.Caller(r))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"applications": apps,
		"count":        len(apps),
	})
}

// SelectWorker binds an application's applicant to the caller's gig
// @Summary Select a worker
// @Tags gigs
// @Accept json
// @Produce json
// @Param gigId path int true "Gig ID"
// @Param selection body SelectWorkerRequest true "Selected application"
// @Success 200 {object} models.Gig
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /gigs/{gigId}/assign [post]
func (gs *GigService) SelectWorker(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r)

	gigID, ok := parseID(w, r, "gigId")
	if !ok {
		return
	}

	var req SelectWorkerRequest
	if !gs.decodeBody(w, r, &req) {
		return
	}

	if err := gs.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if err := gs.ledger.SelectWorker(r.Context(), caller, gigID, req.ApplicationID); err != nil {
		gs.sendLedgerError(w, err)
		return
	}

	gig, err := gs.ledger.Gig(gigID)
	if err != nil {
		gs.sendLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(gig)
}

// Payout settles an assigned gig's bounty to the selected worker
// @Summary Pay out a gig
// @Description Release the bounty minus the platform commission to the assigned worker
// @Tags settlement
// @Produce json
// @Param gigId path int true "Gig ID"
// @Success 200 {object} object{success=bool,gigId=int}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /gigs/{gigId}/payout [post]
func (gs *GigService) Payout(w http.ResponseWriter, r *http.Request) {
	caller := middleware.Caller(r)

	gigID, ok := parseID(w, r, "gigId")
	if !ok {
		return
	}

	if err := gs.ledger.Payout(r.Context(), caller, gigID); err != nil {
		gs.sendLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"gigId":   gigID,
	})
}

func (gs *GigService) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
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

func (gs *GigService) sendLedgerError(w http.ResponseWriter, err error) {
	log.Printf("[GIGS] Operation failed: %v", err)
	SendErrorResponse(w, err.Error(), StatusForLedgerError(err), nil)
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (uint64, bool) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		SendErrorResponse(w, "Invalid "+param, http.StatusBadRequest, nil)
		return 0, false
	}
	return id, true
}
