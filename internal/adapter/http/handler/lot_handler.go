package handler

import (
	"pet-auction-house/internal/adapter/http/dto"
	"pet-auction-house/internal/adapter/http/middleware"
	"pet-auction-house/internal/core/ports"
	"pet-auction-house/pkg/apperror"
	"pet-auction-house/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LotHandler handles auction lot endpoints.
type LotHandler struct {
	lotSvc ports.LotService
}

// NewLotHandler creates a new LotHandler.
func NewLotHandler(lotSvc ports.LotService) *LotHandler {
	return &LotHandler{lotSvc: lotSvc}
}

// Create handles POST /api/v1/lots.
func (h *LotHandler) Create(c *gin.Context) {
	accountID, ok := c.Get(middleware.CtxAccountID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	price, ok := dto.ParsePrice(req.Price)
	if !ok {
		response.Error(c, apperror.Validation("price must be a positive decimal with at most two fraction digits"))
		return
	}
	petID, err := uuid.Parse(req.PetID)
	if err != nil {
		response.Error(c, apperror.Validation("pet_id must be a valid UUID"))
		return
	}

	summary, err := h.lotSvc.Create(c.Request.Context(), ports.CreateLotRequest{
		AuthorID: accountID.(uuid.UUID),
		PetID:    petID,
		Price:    price,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toLotResponse(*summary))
}

// ListOpen handles GET /api/v1/lots.
func (h *LotHandler) ListOpen(c *gin.Context) {
	lots, err := h.lotSvc.ListOpen(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.LotResponse, 0, len(lots))
	for _, lot := range lots {
		items = append(items, toLotResponse(lot))
	}
	response.OK(c, items)
}

// ListBids handles GET /api/v1/lots/:id/bids.
func (h *LotHandler) ListBids(c *gin.Context) {
	lotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("lot id must be a valid UUID"))
		return
	}

	bids, err := h.lotSvc.ListBids(c.Request.Context(), lotID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.BidResponse, 0, len(bids))
	for _, bid := range bids {
		items = append(items, dto.BidResponse{
			ID:     bid.ID.String(),
			Price:  bid.Price.StringFixed(2),
			Author: bid.Author,
		})
	}
	response.OK(c, items)
}

// Close handles POST /api/v1/lots/:id/close.
func (h *LotHandler) Close(c *gin.Context) {
	accountID, ok := c.Get(middleware.CtxAccountID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	lotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("lot id must be a valid UUID"))
		return
	}

	if err := h.lotSvc.Close(c.Request.Context(), lotID, accountID.(uuid.UUID)); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"status": "CLOSED"})
}

func toLotResponse(lot ports.LotSummary) dto.LotResponse {
	return dto.LotResponse{
		ID:     lot.ID.String(),
		Pet:    toPetResponse(lot.Pet),
		Price:  lot.Price.StringFixed(2),
		Author: lot.Author,
	}
}
