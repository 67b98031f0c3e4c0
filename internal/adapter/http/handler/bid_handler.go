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

// BidHandler handles bid endpoints.
type BidHandler struct {
	bidSvc        ports.BidService
	settlementSvc ports.SettlementService
}

// NewBidHandler creates a new BidHandler.
func NewBidHandler(bidSvc ports.BidService, settlementSvc ports.SettlementService) *BidHandler {
	return &BidHandler{bidSvc: bidSvc, settlementSvc: settlementSvc}
}

// Place handles POST /api/v1/bids.
func (h *BidHandler) Place(c *gin.Context) {
	accountID, ok := c.Get(middleware.CtxAccountID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.PlaceBidRequest
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
	lotID, err := uuid.Parse(req.LotID)
	if err != nil {
		response.Error(c, apperror.Validation("lot_id must be a valid UUID"))
		return
	}

	detail, err := h.bidSvc.Place(c.Request.Context(), ports.PlaceBidRequest{
		BidderID: accountID.(uuid.UUID),
		LotID:    lotID,
		Price:    price,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toBidDetailResponse(*detail))
}

// ListActive handles GET /api/v1/bids.
func (h *BidHandler) ListActive(c *gin.Context) {
	bids, err := h.bidSvc.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.BidDetailResponse, 0, len(bids))
	for _, bid := range bids {
		items = append(items, toBidDetailResponse(bid))
	}
	response.OK(c, items)
}

// Withdraw handles DELETE /api/v1/bids/:id.
func (h *BidHandler) Withdraw(c *gin.Context) {
	accountID, ok := c.Get(middleware.CtxAccountID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	bidID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("bid id must be a valid UUID"))
		return
	}

	if err := h.bidSvc.Withdraw(c.Request.Context(), bidID, accountID.(uuid.UUID)); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"status": "WITHDRAWN"})
}

// Accept handles POST /api/v1/bids/:id/accept.
func (h *BidHandler) Accept(c *gin.Context) {
	accountID, ok := c.Get(middleware.CtxAccountID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	bidID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("bid id must be a valid UUID"))
		return
	}

	if err := h.settlementSvc.AcceptBid(c.Request.Context(), bidID, accountID.(uuid.UUID)); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"status": "SETTLED"})
}

func toBidDetailResponse(bid ports.BidDetail) dto.BidDetailResponse {
	return dto.BidDetailResponse{
		ID:     bid.ID.String(),
		Price:  bid.Price.StringFixed(2),
		Author: bid.Author,
		Lot:    toLotResponse(bid.Lot),
	}
}
