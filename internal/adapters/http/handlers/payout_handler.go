package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"aidledger/internal/core/domain"
	"aidledger/internal/core/services"
	"aidledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PayoutHandler handles bulk payout and reporting endpoints
type PayoutHandler struct {
	payoutService *services.PayoutService
}

// NewPayoutHandler creates a new payout handler
func NewPayoutHandler(payoutService *services.PayoutService) *PayoutHandler {
	return &PayoutHandler{payoutService: payoutService}
}

// CreateBulkPayoutRequest represents a bulk payout request body.
// Rows may alternatively be uploaded as a CSV file under the
// "recipients" form field: vendor_ref,amount,reference_note.
type CreateBulkPayoutRequest struct {
	ZoneID      uint                 `json:"zone_id"`
	Description string               `json:"description"`
	Rows        []services.PayoutRow `json:"rows"`
}

// CreateBulk commits a disbursement batch all-or-nothing
// @Summary Create bulk payout
// @Description Validate every recipient row and commit the batch atomically. Any invalid row rejects the whole batch.
// @Tags Payouts
// @Accept json
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param body body CreateBulkPayoutRequest true "Payout batch"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /payouts [post]
func (h *PayoutHandler) CreateBulk(c *fiber.Ctx) error {
	var req CreateBulkPayoutRequest

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		req.ZoneID = uint(queryFormUint(c, "zone_id"))
		req.Description = c.FormValue("description")

		rows, rowErrs, err := parseRecipientsCSV(c)
		if err != nil {
			return response.BadRequest(c, "Recipients file is required and must be valid CSV")
		}
		if len(rowErrs) > 0 {
			return response.UnprocessableEntity(c, "Bulk payout validation failed", fiber.Map{
				"rows": rowErrs,
			})
		}
		req.Rows = rows
	} else {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	if req.ZoneID == 0 {
		return response.BadRequest(c, "Zone ID is required")
	}

	input := &services.CreateBulkPayoutInput{
		ZoneID:      req.ZoneID,
		Description: req.Description,
		Rows:        req.Rows,
	}

	payout, err := h.payoutService.CreateBulkPayout(c.Context(), input, getActor(c))
	if err != nil {
		if ve, ok := domain.IsBulkPayoutValidation(err); ok {
			return response.UnprocessableEntity(c, "Bulk payout validation failed", fiber.Map{
				"rows": ve.Rows,
			})
		}
		switch {
		case errors.Is(err, domain.ErrZoneNotFound):
			return response.NotFound(c, "Zone not found")
		case errors.Is(err, domain.ErrBulkPayoutEmpty):
			return response.BadRequest(c, "Payout batch has no rows")
		default:
			return response.InternalServerError(c, "Failed to create bulk payout")
		}
	}

	return response.Created(c, "Bulk payout committed successfully", fiber.Map{
		"payout": payout,
	})
}

// Get returns a committed payout batch with its items
// @Summary Get bulk payout by ID
// @Tags Payouts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payout ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /payouts/{id} [get]
func (h *PayoutHandler) Get(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid payout ID")
	}

	payout, err := h.payoutService.GetBulkPayout(c.Context(), id)
	if err != nil {
		return response.NotFound(c, "Bulk payout not found")
	}

	return response.Success(c, "Bulk payout retrieved successfully", fiber.Map{
		"payout": payout,
	})
}

// ZoneUtilization reports a zone's budget, donations and verified spend
// @Summary Zone utilization report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path int true "Zone ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /reports/zones/{id}/utilization [get]
func (h *PayoutHandler) ZoneUtilization(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid zone ID")
	}

	report, err := h.payoutService.GetZoneUtilization(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrZoneNotFound) {
			return response.NotFound(c, "Zone not found")
		}
		return response.InternalServerError(c, "Failed to build utilization report")
	}

	return response.Success(c, "Utilization retrieved successfully", report)
}

// VendorOutstanding reports verified totals minus paid totals per vendor
// @Summary Vendor outstanding report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param zone_id query int false "Restrict to one zone"
// @Success 200 {object} response.Response
// @Router /reports/vendors/outstanding [get]
func (h *PayoutHandler) VendorOutstanding(c *fiber.Ctx) error {
	zoneID := queryUint(c, "zone_id")

	vendors, err := h.payoutService.GetVendorOutstanding(c.Context(), zoneID)
	if err != nil {
		return response.InternalServerError(c, "Failed to build outstanding report")
	}

	return response.Success(c, "Outstanding totals retrieved successfully", fiber.Map{
		"vendors": vendors,
	})
}

// parseRecipientsCSV reads the uploaded recipients file. Header rows are
// skipped when the amount column is not numeric. Parse failures are
// reported per row, same shape as the service-side batch validation.
func parseRecipientsCSV(c *fiber.Ctx) ([]services.PayoutRow, []domain.RowError, error) {
	fh, err := c.FormFile("recipients")
	if err != nil {
		return nil, nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var (
		rows    []services.PayoutRow
		rowErrs []domain.RowError
		index   int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if index == 0 && len(record) > 1 {
			if _, perr := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64); perr != nil {
				continue
			}
		}
		if len(record) < 2 {
			rowErrs = append(rowErrs, domain.RowError{Index: index, Reason: "expected vendor_ref,amount[,reference_note]"})
			index++
			continue
		}
		amount, perr := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64)
		if perr != nil {
			rowErrs = append(rowErrs, domain.RowError{Index: index, Reason: fmt.Sprintf("invalid amount %q", record[1])})
			index++
			continue
		}
		row := services.PayoutRow{
			VendorRef: strings.TrimSpace(record[0]),
			Amount:    amount,
		}
		if len(record) > 2 {
			row.ReferenceNote = strings.TrimSpace(record[2])
		}
		rows = append(rows, row)
		index++
	}

	return rows, rowErrs, nil
}

func queryFormUint(c *fiber.Ctx, name string) uint64 {
	v, _ := strconv.ParseUint(c.FormValue(name, "0"), 10, 32)
	return v
}
