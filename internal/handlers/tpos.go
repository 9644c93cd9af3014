package handlers

import (
	"errors"
	"strconv"

	"tpos/internal/lnurl"
	"tpos/internal/models"
	"tpos/internal/services/gateway"
	"tpos/internal/services/tpos"
	"tpos/internal/utils"
	"tpos/internal/utils/response"
	"tpos/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	msgTposNotFound = "TPoS does not exist."
	msgNotYourTpos  = "Not your TPoS."
)

type TposHandler struct {
	tposService tpos.Service
	log         *logrus.Entry
}

func NewTposHandler(tposService tpos.Service) *TposHandler {
	return &TposHandler{
		tposService: tposService,
		log:         logrus.WithField("component", "tpos_handler"),
	}
}

type payLNURLwRequest struct {
	LNURL string `json:"lnurl"`
}

// List returns the caller's terminals, or those of every wallet of the
// caller's user with ?all_wallets=true.
func (h *TposHandler) List(c *fiber.Ctx) error {
	w, err := utils.GetWallet(c)
	if err != nil {
		return response.Unauthorized(c, err.Error())
	}

	tposs, err := h.tposService.List(c.UserContext(), w, c.QueryBool("all_wallets", false))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(tposs)
}

func (h *TposHandler) Create(c *fiber.Ctx) error {
	w, err := utils.GetWallet(c)
	if err != nil {
		return response.Unauthorized(c, err.Error())
	}

	data, err := parseTposData(c)
	if err != nil {
		return badInput(c, err)
	}

	t, err := h.tposService.Create(c.UserContext(), w, *data)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

func (h *TposHandler) Update(c *fiber.Ctx) error {
	w, err := utils.GetWallet(c)
	if err != nil {
		return response.Unauthorized(c, err.Error())
	}

	id := c.Params("id")
	var data models.CreateTposData
	if err := c.BodyParser(&data); err != nil {
		if err := h.tposService.Authorize(c.UserContext(), w, id); err != nil {
			return h.fail(c, err)
		}
		return response.BadRequest(c, errInvalidBody.Error())
	}

	t, err := h.tposService.Update(c.UserContext(), w, id, data)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(t)
}

func (h *TposHandler) Delete(c *fiber.Ctx) error {
	w, err := utils.GetWallet(c)
	if err != nil {
		return response.Unauthorized(c, err.Error())
	}

	if err := h.tposService.Delete(c.UserContext(), w, c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateInvoice issues an invoice for ?amount, with optional memo and tipAmount.
func (h *TposHandler) CreateInvoice(c *fiber.Ctx) error {
	sale := models.SaleRequest{
		Amount:    queryInt64(c, "amount", 0),
		Memo:      c.Query("memo"),
		TipAmount: queryInt64(c, "tipAmount", 0),
	}

	inv, err := h.tposService.CreateInvoice(c.UserContext(), c.Params("id"), sale)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inv)
}

// MakeATM pulls ?amount sats from the LNURL-pay link in ?payLink.
func (h *TposHandler) MakeATM(c *fiber.Ctx) error {
	amount := queryInt64(c, "amount", 0)
	payLink := c.Query("payLink")

	v := validation.New()
	v.ATM(amount, payLink)
	if err := v.Err(); err != nil {
		return response.ValidationError(c, err)
	}

	out, err := h.tposService.MakeATM(c.UserContext(), c.Params("id"), amount, payLink)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

func (h *TposHandler) LatestPayments(c *fiber.Ctx) error {
	payments, err := h.tposService.LatestPayments(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(payments)
}

// PayInvoice has the LNURL-withdraw service in the body pay the invoice
// in the path.
func (h *TposHandler) PayInvoice(c *fiber.Ctx) error {
	var req payLNURLwRequest
	if err := c.BodyParser(&req); err != nil {
		return badInput(c, errInvalidBody)
	}

	paymentRequest := c.Params("paymentRequest")
	v := validation.New()
	v.Withdraw(paymentRequest, req.LNURL)
	if err := v.Err(); err != nil {
		return response.ValidationError(c, err)
	}

	out, err := h.tposService.PayWithLNURLw(c.UserContext(), c.Params("id"), paymentRequest, req.LNURL)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

func (h *TposHandler) CheckInvoice(c *fiber.Ctx) error {
	status, err := h.tposService.CheckInvoice(c.UserContext(), c.Params("id"), c.Params("paymentHash"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(status)
}

func (h *TposHandler) fail(c *fiber.Ctx, err error) error {
	var (
		gwErr     *gateway.Error
		decodeErr *lnurl.DecodeError
		valErr    *validation.Error
	)
	switch {
	case errors.Is(err, tpos.ErrTposNotFound):
		return response.NotFound(c, msgTposNotFound)
	case errors.Is(err, tpos.ErrNotYourTpos):
		return response.Forbidden(c, msgNotYourTpos)
	case errors.As(err, &valErr):
		return response.ValidationError(c, valErr)
	case errors.As(err, &decodeErr):
		return response.BadRequest(c, err.Error())
	case errors.As(err, &gwErr):
		return response.ServerError(c, gwErr.Error())
	default:
		h.log.WithError(err).WithField("path", c.Path()).Error("request failed")
		return response.ServerError(c, err.Error())
	}
}

var errInvalidBody = errors.New("invalid request body")

func parseTposData(c *fiber.Ctx) (*models.CreateTposData, error) {
	var data models.CreateTposData
	if err := c.BodyParser(&data); err != nil {
		return nil, errInvalidBody
	}

	v := validation.New()
	v.TposData(&data)
	if err := v.Err(); err != nil {
		return nil, err
	}
	return &data, nil
}

func badInput(c *fiber.Ctx, err error) error {
	if errors.Is(err, errInvalidBody) {
		return response.BadRequest(c, err.Error())
	}
	return response.ValidationError(c, err)
}

func queryInt64(c *fiber.Ctx, key string, def int64) int64 {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}
