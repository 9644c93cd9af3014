package handlers

import (
	"net/url"

	"tpos/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/skip2/go-qrcode"
)

const (
	qrSize    = 256
	maxQRData = 2048
)

// QRCode renders the path parameter as a PNG QR code, for showing invoices
// and LNURLs on the terminal screen.
func QRCode(c *fiber.Ctx) error {
	data, err := url.PathUnescape(c.Params("data"))
	if err != nil || data == "" {
		return response.BadRequest(c, "Invalid QR data")
	}
	if len(data) > maxQRData {
		return response.BadRequest(c, "QR data too long")
	}

	png, err := qrcode.Encode(data, qrcode.Medium, qrSize)
	if err != nil {
		return response.ServerError(c, "Failed to generate QR code")
	}

	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "max-age=3600")
	return c.Send(png)
}
