package middleware

import (
	"github.com/gofiber/fiber/v2"

	"coffee-analysis/pkg/logger"
	"coffee-analysis/pkg/utils"
)

// ErrorHandler converts unhandled errors into the standard envelope.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		errCode := utils.ErrCodeInternalError
		message := "Internal server error"

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
			switch code {
			case fiber.StatusBadRequest:
				errCode = utils.ErrCodeBadRequest
			case fiber.StatusNotFound:
				errCode = utils.ErrCodeNotFound
			case fiber.StatusConflict:
				errCode = utils.ErrCodeConflict
			}
		}

		logger.ErrorContext(c.UserContext(), "Unhandled error",
			"path", c.Path(),
			"status", code,
			"error", err,
		)

		return utils.ErrorResponse(c, code, errCode, message, nil)
	}
}
