package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// TaskStopper cancels the background tasks of the process.
type TaskStopper interface {
	StopAll() int
}

type AdminHandler struct {
	tasks TaskStopper
}

func NewAdminHandler(tasks TaskStopper) *AdminHandler {
	return &AdminHandler{tasks: tasks}
}

// Stop cancels every background task. Payment flows already running are
// left to finish.
func (h *AdminHandler) Stop(c *fiber.Ctx) error {
	n := h.tasks.StopAll()
	logrus.WithField("tasks", n).Info("extension stopped")
	return c.JSON(fiber.Map{"success": true})
}
