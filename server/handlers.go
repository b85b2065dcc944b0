package server

import (
	"github.com/gofiber/fiber/v2"

	"fairprice/models"
	"fairprice/services"
	"fairprice/utils"
)

// Handler contains all HTTP handlers
type Handler struct {
	loader  *services.Loader
	cleaner *services.Cleaner
	logger  *utils.Logger
}

// NewHandler creates a new handler. The runtime is built by loader on the
// first request that needs it.
func NewHandler(loader *services.Loader, logger *utils.Logger) *Handler {
	return &Handler{
		loader:  loader,
		cleaner: services.NewCleaner(logger),
		logger:  logger,
	}
}

func (h *Handler) runtime(c *fiber.Ctx) (*services.Runtime, error) {
	return h.loader.Load(c.UserContext())
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	rt, err := h.runtime(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":     "ok",
		"service":    "fairprice",
		"mode":       rt.Engine.Mode(),
		"states":     len(rt.Store.States()),
		"localities": rt.Store.Len(),
	})
}

// ListStates returns the states a listing may be scored in.
func (h *Handler) ListStates(c *fiber.Ctx) error {
	rt, err := h.runtime(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    rt.Store.States(),
	})
}

// ListLocalities returns only the localities observed under a state, so a
// form built from it never offers a locality that cannot be scored.
func (h *Handler) ListLocalities(c *fiber.Ctx) error {
	rt, err := h.runtime(c)
	if err != nil {
		return err
	}
	state := c.Params("state")
	if !rt.Store.ValidState(state) {
		return fiber.NewError(fiber.StatusNotFound, "unknown state: "+state)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"state":   state,
		"data":    rt.Store.LocalitiesForState(state),
	})
}

type option struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// FormOptions returns the categorical choices the scoring form offers.
func (h *Handler) FormOptions(c *fiber.Ctx) error {
	var categories, types, subTypes []option
	for _, v := range models.Categories() {
		categories = append(categories, option{string(v), v.Label()})
	}
	for _, v := range models.PropertyTypes() {
		types = append(types, option{string(v), v.Label()})
	}
	for _, v := range models.SubTypes() {
		subTypes = append(subTypes, option{string(v), v.Label()})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"categories":     categories,
			"property_types": types,
			"sub_types":      subTypes,
			"max_rooms":      services.MaxRoomCount,
			"min_price":      services.MinListedPrice,
			"max_price":      services.MaxListedPrice,
		},
	})
}

// Score classifies one listing submitted as form values.
func (h *Handler) Score(c *fiber.Ctx) error {
	var form models.RawListingForm
	if err := c.BodyParser(&form); err != nil {
		return &models.InvalidListing{Field: "body", Reason: err.Error()}
	}

	in, err := h.cleaner.ParseListing(form)
	if err != nil {
		return err
	}

	rt, err := h.runtime(c)
	if err != nil {
		return err
	}

	result, err := rt.Engine.Score(c.UserContext(), in)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       result,
		"confidence": result.Confidence(),
	})
}
