package controllers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/dreambrush/portal/internal/pkg/billing"
	"github.com/dreambrush/portal/internal/pkg/session"
	"github.com/dreambrush/portal/internal/pkg/upgrade"
	"github.com/dreambrush/portal/internal/pkg/usercontext"
)

const wizardSessionKey = "upgrade_wizard"

var validate = validator.New()

type selectPlanRequest struct {
	Tier  string `json:"tier" validate:"required,oneof=FREE BASIC PREMIUM"`
	Cycle string `json:"cycle" validate:"required,oneof=MONTHLY YEARLY"`
}

func loadWizard(c *fiber.Ctx) (*upgrade.Wizard, bool) {
	var w upgrade.Wizard
	found, err := session.GetJSON(c, wizardSessionKey, &w)
	if err != nil || !found {
		return nil, false
	}
	return &w, true
}

func saveWizard(c *fiber.Ctx, w *upgrade.Wizard) error {
	return session.SetJSON(c, wizardSessionKey, w)
}

func wizardResponse(w *upgrade.Wizard) fiber.Map {
	resp := fiber.Map{
		"id":           w.ID,
		"state":        w.State.String(),
		"current_tier": w.CurrentTier,
	}
	if w.TargetTier != "" {
		resp["target_tier"] = w.TargetTier
		resp["cycle"] = w.Cycle
		resp["delta"] = w.Delta
	}
	if w.Checkout != nil {
		resp["checkout"] = w.Checkout
	}
	return resp
}

// HandleUpgradeState returns the wizard for the current session, if any.
func HandleUpgradeState(c *fiber.Ctx) error {
	w, ok := loadWizard(c)
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "no_wizard", "no upgrade in progress")
	}
	return c.JSON(wizardResponse(w))
}

// HandleUpgradeStart opens a fresh wizard. Reopening always resets every
// field to its initial value.
func HandleUpgradeStart(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	if !billing.TierPremium.Above(userCtx.Tier) {
		return jsonError(c, fiber.StatusConflict, "already_top_tier", "no upgrade is available from your current tier")
	}

	w := upgrade.NewWizard(userCtx.Tier)
	if err := saveWizard(c, w); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "session_error", "could not persist wizard state")
	}
	return c.Status(fiber.StatusCreated).JSON(wizardResponse(w))
}

// HandleUpgradeSelect applies the tier selection and moves the wizard to
// the confirmation step.
func HandleUpgradeSelect(c *fiber.Ctx) error {
	w, ok := loadWizard(c)
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "no_wizard", "no upgrade in progress")
	}

	var req selectPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}

	plans, err := requestClient(c).ListPlans(c.Context())
	if err != nil {
		return jsonError(c, apiErrorStatus(err), "plans_unavailable", err.Error())
	}

	if err := w.SelectPlan(plans, billing.ParseTier(req.Tier), billing.ParseCycle(req.Cycle)); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_selection", err.Error())
	}
	if err := saveWizard(c, w); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "session_error", "could not persist wizard state")
	}
	return c.JSON(wizardResponse(w))
}

// HandleUpgradeConfirm runs the confirm step's side effect: create the
// pending subscription, then the upgrade payment link. While the sequence
// is in flight the wizard rejects duplicate submissions. On failure the
// wizard stays on the confirmation step for an inline retry.
func HandleUpgradeConfirm(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	w, ok := loadWizard(c)
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "no_wizard", "no upgrade in progress")
	}
	if w.InFlight {
		return jsonError(c, fiber.StatusConflict, "payment_in_flight", upgrade.ErrPaymentInFlight.Error())
	}

	w.InFlight = true
	if err := saveWizard(c, w); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "session_error", "could not persist wizard state")
	}

	svc := upgrade.NewService(requestClient(c), publicDomain)
	user := &billing.User{
		ID:    userCtx.UserID,
		Name:  userCtx.Username,
		Email: userCtx.Email,
		Tier:  userCtx.Tier,
	}
	err := svc.ConfirmAndPay(c.Context(), w, user)
	w.InFlight = false
	if saveErr := saveWizard(c, w); saveErr != nil {
		return jsonError(c, fiber.StatusInternalServerError, "session_error", "could not persist wizard state")
	}
	if err != nil {
		if errors.Is(err, upgrade.ErrInvalidTransition) {
			return jsonError(c, fiber.StatusConflict, "invalid_state", err.Error())
		}
		return jsonError(c, apiErrorStatus(err), "payment_setup_failed", err.Error())
	}

	return c.JSON(wizardResponse(w))
}

// HandleUpgradeComplete applies the user's manual payment confirmation.
// The wizard never polls the provider; the backend stays authoritative and
// the session tier is only refreshed by the result pages.
func HandleUpgradeComplete(c *fiber.Ctx) error {
	w, ok := loadWizard(c)
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "no_wizard", "no upgrade in progress")
	}
	if err := w.ConfirmPayment(); err != nil {
		return jsonError(c, fiber.StatusConflict, "invalid_state", err.Error())
	}

	// The flow is terminal; the wizard is dropped from the session.
	_ = session.DeleteSessionValue(c, wizardSessionKey)
	return c.JSON(wizardResponse(w))
}

// HandleUpgradeCancel destroys the wizard. No compensating backend call is
// made; a created-but-unpaid subscription is left for the backend and the
// provider to expire on their own.
func HandleUpgradeCancel(c *fiber.Ctx) error {
	_ = session.DeleteSessionValue(c, wizardSessionKey)
	return c.SendStatus(fiber.StatusNoContent)
}
