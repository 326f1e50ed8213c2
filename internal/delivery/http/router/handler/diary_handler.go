package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"nutrisync/internal/delivery/http/response"
	"nutrisync/internal/domain/entity"
	domainerrors "nutrisync/internal/domain/errors"
	"nutrisync/internal/domain/repository"
	"nutrisync/internal/errors"
	"nutrisync/internal/usecase"
	"nutrisync/internal/usecase/impl"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// HeaderXUserID identifies the calling user. Authentication is handled by
// the gateway in front of this service; here the header is trusted.
const HeaderXUserID = "X-User-ID"

// DiaryHandler serves the daily diary REST and stream endpoints.
type DiaryHandler struct {
	diaryUsecase usecase.DiaryUsecase
	syncUsecase  usecase.SyncUsecase
	queueUsecase usecase.QueueUsecase
	logger       *slog.Logger
}

// DiaryHandlerParams holds dependencies for the DiaryHandler
type DiaryHandlerParams struct {
	fx.In

	DiaryUsecase usecase.DiaryUsecase
	SyncUsecase  usecase.SyncUsecase
	QueueUsecase usecase.QueueUsecase
	Logger       *slog.Logger
}

// NewDiaryHandler creates a new diary handler
func NewDiaryHandler(params DiaryHandlerParams) *DiaryHandler {
	return &DiaryHandler{
		diaryUsecase: params.DiaryUsecase,
		syncUsecase:  params.SyncUsecase,
		queueUsecase: params.QueueUsecase,
		logger:       params.Logger,
	}
}

func userID(c echo.Context) (string, error) {
	id := c.Request().Header.Get(HeaderXUserID)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "missing X-User-ID header")
	}

	return id, nil
}

// mapRepositoryError lifts persistence-layer sentinels into API errors.
func mapRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrDiaryNotFound):
		return domainerrors.ErrDiaryNotFound
	case errors.Is(err, repository.ErrEntryNotFound):
		return domainerrors.ErrEntryNotFound
	case errors.Is(err, repository.ErrRemoteUnavailable):
		return domainerrors.ErrRemoteUnavailable
	case errors.Is(err, impl.ErrInvalidDateFormat):
		return domainerrors.ErrInvalidDate
	default:
		return err
	}
}

// GetDiary returns one day's aggregate with remaining-versus-target values.
func (h *DiaryHandler) GetDiary(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	summary, err := h.diaryUsecase.GetDiary(c.Request().Context(), uid, c.Param("date"))
	if err != nil {
		return mapRepositoryError(err)
	}

	return response.Success(c, http.StatusOK, summary, "")
}

// Totals returns today's consumed nutrition sum.
func (h *DiaryHandler) Totals(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	totals, err := h.diaryUsecase.GetTodayTotals(c.Request().Context(), uid)
	if err != nil {
		return mapRepositoryError(err)
	}

	return response.Success(c, http.StatusOK, totals, "")
}

type remainingResponse struct {
	Calories float64              `json:"calories"`
	Macros   entity.NutritionInfo `json:"macros"`
}

// Remaining returns today's target-minus-consumed values, floored at zero.
func (h *DiaryHandler) Remaining(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	calories, err := h.diaryUsecase.GetRemainingCalories(ctx, uid)
	if err != nil {
		return mapRepositoryError(err)
	}

	macros, err := h.diaryUsecase.GetRemainingMacros(ctx, uid)
	if err != nil {
		return mapRepositoryError(err)
	}

	return response.Success(c, http.StatusOK, remainingResponse{
		Calories: calories,
		Macros:   macros,
	}, "")
}

type addFoodRequest struct {
	FoodItem  string               `json:"foodItem" validate:"required"`
	Amount    float64              `json:"amount" validate:"gt=0"`
	Unit      string               `json:"unit" validate:"required"`
	Nutrition entity.NutritionInfo `json:"nutrition"`
}

// AddFood appends a food entry to the meal named in the path.
func (h *DiaryHandler) AddFood(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req addFoodRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_REQUEST", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	agg, err := h.diaryUsecase.AddFood(c.Request().Context(), uid, &usecase.AddFoodInput{
		Date:      c.Param("date"),
		MealType:  c.Param("meal"),
		FoodItem:  req.FoodItem,
		Amount:    req.Amount,
		Unit:      req.Unit,
		Nutrition: req.Nutrition,
	})
	if err != nil {
		return mapRepositoryError(err)
	}

	return response.Success(c, http.StatusCreated, agg, "Food entry added")
}

type updateFoodRequest struct {
	FoodItem  string               `json:"foodItem" validate:"required"`
	Amount    float64              `json:"amount" validate:"gt=0"`
	Unit      string               `json:"unit" validate:"required"`
	MealType  string               `json:"mealType" validate:"required"`
	Nutrition entity.NutritionInfo `json:"nutrition"`
}

// UpdateFood replaces the entry with the id named in the path.
func (h *DiaryHandler) UpdateFood(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req updateFoodRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_REQUEST", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	agg, err := h.diaryUsecase.UpdateFood(c.Request().Context(), uid, &usecase.UpdateFoodInput{
		Date: c.Param("date"),
		Entry: entity.FoodEntry{
			ID:        c.Param("entryId"),
			FoodItem:  req.FoodItem,
			Amount:    req.Amount,
			Unit:      req.Unit,
			MealType:  entity.MealType(req.MealType),
			Nutrition: req.Nutrition,
		},
	})
	if err != nil {
		return mapRepositoryError(err)
	}

	return response.Success(c, http.StatusOK, agg, "Food entry updated")
}

// RemoveFood removes the entry with the id named in the path.
func (h *DiaryHandler) RemoveFood(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	agg, err := h.diaryUsecase.RemoveFood(c.Request().Context(), uid, c.Param("date"), c.Param("entryId"))
	if err != nil {
		return mapRepositoryError(err)
	}

	return response.Success(c, http.StatusOK, agg, "Food entry removed")
}

type logNutritionRequest struct {
	Nutrition entity.NutritionInfo `json:"nutrition"`
	Overwrite bool                 `json:"overwrite"`
}

// LogNutrition adjusts consumed macros directly, e.g. from an AI estimate.
func (h *DiaryHandler) LogNutrition(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req logNutritionRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_REQUEST", "invalid request body")
	}

	if err := h.diaryUsecase.LogNutrition(c.Request().Context(), uid, &usecase.LogNutritionInput{
		Date:      c.Param("date"),
		Nutrition: req.Nutrition,
		Overwrite: req.Overwrite,
	}); err != nil {
		return mapRepositoryError(err)
	}

	return response.Success(c, http.StatusOK, nil, "Nutrition logged")
}

type addWaterRequest struct {
	Ml int `json:"ml" validate:"gt=0"`
}

// AddWater logs water intake in milliliters.
func (h *DiaryHandler) AddWater(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req addWaterRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_REQUEST", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.diaryUsecase.AddWaterMl(c.Request().Context(), uid, c.Param("date"), req.Ml); err != nil {
		return mapRepositoryError(err)
	}

	return response.Success(c, http.StatusOK, nil, "Water logged")
}

type setWaterRequest struct {
	Glasses int `json:"glasses"`
}

// SetWater overwrites the day's water glass counter.
func (h *DiaryHandler) SetWater(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req setWaterRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_REQUEST", "invalid request body")
	}

	if err := h.diaryUsecase.SetWaterGlasses(c.Request().Context(), uid, c.Param("date"), req.Glasses); err != nil {
		return mapRepositoryError(err)
	}

	return response.Success(c, http.StatusOK, nil, "Water updated")
}

// UpdateTargets overwrites the day's macro and water targets.
func (h *DiaryHandler) UpdateTargets(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req entity.NutritionTargets
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_REQUEST", "invalid request body")
	}

	if err := h.diaryUsecase.UpdateTargets(c.Request().Context(), uid, c.Param("date"), req); err != nil {
		return mapRepositoryError(err)
	}

	return response.Success(c, http.StatusOK, nil, "Targets updated")
}

type updateActivityRequest struct {
	Steps             int     `json:"steps"`
	ActiveMinutes     int     `json:"activeMinutes"`
	WorkoutsCompleted int     `json:"workoutsCompleted"`
	SleepHours        float64 `json:"sleepHours"`
}

// UpdateActivity overwrites the day's activity fields.
func (h *DiaryHandler) UpdateActivity(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req updateActivityRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_REQUEST", "invalid request body")
	}

	if err := h.diaryUsecase.UpdateActivity(c.Request().Context(), uid, &usecase.UpdateActivityInput{
		Date:              c.Param("date"),
		Steps:             req.Steps,
		ActiveMinutes:     req.ActiveMinutes,
		WorkoutsCompleted: req.WorkoutsCompleted,
		SleepHours:        req.SleepHours,
	}); err != nil {
		return mapRepositoryError(err)
	}

	return response.Success(c, http.StatusOK, nil, "Activity updated")
}

// Stream pushes the live diary view over Server-Sent Events. The optional
// date query selects the followed day; it defaults to today.
func (h *DiaryHandler) Stream(c echo.Context) error {
	uid, err := userID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	date := c.QueryParam("date")
	if date == "" {
		date = time.Now().UTC().Format(entity.DateLayout)
	}

	if err := h.syncUsecase.SetSelectedDate(ctx, uid, date); err != nil {
		return mapRepositoryError(err)
	}

	updates, cancel, err := h.syncUsecase.Subscribe(ctx, uid)
	if err != nil {
		return mapRepositoryError(err)
	}
	defer cancel()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	for {
		select {
		case <-ctx.Done():
			return nil
		case agg, ok := <-updates:
			if !ok {
				return nil
			}

			data, err := json.Marshal(agg)
			if err != nil {
				h.logger.Error("Failed to encode diary event",
					slog.String("user_id", uid),
					slog.String("error", err.Error()),
				)

				continue
			}

			fmt.Fprintf(w, "event: diary\ndata: %s\n\n", data)
			w.Flush()
		}
	}
}

// SyncStatus reports offline queue depth and connectivity.
func (h *DiaryHandler) SyncStatus(c echo.Context) error {
	status, err := h.queueUsecase.Status(c.Request().Context())
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, status, "")
}

// SyncPending lists the queued operations awaiting replay.
func (h *DiaryHandler) SyncPending(c echo.Context) error {
	pending, err := h.queueUsecase.Pending(c.Request().Context())
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, pending, "")
}

// SyncFlush wakes the queue worker immediately.
func (h *DiaryHandler) SyncFlush(c echo.Context) error {
	if err := h.queueUsecase.Flush(c.Request().Context()); err != nil {
		return err
	}

	return response.Success(c, http.StatusAccepted, nil, "Flush requested")
}
