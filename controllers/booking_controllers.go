package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/CyberMehedi/F-Year/events"
	"github.com/CyberMehedi/F-Year/models"
	"github.com/CyberMehedi/F-Year/services"
	"github.com/CyberMehedi/F-Year/utils"
)

type BookingController struct {
	DB       *gorm.DB
	Notifier *services.Notifier
}

func NewBookingController(db *gorm.DB) *BookingController {
	return &BookingController{DB: db, Notifier: services.NewNotifier(db)}
}

// GetAllBookings lists bookings scoped to the caller's role: students see
// their own, cleaners their assignments, admins everything.
func (bc *BookingController) GetAllBookings(c *gin.Context) {
	userID := c.GetUint("user_id")
	role := c.GetString("role")

	query := bc.DB.Model(&models.Booking{})
	switch role {
	case models.RoleAdmin:
	case models.RoleStudent:
		query = query.Where("student_id = ?", userID)
	case models.RoleCleaner:
		query = query.Where("assigned_cleaner_id = ?", userID)
	default:
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if date := c.Query("date"); date != "" {
		query = query.Where("preferred_date = ?", date)
	}
	if btype := c.Query("type"); btype != "" {
		query = query.Where("booking_type = ?", btype)
	}

	var bookings []models.Booking
	if err := query.Order("created_at DESC").Find(&bookings).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of bookings", bookings)
}

// CreateBooking validates the request, derives the price server-side and
// exposes the new booking to all active cleaners.
func (bc *BookingController) CreateBooking(c *gin.Context) {
	role := c.GetString("role")
	if role != models.RoleStudent {
		utils.RespondError(c, http.StatusForbidden, errors.New("only students can create bookings"))
		return
	}
	userID := c.GetUint("user_id")

	type request struct {
		BookingType         string `json:"booking_type"`
		PreferredDate       string `json:"preferred_date"`
		PreferredTime       string `json:"preferred_time"`
		UrgencyLevel        string `json:"urgency_level"`
		SpecialInstructions string `json:"special_instructions"`
		Block               string `json:"block"`
		RoomNumber          string `json:"room_number"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	fields := utils.FieldErrors{}
	if req.BookingType != models.BookingTypeStandard && req.BookingType != models.BookingTypeDeep {
		fields["booking_type"] = "Booking type must be STANDARD or DEEP."
	}
	if req.UrgencyLevel == "" {
		req.UrgencyLevel = models.UrgencyNormal
	}
	if req.UrgencyLevel != models.UrgencyNormal && req.UrgencyLevel != models.UrgencyUrgent {
		fields["urgency_level"] = "Urgency level must be NORMAL or URGENT."
	}
	if !utils.BlockPattern.MatchString(req.Block) {
		fields["block"] = "Block must be in format: 2 digits followed by 1 uppercase letter (e.g., 25E)"
	}
	if !utils.RoomPattern.MatchString(req.RoomNumber) {
		fields["room_number"] = "Room number must be in format: 2 digits, 1 letter, dash, 2 digits, dash, 2 digits (e.g., 25E-04-10)"
	}

	date, err := utils.ParseDate(req.PreferredDate)
	if err != nil {
		fields["preferred_date"] = "Preferred date must be in YYYY-MM-DD format."
	} else if date.Before(utils.Today()) {
		fields["preferred_date"] = "Preferred date cannot be in the past."
	}

	if !utils.ValidSlotTime(req.PreferredTime) {
		fields["preferred_time"] = "Time must be in 30-minute increments from 08:00 to 23:30."
	} else if err == nil {
		slot, _ := time.Parse(utils.TimeLayout, req.PreferredTime)
		slotAt := time.Date(date.Year(), date.Month(), date.Day(), slot.Hour(), slot.Minute(), 0, 0, time.Local)
		if slotAt.Before(time.Now()) {
			fields["preferred_time"] = "The selected date and time cannot be in the past."
		}
	}

	if len(fields) > 0 {
		utils.RespondValidationError(c, fields)
		return
	}

	// New bookings go straight onto the cleaner pull board.
	booking := models.Booking{
		StudentID:           userID,
		BookingType:         req.BookingType,
		PreferredDate:       req.PreferredDate,
		PreferredTime:       req.PreferredTime,
		UrgencyLevel:        req.UrgencyLevel,
		SpecialInstructions: req.SpecialInstructions,
		Block:               req.Block,
		RoomNumber:          req.RoomNumber,
		Status:              models.StatusWaitingForCleaner,
		Price:               models.PriceForType(req.BookingType),
		PaymentStatus:       models.PaymentPending,
	}
	if err := bc.DB.Create(&booking).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var activeCleaners []models.User
	bc.DB.Joins("JOIN cleaner_profiles ON cleaner_profiles.user_id = users.id").
		Where("users.role = ? AND users.is_active = ? AND cleaner_profiles.is_active = ?",
			models.RoleCleaner, true, true).
		Find(&activeCleaners)

	bc.Notifier.BookingCreated(booking, activeCleaners)
	events.BroadcastBookingUpdate(booking)

	utils.InfoLogger.Printf("Booking %d created by student %d (%s, %s %s)",
		booking.ID, userID, booking.BookingType, booking.PreferredDate, booking.PreferredTime)

	utils.RespondJSON(c, http.StatusCreated, "Booking created", booking)
}

// GetBookingByID returns one booking, owner/assignee/admin only.
func (bc *BookingController) GetBookingByID(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("booking_id"))

	var booking models.Booking
	if err := bc.DB.First(&booking, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if !bc.canView(c, booking) {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Booking detail", booking)
}

// UpdateBooking lets the owning student edit scheduling fields while the
// booking has not been picked up yet. Price and status are never writable.
func (bc *BookingController) UpdateBooking(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("booking_id"))
	userID := c.GetUint("user_id")

	var booking models.Booking
	if err := bc.DB.First(&booking, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if booking.StudentID != userID || c.GetString("role") != models.RoleStudent {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	if booking.Status != models.StatusPending && booking.Status != models.StatusWaitingForCleaner {
		utils.RespondError(c, http.StatusConflict,
			errors.New("booking can no longer be edited once a cleaner is involved"))
		return
	}

	type request struct {
		PreferredDate       *string `json:"preferred_date"`
		PreferredTime       *string `json:"preferred_time"`
		UrgencyLevel        *string `json:"urgency_level"`
		SpecialInstructions *string `json:"special_instructions"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	fields := utils.FieldErrors{}
	if req.PreferredDate != nil {
		if date, err := utils.ParseDate(*req.PreferredDate); err != nil {
			fields["preferred_date"] = "Preferred date must be in YYYY-MM-DD format."
		} else if date.Before(utils.Today()) {
			fields["preferred_date"] = "Preferred date cannot be in the past."
		} else {
			booking.PreferredDate = *req.PreferredDate
		}
	}
	if req.PreferredTime != nil {
		if !utils.ValidSlotTime(*req.PreferredTime) {
			fields["preferred_time"] = "Time must be in 30-minute increments from 08:00 to 23:30."
		} else {
			booking.PreferredTime = *req.PreferredTime
		}
	}
	if req.UrgencyLevel != nil {
		if *req.UrgencyLevel != models.UrgencyNormal && *req.UrgencyLevel != models.UrgencyUrgent {
			fields["urgency_level"] = "Urgency level must be NORMAL or URGENT."
		} else {
			booking.UrgencyLevel = *req.UrgencyLevel
		}
	}
	if req.SpecialInstructions != nil {
		booking.SpecialInstructions = *req.SpecialInstructions
	}
	if len(fields) > 0 {
		utils.RespondValidationError(c, fields)
		return
	}

	if err := bc.DB.Save(&booking).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	events.BroadcastBookingUpdate(booking)
	utils.RespondJSON(c, http.StatusOK, "Booking updated", booking)
}

// AssignCleaner is the admin push path. Legal from any non-terminal status;
// assigning over an existing cleaner reassigns and notifies both.
func (bc *BookingController) AssignCleaner(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("booking_id"))

	var input struct {
		CleanerID uint `json:"cleaner_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var cleaner models.User
	if err := bc.DB.Where("id = ? AND role = ? AND is_active = ?",
		input.CleanerID, models.RoleCleaner, true).First(&cleaner).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("cleaner not found or inactive"))
		return
	}

	var booking models.Booking
	if err := bc.DB.First(&booking, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	previousCleanerID := booking.AssignedCleanerID

	if models.IsTerminalStatus(booking.Status) {
		utils.RespondError(c, http.StatusConflict,
			&models.InvalidTransitionError{From: booking.Status, To: models.StatusAssigned})
		return
	}

	// Reassignment while work is underway swaps the cleaner without touching
	// the status; every other non-terminal status moves to ASSIGNED.
	newStatus := models.StatusAssigned
	if booking.Status == models.StatusInProgress {
		newStatus = models.StatusInProgress
	}

	// CAS on the status we read; a booking that completed under us is left
	// alone and the caller gets a conflict.
	res := bc.DB.Model(&models.Booking{}).
		Where("id = ? AND status = ?", booking.ID, booking.Status).
		Updates(map[string]interface{}{
			"status":              newStatus,
			"assigned_cleaner_id": cleaner.ID,
		})
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, http.StatusConflict,
			&models.InvalidTransitionError{From: booking.Status, To: newStatus})
		return
	}

	bc.DB.First(&booking, booking.ID)
	bc.Notifier.CleanerAssigned(booking, cleaner, previousCleanerID)
	events.BroadcastBookingUpdate(booking)

	utils.InfoLogger.Printf("Admin assigned cleaner %d to booking %d", cleaner.ID, booking.ID)

	utils.RespondJSON(c, http.StatusOK, "Cleaner assigned to booking", booking)
}

// UpdateStatus drives the booking state machine.
func (bc *BookingController) UpdateStatus(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("booking_id"))
	userID := c.GetUint("user_id")
	role := c.GetString("role")

	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	// ASSIGNED always binds a cleaner in the same write, which only the
	// assignment endpoints do. A bare status update would leave the booking
	// ASSIGNED with no cleaner.
	if input.Status == models.StatusAssigned {
		utils.RespondError(c, http.StatusConflict,
			errors.New("bookings become ASSIGNED through cleaner assignment, not a status update"))
		return
	}

	var booking models.Booking
	if err := bc.DB.First(&booking, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	switch role {
	case models.RoleAdmin:
	case models.RoleCleaner:
		if booking.AssignedCleanerID == nil || *booking.AssignedCleanerID != userID {
			utils.RespondError(c, http.StatusForbidden,
				errors.New("you can only update your assigned bookings"))
			return
		}
	case models.RoleStudent:
		if booking.StudentID != userID || input.Status != models.StatusCancelled {
			utils.RespondError(c, http.StatusForbidden,
				errors.New("students can only cancel their own bookings"))
			return
		}
	default:
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	if !models.CanTransition(booking.Status, input.Status) {
		utils.RespondError(c, http.StatusConflict,
			&models.InvalidTransitionError{From: booking.Status, To: input.Status})
		return
	}

	updates := map[string]interface{}{"status": input.Status}
	if input.Status == models.StatusCancelled {
		// Cancelling releases the cleaner so the assignment invariant holds.
		updates["assigned_cleaner_id"] = nil
	}

	// CAS on the status we validated against; a concurrent transition makes
	// this a no-op and the caller gets a conflict.
	res := bc.DB.Model(&models.Booking{}).
		Where("id = ? AND status = ?", booking.ID, booking.Status).
		Updates(updates)
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, http.StatusConflict,
			&models.InvalidTransitionError{From: booking.Status, To: input.Status})
		return
	}

	oldStatus := booking.Status
	bc.DB.First(&booking, booking.ID)

	bc.Notifier.StatusChanged(booking, oldStatus, input.Status)
	events.BroadcastBookingUpdate(booking)

	utils.InfoLogger.Printf("Booking %d status %s -> %s by %s %d",
		booking.ID, oldStatus, input.Status, role, userID)

	utils.RespondJSON(c, http.StatusOK, "Booking status updated", booking)
}

// MyBookings returns the student's own bookings, newest first.
func (bc *BookingController) MyBookings(c *gin.Context) {
	userID := c.GetUint("user_id")

	var bookings []models.Booking
	if err := bc.DB.Where("student_id = ?", userID).
		Order("created_at DESC").Find(&bookings).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "My bookings", bookings)
}

// History returns the student's finished bookings.
func (bc *BookingController) History(c *gin.Context) {
	userID := c.GetUint("user_id")

	var bookings []models.Booking
	if err := bc.DB.Where("student_id = ? AND status IN ?", userID,
		[]string{models.StatusCompleted, models.StatusCancelled}).
		Order("created_at DESC").Find(&bookings).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Booking history", bookings)
}

func (bc *BookingController) canView(c *gin.Context, booking models.Booking) bool {
	userID := c.GetUint("user_id")
	switch c.GetString("role") {
	case models.RoleAdmin:
		return true
	case models.RoleStudent:
		return booking.StudentID == userID
	case models.RoleCleaner:
		return booking.AssignedCleanerID != nil && *booking.AssignedCleanerID == userID
	}
	return false
}
