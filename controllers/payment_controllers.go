package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/CyberMehedi/F-Year/events"
	"github.com/CyberMehedi/F-Year/models"
	"github.com/CyberMehedi/F-Year/services"
	"github.com/CyberMehedi/F-Year/utils"
)

const receiptUploadDir = "public/uploads/payment_receipts"

type PaymentController struct {
	DB       *gorm.DB
	Notifier *services.Notifier
}

func NewPaymentController(db *gorm.DB) *PaymentController {
	return &PaymentController{DB: db, Notifier: services.NewNotifier(db)}
}

// MarkOfflinePayment records a cash payment. Only legal on a COMPLETED,
// unpaid booking owned by the caller; the conditional update enforces both.
func (pc *PaymentController) MarkOfflinePayment(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("booking_id"))
	userID := c.GetUint("user_id")

	var booking models.Booking
	if err := pc.DB.Where("id = ? AND student_id = ?", id, userID).First(&booking).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("booking not found"))
		return
	}

	res := pc.DB.Model(&models.Booking{}).
		Where("id = ? AND status = ? AND payment_status = ?",
			booking.ID, models.StatusCompleted, models.PaymentPending).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentPaid,
			"payment_method": models.PaymentMethodOffline,
		})
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		pc.respondPaymentStateError(c, booking)
		return
	}

	pc.DB.First(&booking, booking.ID)
	pc.Notifier.PaymentReceived(booking)
	events.BroadcastBookingUpdate(booking)

	utils.InfoLogger.Printf("Booking %d marked as paid (offline) by student %d", booking.ID, userID)

	utils.RespondJSON(c, http.StatusOK, "Payment completed (Offline)", booking)
}

// UploadPaymentReceipt stores an online payment proof image and marks the
// booking paid. Same preconditions as the offline path.
func (pc *PaymentController) UploadPaymentReceipt(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("booking_id"))
	userID := c.GetUint("user_id")

	var booking models.Booking
	if err := pc.DB.Where("id = ? AND student_id = ?", id, userID).First(&booking).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("booking not found"))
		return
	}

	if booking.Status != models.StatusCompleted || booking.PaymentStatus != models.PaymentPending {
		pc.respondPaymentStateError(c, booking)
		return
	}

	file, err := c.FormFile("receipt")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("receipt file is required"))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
	default:
		utils.RespondError(c, http.StatusBadRequest, errors.New("receipt must be an image file"))
		return
	}

	if err := os.MkdirAll(receiptUploadDir, 0755); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, errors.New("error creating upload directory"))
		return
	}

	filename := fmt.Sprintf("%d-%d%s", booking.ID, time.Now().UnixNano(), ext)
	path := filepath.Join(receiptUploadDir, filename)
	if err := c.SaveUploadedFile(file, path); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, errors.New("error saving receipt"))
		return
	}

	receiptURL := fmt.Sprintf("/uploads/payment_receipts/%s", filename)

	res := pc.DB.Model(&models.Booking{}).
		Where("id = ? AND status = ? AND payment_status = ?",
			booking.ID, models.StatusCompleted, models.PaymentPending).
		Updates(map[string]interface{}{
			"payment_status":  models.PaymentPaid,
			"payment_method":  models.PaymentMethodOnline,
			"payment_receipt": receiptURL,
		})
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		// Lost a race with another payment attempt; drop the orphan file.
		os.Remove(path)
		pc.respondPaymentStateError(c, booking)
		return
	}

	pc.DB.First(&booking, booking.ID)
	pc.Notifier.PaymentReceived(booking)
	events.BroadcastBookingUpdate(booking)

	utils.InfoLogger.Printf("Payment receipt uploaded for booking %d by student %d", booking.ID, userID)

	utils.RespondJSON(c, http.StatusOK, "Payment receipt uploaded successfully", gin.H{
		"booking":     booking,
		"receipt_url": receiptURL,
	})
}

func (pc *PaymentController) respondPaymentStateError(c *gin.Context, booking models.Booking) {
	reason := "payment can only be made for completed bookings"
	if booking.Status == models.StatusCompleted && booking.PaymentStatus == models.PaymentPaid {
		reason = "payment has already been completed"
	}
	utils.RespondError(c, http.StatusBadRequest, &models.InvalidPaymentStateError{Reason: reason})
}
