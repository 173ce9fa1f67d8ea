package Controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyberMehedi/F-Year/models"
)

func TestDashboardStats(t *testing.T) {
	db := setupTestDB(t)
	r := setupAPIRouter(db)
	student := seedStudent(t, db, "dash@student.aiu.edu.my", "AIU23100060")
	seedCleaner(t, db, "dash@aiu.edu.my", "CLN-400")
	admin := seedAdmin(t, db, "dash-admin@aiu.edu.my")

	seedBooking(t, db, student.ID, models.StatusWaitingForCleaner)
	seedBooking(t, db, student.ID, models.StatusInProgress)
	done := seedBooking(t, db, student.ID, models.StatusCompleted)
	require.NoError(t, db.Model(&models.Booking{}).Where("id = ?", done.ID).
		Update("payment_status", models.PaymentPaid).Error)

	// Students are kept out.
	w := doJSON(r, "GET", "/admin/stats", &student, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, "GET", "/admin/stats", &admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := parseBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["bookings_today"])
	assert.Equal(t, float64(1), data["pending_bookings"])
	assert.Equal(t, float64(1), data["active_bookings"])
	assert.Equal(t, float64(1), data["completed_bookings"])
	assert.Equal(t, float64(1), data["total_students"])
	assert.Equal(t, float64(1), data["active_cleaners"])
	assert.Equal(t, float64(done.Price), data["total_revenue"])
}

func TestAvailableCleanersRanking(t *testing.T) {
	db := setupTestDB(t)
	r := setupAPIRouter(db)
	student := seedStudent(t, db, "rank@student.aiu.edu.my", "AIU23100061")
	admin := seedAdmin(t, db, "rank-admin@aiu.edu.my")

	busy := seedCleaner(t, db, "busy@aiu.edu.my", "CLN-410")
	idle := seedCleaner(t, db, "idle@aiu.edu.my", "CLN-411")
	inactive := seedCleaner(t, db, "off@aiu.edu.my", "CLN-412")
	require.NoError(t, db.Model(&models.CleanerProfile{}).
		Where("user_id = ?", inactive.ID).Update("is_active", false).Error)

	for i := 0; i < 2; i++ {
		b := seedBooking(t, db, student.ID, models.StatusAssigned)
		require.NoError(t, db.Model(&models.Booking{}).Where("id = ?", b.ID).
			Update("assigned_cleaner_id", busy.ID).Error)
	}

	w := doJSON(r, "GET", "/admin/cleaners/available", &admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	list := parseBody(t, w)["data"].([]interface{})
	require.Len(t, list, 2) // the inactive cleaner is excluded

	firstID := uint(list[0].(map[string]interface{})["id"].(float64))
	assert.Equal(t, idle.ID, firstID)
	assert.Equal(t, float64(2), list[1].(map[string]interface{})["active_tasks"])
}

func TestToggleCleanerStatus(t *testing.T) {
	db := setupTestDB(t)
	r := setupAPIRouter(db)
	admin := seedAdmin(t, db, "toggle-admin@aiu.edu.my")
	cleaner := seedCleaner(t, db, "toggle@aiu.edu.my", "CLN-420")

	url := fmt.Sprintf("/admin/cleaners/%d/toggle-status", cleaner.ID)

	w := doJSON(r, "POST", url, &admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var profile models.CleanerProfile
	require.NoError(t, db.Where("user_id = ?", cleaner.ID).First(&profile).Error)
	assert.False(t, profile.IsActive)

	// Toggling again brings the cleaner back.
	w = doJSON(r, "POST", url, &admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, db.Where("user_id = ?", cleaner.ID).First(&profile).Error)
	assert.True(t, profile.IsActive)

	// Unknown cleaner.
	w = doJSON(r, "POST", "/admin/cleaners/9999/toggle-status", &admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInactiveCleanerSkippedInFanout(t *testing.T) {
	db := setupTestDB(t)
	r := setupAPIRouter(db)
	student := seedStudent(t, db, "skip@student.aiu.edu.my", "AIU23100062")
	active := seedCleaner(t, db, "on@aiu.edu.my", "CLN-430")
	off := seedCleaner(t, db, "off2@aiu.edu.my", "CLN-431")
	require.NoError(t, db.Model(&models.CleanerProfile{}).
		Where("user_id = ?", off.ID).Update("is_active", false).Error)

	w := doJSON(r, "POST", "/bookings", &student, map[string]interface{}{
		"booking_type":   models.BookingTypeStandard,
		"preferred_date": futureDate(2),
		"preferred_time": "11:00",
		"block":          "25E",
		"room_number":    "25E-04-10",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var activeCount, offCount int64
	db.Model(&models.Notification{}).
		Where("user_id = ? AND notification_type = ?", active.ID, models.NotifNewBooking).
		Count(&activeCount)
	db.Model(&models.Notification{}).
		Where("user_id = ? AND notification_type = ?", off.ID, models.NotifNewBooking).
		Count(&offCount)

	assert.Equal(t, int64(1), activeCount)
	assert.Zero(t, offCount)
}

func TestPaymentReceiptsListing(t *testing.T) {
	db := setupTestDB(t)
	r := setupAPIRouter(db)
	student := seedStudent(t, db, "recon@student.aiu.edu.my", "AIU23100063")
	admin := seedAdmin(t, db, "recon-admin@aiu.edu.my")

	paid := seedBooking(t, db, student.ID, models.StatusCompleted)
	require.NoError(t, db.Model(&models.Booking{}).Where("id = ?", paid.ID).
		Update("payment_status", models.PaymentPaid).Error)
	seedBooking(t, db, student.ID, models.StatusCompleted) // unpaid
	seedBooking(t, db, student.ID, models.StatusInProgress)

	w := doJSON(r, "GET", "/admin/payment-receipts", &admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	list := parseBody(t, w)["data"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, float64(paid.ID), list[0].(map[string]interface{})["id"])
}
