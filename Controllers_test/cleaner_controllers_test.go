package Controllers_test

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyberMehedi/F-Year/models"
)

func TestAcceptBookingFirstWins(t *testing.T) {
	db := setupTestDB(t)
	r := setupAPIRouter(db)
	student := seedStudent(t, db, "race@student.aiu.edu.my", "AIU23100020")
	first := seedCleaner(t, db, "fast@aiu.edu.my", "CLN-100")
	second := seedCleaner(t, db, "slow@aiu.edu.my", "CLN-101")

	booking := seedBooking(t, db, student.ID, models.StatusWaitingForCleaner)
	acceptURL := fmt.Sprintf("/cleaner/bookings/%d/accept", booking.ID)

	w := doJSON(r, "POST", acceptURL, &first, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The loser gets a conflict, not a silent steal.
	w = doJSON(r, "POST", acceptURL, &second, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	body := parseBody(t, w)
	assert.Contains(t, body["message"], "already been accepted")

	var updated models.Booking
	require.NoError(t, db.First(&updated, booking.ID).Error)
	assert.Equal(t, models.StatusAssigned, updated.Status)
	require.NotNil(t, updated.AssignedCleanerID)
	assert.Equal(t, first.ID, *updated.AssignedCleanerID)

	// Accepting again, even by the winner, is still a conflict.
	w = doJSON(r, "POST", acceptURL, &first, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAcceptBookingConcurrent(t *testing.T) {
	db := setupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	r := setupAPIRouter(db)
	student := seedStudent(t, db, "parallel@student.aiu.edu.my", "AIU23100025")
	cleaners := []models.User{
		seedCleaner(t, db, "racer-a@aiu.edu.my", "CLN-150"),
		seedCleaner(t, db, "racer-b@aiu.edu.my", "CLN-151"),
	}

	booking := seedBooking(t, db, student.ID, models.StatusWaitingForCleaner)
	acceptURL := fmt.Sprintf("/cleaner/bookings/%d/accept", booking.ID)

	codes := make(chan int, len(cleaners))
	var wg sync.WaitGroup
	for i := range cleaners {
		wg.Add(1)
		go func(cl *models.User) {
			defer wg.Done()
			codes <- doJSON(r, "POST", acceptURL, cl, nil).Code
		}(&cleaners[i])
	}
	wg.Wait()
	close(codes)

	var wins, conflicts int
	for code := range codes {
		switch code {
		case http.StatusOK:
			wins++
		case http.StatusConflict:
			conflicts++
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)

	var updated models.Booking
	require.NoError(t, db.First(&updated, booking.ID).Error)
	assert.Equal(t, models.StatusAssigned, updated.Status)
	require.NotNil(t, updated.AssignedCleanerID)
	assert.Contains(t, []uint{cleaners[0].ID, cleaners[1].ID}, *updated.AssignedCleanerID)
}

func TestInactiveCleanerCannotAccept(t *testing.T) {
	db := setupTestDB(t)
	r := setupAPIRouter(db)
	student := seedStudent(t, db, "offduty@student.aiu.edu.my", "AIU23100026")
	cleaner := seedCleaner(t, db, "offduty@aiu.edu.my", "CLN-160")

	require.NoError(t, db.Model(&models.CleanerProfile{}).
		Where("user_id = ?", cleaner.ID).Update("is_active", false).Error)

	booking := seedBooking(t, db, student.ID, models.StatusWaitingForCleaner)

	w := doJSON(r, "POST", fmt.Sprintf("/cleaner/bookings/%d/accept", booking.ID), &cleaner, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	var unchanged models.Booking
	require.NoError(t, db.First(&unchanged, booking.ID).Error)
	assert.Equal(t, models.StatusWaitingForCleaner, unchanged.Status)
	assert.Nil(t, unchanged.AssignedCleanerID)

	// Reactivating restores eligibility.
	require.NoError(t, db.Model(&models.CleanerProfile{}).
		Where("user_id = ?", cleaner.ID).Update("is_active", true).Error)
	w = doJSON(r, "POST", fmt.Sprintf("/cleaner/bookings/%d/accept", booking.ID), &cleaner, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAcceptWithdrawsOtherCleanersNotifications(t *testing.T) {
	db := setupTestDB(t)
	r := setupAPIRouter(db)
	student := seedStudent(t, db, "fanout@student.aiu.edu.my", "AIU23100021")
	winner := seedCleaner(t, db, "winner@aiu.edu.my", "CLN-110")
	loser := seedCleaner(t, db, "loser@aiu.edu.my", "CLN-111")

	// Creating through the API fans NEW_BOOKING out to both cleaners.
	w := doJSON(r, "POST", "/bookings", &student, map[string]interface{}{
		"booking_type":   models.BookingTypeStandard,
		"preferred_date": time.Now().AddDate(0, 0, 2).Format("2006-01-02"),
		"preferred_time": "09:00",
		"block":          "25E",
		"room_number":    "25E-04-10",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	bookingID := uint(parseBody(t, w)["data"].(map[string]interface{})["id"].(float64))

	var before int64
	db.Model(&models.Notification{}).
		Where("booking_id = ? AND notification_type = ?", bookingID, models.NotifNewBooking).
		Count(&before)
	require.Equal(t, int64(2), before)

	w = doJSON(r, "POST", fmt.Sprintf("/cleaner/bookings/%d/accept", bookingID), &winner, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The loser's invitation is gone.
	var loserLeft int64
	db.Model(&models.Notification{}).
		Where("user_id = ? AND booking_id = ? AND notification_type = ?",
			loser.ID, bookingID, models.NotifNewBooking).
		Count(&loserLeft)
	assert.Zero(t, loserLeft)

	// The student heard about the acceptance.
	var accepted int64
	db.Model(&models.Notification{}).
		Where("user_id = ? AND booking_id = ? AND notification_type = ?",
			student.ID, bookingID, models.NotifBookingAccepted).
		Count(&accepted)
	assert.Equal(t, int64(1), accepted)
}

func TestNewRequestsOrdering(t *testing.T) {
	db := setupTestDB(t)
	r := setupAPIRouter(db)
	student := seedStudent(t, db, "queue@student.aiu.edu.my", "AIU23100022")
	cleaner := seedCleaner(t, db, "queue@aiu.edu.my", "CLN-120")

	later := seedBooking(t, db, student.ID, models.StatusWaitingForCleaner)
	require.NoError(t, db.Model(&models.Booking{}).Where("id = ?", later.ID).
		Updates(map[string]interface{}{"preferred_date": "2030-06-20", "preferred_time": "15:00"}).Error)
	sooner := seedBooking(t, db, student.ID, models.StatusWaitingForCleaner)
	require.NoError(t, db.Model(&models.Booking{}).Where("id = ?", sooner.ID).
		Updates(map[string]interface{}{"preferred_date": "2030-06-10", "preferred_time": "08:30"}).Error)
	seedBooking(t, db, student.ID, models.StatusAssigned)

	w := doJSON(r, "GET", "/cleaner/tasks/new", &cleaner, nil)
	require.Equal(t, http.StatusOK, w.Code)

	list := parseBody(t, w)["data"].([]interface{})
	require.Len(t, list, 2)
	firstID := uint(list[0].(map[string]interface{})["id"].(float64))
	assert.Equal(t, sooner.ID, firstID)
}

func TestCleanerTaskViews(t *testing.T) {
	db := setupTestDB(t)
	r := setupAPIRouter(db)
	student := seedStudent(t, db, "tasks@student.aiu.edu.my", "AIU23100023")
	cleaner := seedCleaner(t, db, "tasks@aiu.edu.my", "CLN-130")

	today := time.Now().Format("2006-01-02")

	assign := func(status, date string) models.Booking {
		b := seedBooking(t, db, student.ID, status)
		require.NoError(t, db.Model(&models.Booking{}).Where("id = ?", b.ID).
			Updates(map[string]interface{}{
				"assigned_cleaner_id": cleaner.ID,
				"preferred_date":      date,
			}).Error)
		return b
	}

	assign(models.StatusAssigned, today)
	assign(models.StatusInProgress, today)
	assign(models.StatusAssigned, "2030-06-15")
	assign(models.StatusCompleted, today)
	seedBooking(t, db, student.ID, models.StatusWaitingForCleaner)

	w := doJSON(r, "GET", "/cleaner/tasks/today", &cleaner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, parseBody(t, w)["data"].([]interface{}), 2)

	w = doJSON(r, "GET", "/cleaner/tasks/all", &cleaner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, parseBody(t, w)["data"].([]interface{}), 4)

	w = doJSON(r, "GET", "/cleaner/history", &cleaner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, parseBody(t, w)["data"].([]interface{}), 1)

	// Students are blocked from the cleaner board.
	w = doJSON(r, "GET", "/cleaner/tasks/today", &student, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCleanerStats(t *testing.T) {
	db := setupTestDB(t)
	r := setupAPIRouter(db)
	student := seedStudent(t, db, "stats@student.aiu.edu.my", "AIU23100024")
	cleaner := seedCleaner(t, db, "stats@aiu.edu.my", "CLN-140")

	for i := 0; i < 3; i++ {
		b := seedBooking(t, db, student.ID, models.StatusCompleted)
		require.NoError(t, db.Model(&models.Booking{}).Where("id = ?", b.ID).
			Update("assigned_cleaner_id", cleaner.ID).Error)
	}

	w := doJSON(r, "GET", "/cleaner/stats", &cleaner, nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := parseBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["completed_today"])
	assert.Equal(t, float64(3), data["completed_week"])
	assert.Equal(t, float64(3), data["completed_month"])
}
