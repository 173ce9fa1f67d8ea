package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/CyberMehedi/F-Year/controllers"
	"github.com/CyberMehedi/F-Year/middlewares"
	"github.com/CyberMehedi/F-Year/models"
	"github.com/CyberMehedi/F-Year/utils"
)

var testDBCounter int64

// setupTestDB opens a fresh named in-memory SQLite database so tests do not
// share state.
func setupTestDB(t *testing.T) *gorm.DB {
	n := atomic.AddInt64(&testDBCounter, 1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.StudentProfile{},
		&models.CleanerProfile{},
		&models.Booking{},
		&models.Issue{},
		&models.Notification{},
		&models.PasswordResetCode{},
		&models.RefreshToken{},
	)
	require.NoError(t, err)

	return db
}

// testAuth stands in for the JWT middleware: identity comes from request
// headers instead of a token.
func testAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if idHeader := c.GetHeader("X-User-ID"); idHeader != "" {
			id, _ := strconv.Atoi(idHeader)
			c.Set("user_id", uint(id))
		}
		c.Set("role", c.GetHeader("X-Role"))
		c.Next()
	}
}

// setupAPIRouter wires every route under test with the header-based auth
// stand-in, mirroring the production route layout.
func setupAPIRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	utils.InitLogger()
	r := gin.New()

	authCtrl := controllers.NewAuthController(db)
	bookingCtrl := controllers.NewBookingController(db)
	cleanerCtrl := controllers.NewCleanerController(db)
	paymentCtrl := controllers.NewPaymentController(db)
	issueCtrl := controllers.NewIssueController(db)
	notificationCtrl := controllers.NewNotificationController(db)
	adminCtrl := controllers.NewAdminController(db)
	profileCtrl := controllers.NewProfileController(db)

	r.POST("/auth/register/student", authCtrl.RegisterStudent)
	r.POST("/auth/register/cleaner", authCtrl.RegisterCleaner)
	r.POST("/auth/login", authCtrl.Login)
	r.POST("/auth/token/refresh", authCtrl.RefreshToken)
	r.POST("/auth/forgot-password", authCtrl.ForgotPassword)
	r.POST("/auth/reset-password", authCtrl.ResetPassword)

	auth := r.Group("/")
	auth.Use(testAuth())
	{
		auth.GET("/auth/me", authCtrl.Me)

		auth.GET("/bookings", bookingCtrl.GetAllBookings)
		auth.POST("/bookings", middlewares.RequireRole(models.RoleStudent), bookingCtrl.CreateBooking)
		auth.GET("/bookings/:booking_id", bookingCtrl.GetBookingByID)
		auth.PUT("/bookings/:booking_id", middlewares.RequireRole(models.RoleStudent), bookingCtrl.UpdateBooking)
		auth.PATCH("/bookings/:booking_id", middlewares.RequireRole(models.RoleStudent), bookingCtrl.UpdateBooking)
		auth.POST("/bookings/:booking_id/assign_cleaner", middlewares.RequireRole(models.RoleAdmin), bookingCtrl.AssignCleaner)
		auth.POST("/bookings/:booking_id/update_status", bookingCtrl.UpdateStatus)
		auth.GET("/bookings/my_bookings", middlewares.RequireRole(models.RoleStudent), bookingCtrl.MyBookings)
		auth.GET("/bookings/history", middlewares.RequireRole(models.RoleStudent), bookingCtrl.History)

		auth.POST("/bookings/:booking_id/payment/offline", middlewares.RequireRole(models.RoleStudent), paymentCtrl.MarkOfflinePayment)
		auth.POST("/bookings/:booking_id/payment/receipt", middlewares.RequireRole(models.RoleStudent), paymentCtrl.UploadPaymentReceipt)

		cleaner := auth.Group("/cleaner")
		cleaner.Use(middlewares.RequireRole(models.RoleCleaner))
		{
			cleaner.GET("/tasks/new", cleanerCtrl.NewRequests)
			cleaner.POST("/bookings/:booking_id/accept", cleanerCtrl.AcceptBooking)
			cleaner.GET("/tasks/today", cleanerCtrl.TodayTasks)
			cleaner.GET("/tasks/all", cleanerCtrl.AllTasks)
			cleaner.GET("/history", cleanerCtrl.History)
			cleaner.GET("/stats", cleanerCtrl.Stats)
		}

		auth.GET("/issues", issueCtrl.GetAllIssues)
		auth.POST("/issues", middlewares.RequireRole(models.RoleCleaner), issueCtrl.CreateIssue)
		auth.GET("/issues/:issue_id", issueCtrl.GetIssueByID)
		auth.POST("/issues/:issue_id/update_status", middlewares.RequireRole(models.RoleAdmin), issueCtrl.UpdateStatus)
		auth.PATCH("/issues/:issue_id", middlewares.RequireRole(models.RoleAdmin), issueCtrl.UpdateStatus)

		auth.GET("/notifications", notificationCtrl.GetAllNotifications)
		auth.POST("/notifications/:notification_id/mark_read", notificationCtrl.MarkRead)
		auth.POST("/notifications/mark_all_read", notificationCtrl.MarkAllRead)
		auth.GET("/notifications/unread_count", notificationCtrl.UnreadCount)

		admin := auth.Group("/admin")
		admin.Use(middlewares.RequireRole(models.RoleAdmin))
		{
			admin.GET("/stats", adminCtrl.DashboardStats)
			admin.GET("/cleaners", adminCtrl.CleanersList)
			admin.GET("/cleaners/available", adminCtrl.AvailableCleaners)
			admin.POST("/cleaners/:cleaner_id/toggle-status", adminCtrl.ToggleCleanerStatus)
			admin.GET("/payment-receipts", adminCtrl.PaymentReceipts)
		}

		auth.GET("/profile/student", middlewares.RequireRole(models.RoleStudent), profileCtrl.GetStudentProfile)
		auth.PUT("/profile/student", middlewares.RequireRole(models.RoleStudent), profileCtrl.UpdateStudentProfile)
		auth.GET("/profile/cleaner", middlewares.RequireRole(models.RoleCleaner), profileCtrl.GetCleanerProfile)
		auth.PUT("/profile/cleaner", middlewares.RequireRole(models.RoleCleaner), profileCtrl.UpdateCleanerProfile)
	}

	return r
}

// doJSON performs a request as the given user (nil for anonymous) with an
// optional JSON body.
func doJSON(r *gin.Engine, method, path string, user *models.User, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("X-User-ID", strconv.Itoa(int(user.ID)))
		req.Header.Set("X-Role", user.Role)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func seedStudent(t *testing.T, db *gorm.DB, email, studentID string) models.User {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		Name:     "Test Student",
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleStudent,
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)

	profile := models.StudentProfile{
		UserID:     user.ID,
		StudentID:  studentID,
		Block:      "25E",
		RoomNumber: "25E-03-11",
		Phone:      "+60123456789",
	}
	require.NoError(t, db.Create(&profile).Error)
	user.StudentProfile = &profile
	return user
}

func seedCleaner(t *testing.T, db *gorm.DB, email, staffID string) models.User {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		Name:     "Test Cleaner",
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleCleaner,
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)

	profile := models.CleanerProfile{
		UserID:         user.ID,
		StaffID:        staffID,
		Phone:          "+60198765432",
		AssignedBlocks: "25E,26F",
		IsActive:       true,
	}
	require.NoError(t, db.Create(&profile).Error)
	user.CleanerProfile = &profile
	return user
}

func seedAdmin(t *testing.T, db *gorm.DB, email string) models.User {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		Name:     "Test Admin",
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedBooking(t *testing.T, db *gorm.DB, studentID uint, status string) models.Booking {
	booking := models.Booking{
		StudentID:     studentID,
		BookingType:   models.BookingTypeStandard,
		PreferredDate: "2030-06-15",
		PreferredTime: "10:00",
		UrgencyLevel:  models.UrgencyNormal,
		Block:         "25E",
		RoomNumber:    "25E-03-11",
		Status:        status,
		Price:         models.PriceForType(models.BookingTypeStandard),
		PaymentStatus: models.PaymentPending,
	}
	require.NoError(t, db.Create(&booking).Error)
	return booking
}
