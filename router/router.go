package router

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/CyberMehedi/F-Year/controllers"
	"github.com/CyberMehedi/F-Year/middlewares"
	"github.com/CyberMehedi/F-Year/models"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.Default()

	workDir, _ := os.Getwd()
	uploadsPath := filepath.Join(workDir, "public", "uploads")
	r.Static("/uploads", uploadsPath)

	// Only image files may be fetched from the uploads directory.
	r.Use(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/uploads/") {
			p := strings.ToLower(c.Request.URL.Path)
			if !strings.HasSuffix(p, ".jpg") &&
				!strings.HasSuffix(p, ".jpeg") &&
				!strings.HasSuffix(p, ".png") &&
				!strings.HasSuffix(p, ".gif") &&
				!strings.HasSuffix(p, ".webp") {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
		}
		c.Next()
	})

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	authCtrl := controllers.NewAuthController(db)
	bookingCtrl := controllers.NewBookingController(db)
	cleanerCtrl := controllers.NewCleanerController(db)
	paymentCtrl := controllers.NewPaymentController(db)
	issueCtrl := controllers.NewIssueController(db)
	notificationCtrl := controllers.NewNotificationController(db)
	adminCtrl := controllers.NewAdminController(db)
	profileCtrl := controllers.NewProfileController(db)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Login and registration sit behind the strict limiter.
	public := r.Group("/auth")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register/student", authCtrl.RegisterStudent)
		public.POST("/register/cleaner", authCtrl.RegisterCleaner)
		public.POST("/login", authCtrl.Login)
		public.POST("/token/refresh", authCtrl.RefreshToken)
		public.POST("/forgot-password", authCtrl.ForgotPassword)
		public.POST("/reset-password", authCtrl.ResetPassword)
	}

	r.GET("/events/ws", middlewares.WebSocketAuthMiddleware(), controllers.EventsHandler)

	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware())
	{
		auth.GET("/auth/me", authCtrl.Me)

		// Bookings
		auth.GET("/bookings", bookingCtrl.GetAllBookings)
		auth.POST("/bookings", middlewares.RequireRole(models.RoleStudent), bookingCtrl.CreateBooking)
		auth.GET("/bookings/:booking_id", bookingCtrl.GetBookingByID)
		auth.PUT("/bookings/:booking_id", middlewares.RequireRole(models.RoleStudent), bookingCtrl.UpdateBooking)
		auth.PATCH("/bookings/:booking_id", middlewares.RequireRole(models.RoleStudent), bookingCtrl.UpdateBooking)
		auth.POST("/bookings/:booking_id/assign_cleaner", middlewares.RequireRole(models.RoleAdmin), bookingCtrl.AssignCleaner)
		auth.POST("/bookings/:booking_id/update_status", bookingCtrl.UpdateStatus)
		auth.GET("/bookings/my_bookings", middlewares.RequireRole(models.RoleStudent), bookingCtrl.MyBookings)
		auth.GET("/bookings/history", middlewares.RequireRole(models.RoleStudent), bookingCtrl.History)

		// Payments
		auth.POST("/bookings/:booking_id/payment/offline", middlewares.RequireRole(models.RoleStudent), paymentCtrl.MarkOfflinePayment)
		auth.POST("/bookings/:booking_id/payment/receipt", middlewares.RequireRole(models.RoleStudent), paymentCtrl.UploadPaymentReceipt)

		// Cleaner task board
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

		// Issues
		auth.GET("/issues", issueCtrl.GetAllIssues)
		auth.POST("/issues", middlewares.RequireRole(models.RoleCleaner), issueCtrl.CreateIssue)
		auth.GET("/issues/:issue_id", issueCtrl.GetIssueByID)
		auth.POST("/issues/:issue_id/update_status", middlewares.RequireRole(models.RoleAdmin), issueCtrl.UpdateStatus)
		auth.PATCH("/issues/:issue_id", middlewares.RequireRole(models.RoleAdmin), issueCtrl.UpdateStatus)

		// Notifications
		auth.GET("/notifications", notificationCtrl.GetAllNotifications)
		auth.POST("/notifications/:notification_id/mark_read", notificationCtrl.MarkRead)
		auth.POST("/notifications/mark_all_read", notificationCtrl.MarkAllRead)
		auth.GET("/notifications/unread_count", notificationCtrl.UnreadCount)

		// Admin reporting
		admin := auth.Group("/admin")
		admin.Use(middlewares.RequireRole(models.RoleAdmin))
		{
			admin.GET("/stats", adminCtrl.DashboardStats)
			admin.GET("/cleaners", adminCtrl.CleanersList)
			admin.GET("/cleaners/available", adminCtrl.AvailableCleaners)
			admin.POST("/cleaners/:cleaner_id/toggle-status", adminCtrl.ToggleCleanerStatus)
			admin.GET("/payment-receipts", adminCtrl.PaymentReceipts)
		}

		// Profiles
		auth.GET("/profile/student", middlewares.RequireRole(models.RoleStudent), profileCtrl.GetStudentProfile)
		auth.PUT("/profile/student", middlewares.RequireRole(models.RoleStudent), profileCtrl.UpdateStudentProfile)
		auth.GET("/profile/cleaner", middlewares.RequireRole(models.RoleCleaner), profileCtrl.GetCleanerProfile)
		auth.PUT("/profile/cleaner", middlewares.RequireRole(models.RoleCleaner), profileCtrl.UpdateCleanerProfile)
	}

	return r
}
