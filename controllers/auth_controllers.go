package controllers

import (
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	cryptorand "crypto/rand"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/CyberMehedi/F-Year/models"
	"github.com/CyberMehedi/F-Year/services"
	"github.com/CyberMehedi/F-Year/utils"
)

const (
	refreshTokenTTL = 7 * 24 * time.Hour
	// A replayed rotation inside this window returns the previous result
	// instead of failing, so concurrent requests racing an expired access
	// token do not log the user out.
	refreshReplayGrace = 30 * time.Second

	resetCodeTTL = 10 * time.Minute
)

type AuthController struct {
	DB       *gorm.DB
	Notifier *services.Notifier
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{DB: db, Notifier: services.NewNotifier(db)}
}

// RegisterStudent creates a STUDENT user with its profile.
func (ac *AuthController) RegisterStudent(c *gin.Context) {
	type request struct {
		Name            string `json:"name"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
		StudentID       string `json:"student_id"`
		Block           string `json:"block"`
		RoomNumber      string `json:"room_number"`
		Phone           string `json:"phone"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	fields := utils.FieldErrors{}
	if req.Name == "" {
		fields["name"] = "Name is required."
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		fields["email"] = "A valid email address is required."
	}
	if len(req.Password) < 8 {
		fields["password"] = "Password must be at least 8 characters."
	}
	if req.Password != req.ConfirmPassword {
		fields["confirm_password"] = "Password fields didn't match."
	}
	if !utils.StudentIDPattern.MatchString(req.StudentID) {
		fields["student_id"] = "Student ID must be in format: AIU followed by 8 digits (e.g., AIU23102325)"
	}
	if !utils.BlockPattern.MatchString(req.Block) {
		fields["block"] = "Block must be in format: 2 digits followed by 1 uppercase letter (e.g., 25E)"
	}
	if !utils.RoomPattern.MatchString(req.RoomNumber) {
		fields["room_number"] = "Room number must be in format: 2 digits, 1 letter, dash, 2 digits, dash, 2 digits (e.g., 25E-04-10)"
	}
	if len(fields) > 0 {
		utils.RespondValidationError(c, fields)
		return
	}

	var count int64
	ac.DB.Model(&models.StudentProfile{}).Where("student_id = ?", req.StudentID).Count(&count)
	if count > 0 {
		utils.RespondValidationError(c, utils.FieldErrors{"student_id": "This student ID is already registered."})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	user := models.User{
		Name:     req.Name,
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: string(hashed),
		Role:     models.RoleStudent,
		IsActive: true,
	}
	if err := ac.DB.Create(&user).Error; err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("email already registered"))
		return
	}

	profile := models.StudentProfile{
		UserID:     user.ID,
		StudentID:  req.StudentID,
		Block:      req.Block,
		RoomNumber: req.RoomNumber,
		Phone:      req.Phone,
	}
	if err := ac.DB.Create(&profile).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	user.StudentProfile = &profile

	ac.Notifier.Welcome(user)
	utils.InfoLogger.Printf("New student registered: %s (%s)", user.Email, req.StudentID)

	ac.respondWithTokens(c, http.StatusCreated, user)
}

// RegisterCleaner creates a CLEANER user with its profile.
func (ac *AuthController) RegisterCleaner(c *gin.Context) {
	type request struct {
		Name            string `json:"name"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
		StaffID         string `json:"staff_id"`
		Phone           string `json:"phone"`
		AssignedBlocks  string `json:"assigned_blocks"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	fields := utils.FieldErrors{}
	if req.Name == "" {
		fields["name"] = "Name is required."
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		fields["email"] = "A valid email address is required."
	}
	if len(req.Password) < 8 {
		fields["password"] = "Password must be at least 8 characters."
	}
	if req.Password != req.ConfirmPassword {
		fields["confirm_password"] = "Password fields didn't match."
	}
	if req.StaffID == "" {
		fields["staff_id"] = "Staff ID is required."
	}
	if req.Phone == "" {
		fields["phone"] = "Phone is required."
	}
	for _, block := range strings.Split(req.AssignedBlocks, ",") {
		block = strings.TrimSpace(block)
		if block != "" && !utils.BlockPattern.MatchString(block) {
			fields["assigned_blocks"] = "Blocks must be comma-separated codes like 25E,26F"
		}
	}
	if len(fields) > 0 {
		utils.RespondValidationError(c, fields)
		return
	}

	var count int64
	ac.DB.Model(&models.CleanerProfile{}).Where("staff_id = ?", req.StaffID).Count(&count)
	if count > 0 {
		utils.RespondValidationError(c, utils.FieldErrors{"staff_id": "This staff ID is already registered."})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	user := models.User{
		Name:     req.Name,
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: string(hashed),
		Role:     models.RoleCleaner,
		IsActive: true,
	}
	if err := ac.DB.Create(&user).Error; err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("email already registered"))
		return
	}

	profile := models.CleanerProfile{
		UserID:         user.ID,
		StaffID:        req.StaffID,
		Phone:          req.Phone,
		AssignedBlocks: req.AssignedBlocks,
		IsActive:       true,
	}
	if err := ac.DB.Create(&profile).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	user.CleanerProfile = &profile

	ac.Notifier.Welcome(user)
	utils.InfoLogger.Printf("New cleaner registered: %s (%s)", user.Email, req.StaffID)

	ac.respondWithTokens(c, http.StatusCreated, user)
}

// Login authenticates a user. The requested role must match the account's
// role so a student cannot enter through the cleaner portal.
func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	if err := ac.DB.Preload("StudentProfile").Preload("CleanerProfile").
		Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).
		First(&user).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	if user.Role != input.Role {
		utils.RespondError(c, http.StatusForbidden,
			fmt.Errorf("this account is not registered as a %s", strings.ToLower(input.Role)))
		return
	}

	if !user.IsActive {
		utils.RespondError(c, http.StatusForbidden, errors.New("this account has been deactivated"))
		return
	}

	utils.InfoLogger.Printf("Login successful for %s (role=%s)", user.Email, user.Role)
	ac.respondWithTokens(c, http.StatusOK, user)
}

// Me returns the authenticated user with its profile.
func (ac *AuthController) Me(c *gin.Context) {
	userID := c.GetUint("user_id")

	var user models.User
	if err := ac.DB.Preload("StudentProfile").Preload("CleanerProfile").First(&user, userID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Current user", user)
}

// RefreshToken rotates a single-use refresh token into a new token pair.
func (ac *AuthController) RefreshToken(c *gin.Context) {
	var input struct {
		Refresh string `json:"refresh" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var stored models.RefreshToken
	if err := ac.DB.Where("token = ?", input.Refresh).First(&stored).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid refresh token"))
		return
	}

	if stored.IsExpired() {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("refresh token expired"))
		return
	}

	if stored.IsUsed {
		// Tolerate a replay briefly: hand back the successor pair's access
		// token so a concurrent retry does not clear the session.
		if stored.UsedAt != nil && time.Since(*stored.UsedAt) < refreshReplayGrace && stored.RotatedTo != "" {
			var user models.User
			if err := ac.DB.First(&user, stored.UserID).Error; err != nil {
				utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid refresh token"))
				return
			}
			access, err := utils.GenerateToken(user.ID, user.Role)
			if err != nil {
				utils.RespondError(c, http.StatusInternalServerError, err)
				return
			}
			utils.RespondJSON(c, http.StatusOK, "Token refreshed", gin.H{
				"access":  access,
				"refresh": stored.RotatedTo,
			})
			return
		}
		utils.RespondError(c, http.StatusUnauthorized, errors.New("refresh token already used"))
		return
	}

	var user models.User
	if err := ac.DB.First(&user, stored.UserID).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid refresh token"))
		return
	}
	if !user.IsActive {
		utils.RespondError(c, http.StatusForbidden, errors.New("this account has been deactivated"))
		return
	}

	newRefresh, err := ac.issueRefreshToken(user.ID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	now := time.Now()
	// Mark the old token used, but only if nobody beat us to it.
	res := ac.DB.Model(&models.RefreshToken{}).
		Where("id = ? AND is_used = ?", stored.ID, false).
		Updates(map[string]interface{}{"is_used": true, "used_at": now, "rotated_to": newRefresh})
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("refresh token already used"))
		return
	}

	access, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Token refreshed", gin.H{
		"access":  access,
		"refresh": newRefresh,
	})
}

// ForgotPassword emails a 6-digit OTP. The response never reveals whether
// the account exists.
func (ac *AuthController) ForgotPassword(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	var user models.User
	if err := ac.DB.Where("email = ?", email).First(&user).Error; err != nil {
		utils.InfoLogger.Printf("Password reset attempt for unknown email: %s", email)
		utils.RespondJSON(c, http.StatusOK,
			"If an account exists with this email, a verification code has been sent.", nil)
		return
	}

	code, err := generateResetCode()
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	reset := models.PasswordResetCode{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: time.Now().Add(resetCodeTTL),
	}
	if err := ac.DB.Create(&reset).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Password reset code issued for %s", user.Email)

	utils.RespondJSON(c, http.StatusOK,
		"A verification code has been sent to your email. Please check your inbox.",
		gin.H{"email": user.Email})
}

// ResetPassword consumes an OTP and sets the new password.
func (ac *AuthController) ResetPassword(c *gin.Context) {
	var input struct {
		Email           string `json:"email" binding:"required"`
		Code            string `json:"code" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
		ConfirmPassword string `json:"confirm_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	fields := utils.FieldErrors{}
	if !utils.OTPPattern.MatchString(input.Code) {
		fields["code"] = "Code must be exactly 6 digits."
	}
	if len(input.NewPassword) < 8 {
		fields["new_password"] = "Password must be at least 8 characters."
	}
	if input.NewPassword != input.ConfirmPassword {
		fields["confirm_password"] = "Passwords do not match."
	}
	if len(fields) > 0 {
		utils.RespondValidationError(c, fields)
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	var user models.User
	if err := ac.DB.Where("email = ?", email).First(&user).Error; err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid verification code"))
		return
	}

	var reset models.PasswordResetCode
	if err := ac.DB.Where("user_id = ? AND code = ?", user.ID, input.Code).
		Order("created_at DESC").First(&reset).Error; err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid verification code"))
		return
	}
	if !reset.IsValid() {
		utils.RespondError(c, http.StatusBadRequest, errors.New("verification code expired or already used"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if err := ac.DB.Model(&user).Update("password", string(hashed)).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	ac.DB.Model(&reset).Update("is_used", true)

	utils.InfoLogger.Printf("Password reset successful for %s", user.Email)
	utils.RespondJSON(c, http.StatusOK,
		"Your password has been reset successfully. You can now log in with your new password.", nil)
}

func (ac *AuthController) respondWithTokens(c *gin.Context, code int, user models.User) {
	access, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	refresh, err := ac.issueRefreshToken(user.ID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, code, "Authenticated", gin.H{
		"user":    user,
		"access":  access,
		"refresh": refresh,
	})
}

func (ac *AuthController) issueRefreshToken(userID uint) (string, error) {
	token, err := utils.NewOpaqueToken()
	if err != nil {
		return "", err
	}
	rt := models.RefreshToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}
	if err := ac.DB.Create(&rt).Error; err != nil {
		return "", err
	}
	return token, nil
}

func generateResetCode() (string, error) {
	n, err := cryptorand.Int(cryptorand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
