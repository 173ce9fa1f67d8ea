package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/CyberMehedi/F-Year/models"
	"github.com/CyberMehedi/F-Year/utils"
)

type ProfileController struct {
	DB *gorm.DB
}

func NewProfileController(db *gorm.DB) *ProfileController {
	return &ProfileController{DB: db}
}

// GetStudentProfile returns the caller's account plus student profile.
func (pc *ProfileController) GetStudentProfile(c *gin.Context) {
	userID := c.GetUint("user_id")

	var user models.User
	if err := pc.DB.Preload("StudentProfile").First(&user, userID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if user.StudentProfile == nil {
		utils.RespondError(c, http.StatusNotFound, gorm.ErrRecordNotFound)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Student profile", user)
}

// UpdateStudentProfile changes name, phone, block and room. Student id and
// email are fixed at registration.
func (pc *ProfileController) UpdateStudentProfile(c *gin.Context) {
	userID := c.GetUint("user_id")

	var input struct {
		Name       *string `json:"name"`
		Phone      *string `json:"phone"`
		Block      *string `json:"block"`
		RoomNumber *string `json:"room_number"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	fieldErrs := utils.FieldErrors{}
	if input.Block != nil && !utils.BlockPattern.MatchString(*input.Block) {
		fieldErrs["block"] = "Block must be two digits followed by a letter, e.g. 25E."
	}
	if input.RoomNumber != nil && !utils.RoomPattern.MatchString(*input.RoomNumber) {
		fieldErrs["room_number"] = "Room must look like 25E-03-11."
	}
	if input.Phone != nil && !utils.PhonePattern.MatchString(*input.Phone) {
		fieldErrs["phone"] = "Enter a valid phone number."
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		fieldErrs["name"] = "Name cannot be empty."
	}
	if len(fieldErrs) > 0 {
		utils.RespondValidationError(c, fieldErrs)
		return
	}

	var user models.User
	if err := pc.DB.Preload("StudentProfile").First(&user, userID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if user.StudentProfile == nil {
		utils.RespondError(c, http.StatusNotFound, gorm.ErrRecordNotFound)
		return
	}

	if input.Name != nil {
		if err := pc.DB.Model(&user).Update("name", strings.TrimSpace(*input.Name)).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	}

	profileUpdates := map[string]interface{}{}
	if input.Phone != nil {
		profileUpdates["phone"] = *input.Phone
	}
	if input.Block != nil {
		profileUpdates["block"] = *input.Block
	}
	if input.RoomNumber != nil {
		profileUpdates["room_number"] = *input.RoomNumber
	}
	if len(profileUpdates) > 0 {
		if err := pc.DB.Model(user.StudentProfile).Updates(profileUpdates).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	}

	pc.DB.Preload("StudentProfile").First(&user, userID)
	utils.RespondJSON(c, http.StatusOK, "Profile updated", user)
}

// GetCleanerProfile returns the caller's account plus cleaner profile.
func (pc *ProfileController) GetCleanerProfile(c *gin.Context) {
	userID := c.GetUint("user_id")

	var user models.User
	if err := pc.DB.Preload("CleanerProfile").First(&user, userID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if user.CleanerProfile == nil {
		utils.RespondError(c, http.StatusNotFound, gorm.ErrRecordNotFound)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Cleaner profile", user)
}

// UpdateCleanerProfile changes name, phone and assigned blocks. Staff id is
// fixed at registration; activation is controlled by admins.
func (pc *ProfileController) UpdateCleanerProfile(c *gin.Context) {
	userID := c.GetUint("user_id")

	var input struct {
		Name           *string  `json:"name"`
		Phone          *string  `json:"phone"`
		AssignedBlocks []string `json:"assigned_blocks"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	fieldErrs := utils.FieldErrors{}
	if input.Phone != nil && !utils.PhonePattern.MatchString(*input.Phone) {
		fieldErrs["phone"] = "Enter a valid phone number."
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		fieldErrs["name"] = "Name cannot be empty."
	}
	for _, block := range input.AssignedBlocks {
		if !utils.BlockPattern.MatchString(block) {
			fieldErrs["assigned_blocks"] = "Each block must be two digits followed by a letter, e.g. 25E."
			break
		}
	}
	if len(fieldErrs) > 0 {
		utils.RespondValidationError(c, fieldErrs)
		return
	}

	var user models.User
	if err := pc.DB.Preload("CleanerProfile").First(&user, userID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if user.CleanerProfile == nil {
		utils.RespondError(c, http.StatusNotFound, gorm.ErrRecordNotFound)
		return
	}

	if input.Name != nil {
		if err := pc.DB.Model(&user).Update("name", strings.TrimSpace(*input.Name)).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	}

	profileUpdates := map[string]interface{}{}
	if input.Phone != nil {
		profileUpdates["phone"] = *input.Phone
	}
	if input.AssignedBlocks != nil {
		profileUpdates["assigned_blocks"] = strings.Join(input.AssignedBlocks, ",")
	}
	if len(profileUpdates) > 0 {
		if err := pc.DB.Model(user.CleanerProfile).Updates(profileUpdates).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	}

	pc.DB.Preload("CleanerProfile").First(&user, userID)
	utils.RespondJSON(c, http.StatusOK, "Profile updated", user)
}
