package service

import (
	"errors"

	"expense-manager/models"

	"gorm.io/gorm"
)

func loadUser(tx *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := tx.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user")
		}
		return nil, storageError("load user", err)
	}
	return &user, nil
}

// householdMembers returns every member of the owner's household ordered by id
func householdMembers(tx *gorm.DB, owner *models.User) ([]models.User, error) {
	var members []models.User
	if err := tx.Where("household_id = ?", owner.HouseholdID).Order("id").Find(&members).Error; err != nil {
		return nil, storageError("load household members", err)
	}
	return members, nil
}

// checkBeneficiary a beneficiary must exist and share the owner's household
func checkBeneficiary(tx *gorm.DB, owner *models.User, beneficiaryID uint) error {
	if beneficiaryID == owner.ID {
		return nil
	}
	var user models.User
	err := tx.Where("id = ? AND household_id = ?", beneficiaryID, owner.HouseholdID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return validationError("beneficiary %d is not a member of your household", beneficiaryID)
	}
	if err != nil {
		return storageError("load beneficiary", err)
	}
	return nil
}
