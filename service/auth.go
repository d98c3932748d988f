package service

import (
	"context"
	"errors"
	"strings"

	"expense-manager/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLen = 6

// RegisterInput 注册参数. An empty InviteCode creates a new household.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	InviteCode  string
}

// AuthService 用户认证服务
type AuthService struct {
	db   *gorm.DB
	cost int
}

// NewAuthService 创建认证服务
func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db, cost: bcrypt.DefaultCost}
}

// isDuplicateKey matches gorm's translated error and the raw driver messages
// of mysql (1062), postgres (23505) and sqlite
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register 注册新用户
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || len(email) > 100 {
		return nil, validationError("a valid email address is required")
	}
	if len(in.Password) < minPasswordLen {
		return nil, validationError("password must be at least %d characters", minPasswordLen)
	}
	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		name = email[:at]
	}
	if len(name) > 50 {
		return nil, validationError("display name must be at most 50 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, &Error{Kind: ErrValidation, Message: "password cannot be hashed", Err: err}
	}

	user := models.User{
		Email:       email,
		Password:    string(hashed),
		DisplayName: name,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return storageError("check email", err)
		}
		if count > 0 {
			return validationError("email %s is already registered", email)
		}

		code := strings.TrimSpace(in.InviteCode)
		if code != "" {
			var household models.Household
			if err := tx.Where("invite_code = ?", code).First(&household).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return validationError("invalid invite code")
				}
				return storageError("load household", err)
			}
			user.HouseholdID = household.ID
		} else {
			invite, err := models.GenerateInviteCode()
			if err != nil {
				return storageError("generate invite code", err)
			}
			household := models.Household{Name: name + "'s household", InviteCode: invite}
			if err := tx.Create(&household).Error; err != nil {
				return storageError("create household", err)
			}
			user.HouseholdID = household.ID
		}

		if err := tx.Omit("Household").Create(&user).Error; err != nil {
			// a concurrent registration won the unique index
			if isDuplicateKey(err) {
				return validationError("email %s is already registered", email)
			}
			return storageError("create user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login 校验邮箱和密码
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &Error{Kind: ErrAuth, Message: "invalid email or password"}
		}
		return nil, storageError("load user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, &Error{Kind: ErrAuth, Message: "invalid email or password"}
	}
	return &user, nil
}

// GetUser 获取用户信息
func (s *AuthService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return loadUser(s.db.WithContext(ctx), id)
}

// Household returns the user's household and its members
func (s *AuthService) Household(ctx context.Context, userID uint) (*models.Household, []models.User, error) {
	db := s.db.WithContext(ctx)
	user, err := loadUser(db, userID)
	if err != nil {
		return nil, nil, err
	}
	var household models.Household
	if err := db.First(&household, user.HouseholdID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, notFound("household")
		}
		return nil, nil, storageError("load household", err)
	}
	members, err := householdMembers(db, user)
	if err != nil {
		return nil, nil, err
	}
	return &household, members, nil
}
