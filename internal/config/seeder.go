package config

import (
	"log"
	"os"

	"courseflow/internal/adapters/persistence/models"
	"courseflow/internal/core/domain"
	"courseflow/internal/pkg/password"

	"gorm.io/gorm"
)

// SeedDefaultUsers seeds the admin account and, in dev mode, one actor per
// approval tier so the chain can be exercised end to end.
func SeedDefaultUsers(db *gorm.DB, cfg *Config) error {
	if err := seedAdmin(db); err != nil {
		return err
	}

	if cfg.IsDev() {
		if err := seedDevActors(db); err != nil {
			return err
		}
	}

	log.Println("✅ Default users seeded successfully")
	return nil
}

func seedAdmin(db *gorm.DB) error {
	var count int64
	db.Model(&models.User{}).Where("role = ?", string(domain.RoleAdmin)).Count(&count)
	if count > 0 {
		return nil
	}

	adminPass := os.Getenv("ADMIN_PASSWORD")
	if adminPass == "" {
		adminPass = "changeme-admin"
	}
	hashed, err := password.Hash(adminPass)
	if err != nil {
		return err
	}

	admin := &models.User{
		Name:     "System Admin",
		Email:    "admin@courseflow.local",
		Password: hashed,
		Role:     string(domain.RoleAdmin),
		IsActive: true,
	}
	return db.Create(admin).Error
}

func seedDevActors(db *gorm.DB) error {
	hashed, err := password.Hash("devpassword")
	if err != nil {
		return err
	}

	actors := []models.User{
		{Name: "Dev Instructor", Email: "instructor@courseflow.local", Role: string(domain.RoleInstructor), School: "Computing", Department: "Software Engineering"},
		{Name: "Dev Department Head", Email: "dept-head@courseflow.local", Role: string(domain.RoleDepartmentHead), School: "Computing", Department: "Software Engineering"},
		{Name: "Dev School Dean", Email: "dean@courseflow.local", Role: string(domain.RoleSchoolDean), School: "Computing"},
		{Name: "Dev Vice Scientific Director", Email: "vice-director@courseflow.local", Role: string(domain.RoleViceScientificDir)},
		{Name: "Dev Scientific Director", Email: "scientific-director@courseflow.local", Role: string(domain.RoleScientificDirector)},
		{Name: "Dev Finance Officer", Email: "finance@courseflow.local", Role: string(domain.RoleFinance)},
	}

	for _, actor := range actors {
		var count int64
		db.Model(&models.User{}).Where("email = ?", actor.Email).Count(&count)
		if count > 0 {
			continue
		}
		actor.Password = hashed
		actor.IsActive = true
		if err := db.Create(&actor).Error; err != nil {
			return err
		}
	}
	return nil
}
