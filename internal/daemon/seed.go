package daemon

import (
	"gorm.io/gorm"

	"github.com/hindterminals/workpermit/internal/config"
	"github.com/hindterminals/workpermit/internal/db/models"
)

func seed(_ *config.Config, db *gorm.DB) {
	// Seed the fixed roles if the role table is empty. The IDs are
	// stable because the stage and close mappings key on them.
	var roleCount int64
	db.Model(&models.Role{}).Count(&roleCount)
	if roleCount == 0 {
		db.Create([]models.Role{
			{ID: models.RoleFiller, Name: "filler", Description: "Raises permits and closes the issuer part"},
			{ID: models.RoleUser, Name: "user", Description: "Acts as the receiver stage"},
			{ID: models.RoleAdmin, Name: "admin", Description: "Acts as the reviewer stage"},
			{ID: models.RoleSuperadmin, Name: "superadmin", Description: "Acts as the approver stage and finalizes closes"},
			{ID: models.RoleIsolation, Name: "isolation", Description: "Acts as the energy isolation stage"},
		})
	}

	// Seed initial data if user table is empty
	var count int64
	db.Model(&models.User{}).Count(&count)
	if count == 0 {
		db.Create(
			&models.User{
				Username: "admin",
				Password: models.HashPassword("changeme"),
				Active:   true,
				RoleID:   models.RoleSuperadmin,
			},
		)
	}
}
