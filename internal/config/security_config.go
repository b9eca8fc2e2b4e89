package config

import "github.com/spf13/viper"

const (
	bcryptCostEnvVar    = "BCRYPT_COST"
	openAdminRegEnvVar  = "ALLOW_OPEN_ADMIN_REGISTRATION"
	adminEmailEnvVar    = "ADMIN_EMAIL"
	adminPasswordEnvVar = "ADMIN_PASSWORD"
	adminNameEnvVar     = "ADMIN_NAME"
	maxBodyBytesEnvVar  = "MAX_BODY_BYTES"
)

type SecurityConfig interface {
	GetBcryptCost() int
	// GetAllowOpenAdminRegistration lets anonymous callers use /auth/register-admin
	GetAllowOpenAdminRegistration() bool
	GetAdminEmail() string
	GetAdminPassword() string
	GetAdminName() string
	GetMaxBodyBytes() int64
}

type Security struct {
	bcryptCost    int
	openAdminReg  bool
	adminEmail    string
	adminPassword string
	adminName     string
	maxBodyBytes  int64
}

var _ SecurityConfig = Security{}

func loadSecurity(v *viper.Viper) Security {
	return Security{
		bcryptCost:    v.GetInt(bcryptCostEnvVar),
		openAdminReg:  v.GetBool(openAdminRegEnvVar),
		adminEmail:    v.GetString(adminEmailEnvVar),
		adminPassword: v.GetString(adminPasswordEnvVar),
		adminName:     v.GetString(adminNameEnvVar),
		maxBodyBytes:  v.GetInt64(maxBodyBytesEnvVar),
	}
}

func (s Security) GetBcryptCost() int {
	return s.bcryptCost
}

func (s Security) GetAllowOpenAdminRegistration() bool {
	return s.openAdminReg
}

func (s Security) GetAdminEmail() string {
	return s.adminEmail
}

func (s Security) GetAdminPassword() string {
	return s.adminPassword
}

func (s Security) GetAdminName() string {
	return s.adminName
}

func (s Security) GetMaxBodyBytes() int64 {
	return s.maxBodyBytes
}
