package internal_test

import (
	"os"
	"time"

	"github.com/frahmantamala/school-admin/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func validConfig() *internal.Config {
	return &internal.Config{
		Server: internal.ServerConfig{
			AllowedOrigins:    "https://admin.school.test, *",
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
		},
		Database: internal.DatabaseConfig{
			Source:       "postgres://localhost:5432/school",
			MaxOpenConns: 10,
			MaxIdleConns: 2,
		},
		Security: internal.SecurityConfig{
			JWTSecret:            "0123456789abcdef0123456789abcdef",
			AccessTokenDuration:  15 * time.Minute,
			RefreshTokenDuration: 24 * time.Hour,
			BCryptCost:           12,
		},
	}
}

var _ = Describe("Config", func() {
	It("accepts a complete configuration", func() {
		Expect(validConfig().Validate()).To(Succeed())
	})

	It("refuses to start without a signing secret", func() {
		cfg := validConfig()
		cfg.Security.JWTSecret = ""
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("jwt_secret is required")))

		cfg.Security.JWTSecret = "short"
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("at least 32 characters")))
	})

	It("joins every failing section", func() {
		cfg := validConfig()
		cfg.Database.Source = ""
		cfg.Cache.Enabled = true

		err := cfg.Validate()
		Expect(err).To(MatchError(ContainSubstring("database config: source is required")))
		Expect(err).To(MatchError(ContainSubstring("cache config: address is required")))
	})

	It("rejects a refresh token shorter than the access token", func() {
		cfg := validConfig()
		cfg.Security.RefreshTokenDuration = time.Minute
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("refresh_token_duration")))
	})

	Context("from the environment", func() {
		BeforeEach(func() {
			for key, value := range map[string]string{
				"JWT_SECRET":    "env-secret-env-secret-env-secret!",
				"CACHE_ENABLED": "true",
				"CACHE_TTL":     "90s",
				"HTTP_PORT":     "not-a-number",
			} {
				Expect(os.Setenv(key, value)).To(Succeed())
				DeferCleanup(os.Unsetenv, key)
			}
		})

		It("reads overrides and keeps defaults for unparsable values", func() {
			cfg := internal.LoadConfigFromEnv()

			Expect(cfg.Security.JWTSecret).To(Equal("env-secret-env-secret-env-secret!"))
			Expect(cfg.Cache.Enabled).To(BeTrue())
			Expect(cfg.Cache.TTL).To(Equal(90 * time.Second))
			Expect(cfg.Cache.KeyPrefix).To(Equal("school:perm"))
			Expect(cfg.Server.Port).To(Equal(8080))
		})
	})
})
