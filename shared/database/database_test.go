package database

import (
	"context"
	"testing"

	"github.com/flathunt/platform/shared/config"
	"github.com/stretchr/testify/assert"
)

func TestOpen_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
		want string
	}{
		{
			name: "no url for mode",
			cfg:  &config.Config{NodeEnv: config.ModeProduction, StoreDriver: config.DriverMongo},
			want: "no database configured for production mode",
		},
		{
			name: "unknown driver",
			cfg:  &config.Config{NodeEnv: config.ModeDevelopment, DevelopmentDB: "x://y", StoreDriver: "sqlite"},
			want: `unknown store driver "sqlite"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), tt.cfg)
			assert.EqualError(t, err, tt.want)
		})
	}
}
