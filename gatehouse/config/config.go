package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

type CoreConfig struct {
	DbPath     string `env:"DB_PATH, default=gatehouse.db"`
	ListenAddr string `env:"LISTEN_ADDR, default=0.0.0.0:4200"`
	Dev        bool   `env:"DEV, default=false"`
}

type InviteConfig struct {
	// Required gates signup on a valid invite code. Elevated members
	// may always create accounts directly.
	Required bool `env:"REQUIRED, default=true"`

	// ExpireDays is the default lifetime of a new invite. 0 means
	// invites never expire unless the inviter picks a lifetime.
	ExpireDays int `env:"EXPIRE_DAYS, default=30"`
}

type SystemConfig struct {
	// ReservedName is the system identity that authors protected
	// record pages. Claimed once at bootstrap, before public signup.
	ReservedName string `env:"RESERVED_NAME, default=Invitations-bot"`
}

type Config struct {
	Core    CoreConfig   `env:", prefix=GATEHOUSE_"`
	Invites InviteConfig `env:", prefix=GATEHOUSE_INVITE_"`
	System  SystemConfig `env:", prefix=GATEHOUSE_SYSTEM_"`
}

func LoadConfig(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
