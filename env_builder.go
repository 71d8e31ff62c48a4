//go:build !release

// Used as a factory for tests only

package portal

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type EnvBuilder struct {
	identity *Identity
	admin    bool
	logger   *zerolog.Logger
}

func BuildEnv() *EnvBuilder {
	return &EnvBuilder{
		identity: &Identity{
			Email:       "member@sib.test",
			ConscriboId: uuid.NewString(),
		},
	}
}

func (eb *EnvBuilder) ConscriboId(id string) *EnvBuilder {
	eb.identity.ConscriboId = id
	return eb
}

func (eb *EnvBuilder) Email(email string) *EnvBuilder {
	eb.identity.Email = email
	return eb
}

func (eb *EnvBuilder) Groups(groups ...string) *EnvBuilder {
	eb.identity.Groups = groups
	return eb
}

func (eb *EnvBuilder) Admin() *EnvBuilder {
	eb.admin = true
	return eb
}

func (eb *EnvBuilder) Logger(logger zerolog.Logger) *EnvBuilder {
	eb.logger = &logger
	return eb
}

func (eb *EnvBuilder) Env() *Env {
	logger := zerolog.Nop()
	if eb.logger != nil {
		logger = *eb.logger
	}

	return &Env{
		Identity:  eb.identity,
		Admin:     eb.admin,
		Logger:    logger,
		requestId: NextRequestId(),
	}
}
