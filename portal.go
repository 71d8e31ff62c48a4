package portal

import (
	"github.com/sib-utrecht/portal/config"
)

var Config config.Config

func Init(config config.Config) error {
	Config = config
	return nil
}
