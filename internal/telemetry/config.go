package telemetry

import "github.com/ekgmon/ekgmon/internal/errors"

const defaultDirPerm = 0o755

type Config struct {
	DBPath string
}

func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New().New(ErrInvalidDBPath)
	}

	return nil
}
