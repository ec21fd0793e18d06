package journal

import (
	"fmt"

	"github.com/rustyeddy/cryptobot/config"
)

// Open returns the journal selected by cfg, or nil when journaling is off.
func Open(cfg config.JournalConfig) (Journal, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "sqlite":
		j, err := NewSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return j, nil
	case "csv":
		j, err := NewCSV(cfg.TradesFile, cfg.EquityFile)
		if err != nil {
			return nil, err
		}
		return j, nil
	}
	return nil, fmt.Errorf("unknown journal type %q", cfg.Type)
}
