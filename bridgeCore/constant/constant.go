package constant

import "os"

// <NodeDir>/                    (e.g., /home/bridge/.pbridge)
// └── config/
//	└── pbridge_config.json
// └── databases/
//	└── pbridge.db

const (
	NodeDir = ".pbridge"

	ConfigSubdir   = "config"
	ConfigFileName = "pbridge_config.json"

	DatabasesSubdir = "databases"
)

var DefaultNodeHome = os.ExpandEnv("$HOME/") + NodeDir
