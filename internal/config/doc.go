// Package config loads the settings of a Tessera session.
//
// Settings come from three places, later ones overriding earlier ones:
//
//  1. Built-in defaults (Default)
//  2. A TOML or YAML file (Load, LoadFromReader)
//  3. TESSERA_* environment variables (ApplyEnv)
//
// # Basic Usage
//
//	cfg, err := config.Load("tessera.toml")
//	if err != nil {
//	    return err
//	}
//	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
//	    return err
//	}
//
// A file only needs the keys it changes:
//
//	[display]
//	soft_wrap_column = 80
//	word_wrap = true
//
//	[logging]
//	level = "debug"
//	file = "/tmp/tessera.log"
//
// # Environment Variables
//
//	TESSERA_LOG_LEVEL         logging.level
//	TESSERA_LOG_FORMAT        logging.format
//	TESSERA_LOG_FILE          logging.file
//	TESSERA_LINE_ENDING       buffer.line_ending
//	TESSERA_READ_ONLY         buffer.read_only
//	TESSERA_TAB_LENGTH        display.tab_length
//	TESSERA_SOFT_WRAP_COLUMN  display.soft_wrap_column
//	TESSERA_WORD_WRAP         display.word_wrap
//	TESSERA_LINE_HEIGHT       display.line_height
//	TESSERA_SCRIPT_TIMEOUT    plugin.timeout_ms (milliseconds or a duration like "2s")
package config
