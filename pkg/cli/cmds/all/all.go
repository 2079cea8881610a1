// Package all registers all shell commands.
package all

import (
	// link commands
	_ "github.com/robotalks/ppogatt/pkg/cli/cmds/link"
)
