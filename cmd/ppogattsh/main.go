package main

import (
	"github.com/robotalks/ppogatt/pkg/cli/sh"
	"github.com/robotalks/ppogatt/pkg/env"

	_ "github.com/robotalks/ppogatt/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
