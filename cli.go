//go:build cli
// +build cli

package main

import (
	_ "remanerp/custom"

	"remanerp/cmd"
	"remanerp/config"
)

func main() {
	config.LoadEnv()
	cmd.Execute()
}
