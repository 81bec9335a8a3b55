package main

import (
	"github.com/NVIDIA/fleet-telemetry/pkg/cli"
)

func main() {
	cli.Execute()
}
