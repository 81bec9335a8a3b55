package main

import (
	"log"

	"github.com/NVIDIA/fleet-telemetry/pkg/api"
)

func main() {
	if err := api.Serve(); err != nil {
		log.Fatal(err)
	}
}
