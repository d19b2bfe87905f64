package main

import (
	"github.com/simsaas/simsaas/cmd"
	"github.com/simsaas/simsaas/pkg/env"
	"github.com/simsaas/simsaas/pkg/log"
)

func main() {
	if err := env.Process(); err != nil {
		log.Fatal("environment failure", "error", err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal("simsaas failure", "error", err)
	}
}
