package main

import (
	"github.com/futurehomeno/edge-psa-setup/cmd"
)

func main() {
	cmd.Execute()
}
