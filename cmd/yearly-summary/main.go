package main

import (
	"github.com/tidepool-org/yearly-summary/cmd/yearly-summary/command"
)

func main() {
	command.Execute()
}
