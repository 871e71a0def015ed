package main

import "github.com/i474232898/country-insights/cmd/country-insights/command"

func main() {
	command.Execute()
}
