package main

import "meeting-insights-go/internal/cli"

func main() {
	cli.Execute()
}
