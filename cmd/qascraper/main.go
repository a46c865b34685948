package main

import "QASchemaScraper/internal/cli"

func main() {
	cli.Execute()
}
