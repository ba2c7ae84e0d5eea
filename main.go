package main

import "github.com/KaramelBytes/arrivals-cli/cmd"

func main() {
	cmd.Execute()
}
